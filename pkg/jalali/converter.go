package jalali

import (
	"fmt"
	"time"
)

// ToGregorian converts a Persian calendar date to midnight UTC of the equivalent Gregorian day.
// Only integer arithmetic is used. The result is an error for a non-positive year, a month or day
// outside its numeric range, or when the computed Gregorian month/day is out of range.
func ToGregorian(year, month, day int) (time.Time, error) {
	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %d/%d/%d", ErrInvalidDate, year, month, day)
	}

	jy := year
	gy := 621
	if jy > 979 {
		gy = 1600
		jy -= 979
	}

	days := 365*jy + (jy/33)*8 + ((jy%33)+3)/4 + 78 + day
	if month < 7 {
		days += (month - 1) * 31
	} else {
		days += (month-7)*30 + 186
	}

	gy += 400 * (days / 146097)
	days %= 146097
	if days > 36524 {
		days--
		gy += 100 * (days / 36524)
		days %= 36524
		if days >= 365 {
			days++
		}
	}
	gy += 4 * (days / 1461)
	days %= 1461
	// Day 365 of a 4-year block is still inside its leading leap year.
	if days > 365 {
		gy += (days - 1) / 365
		days = (days - 1) % 365
	}
	gd := days + 1

	monthDays := [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if isGregorianLeap(gy) {
		monthDays[2] = 29
	}
	gm := 0
	for gm < 13 && gd > monthDays[gm] {
		gd -= monthDays[gm]
		gm++
	}
	if gm < 1 || gm > 12 || gd < 1 {
		return time.Time{}, fmt.Errorf("%w: %d/%d/%d converts out of range", ErrInvalidDate, year, month, day)
	}

	return time.Date(gy, time.Month(gm), gd, 0, 0, 0, 0, time.UTC), nil
}

// FromGregorian returns the Persian date of t's civil day in t's location.
func FromGregorian(t time.Time) Date {
	gy, gm, gd := t.Year(), int(t.Month()), t.Day()
	daysBeforeMonth := [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

	gy2 := gy
	if gm > 2 {
		gy2 = gy + 1
	}
	days := 355666 + 365*gy + (gy2+3)/4 - (gy2+99)/100 + (gy2+399)/400 + gd + daysBeforeMonth[gm-1]

	jy := -1595 + 33*(days/12053)
	days %= 12053
	jy += 4 * (days / 1461)
	days %= 1461
	if days > 365 {
		jy += (days - 1) / 365
		days = (days - 1) % 365
	}

	if days < 186 {
		return Date{Year: jy, Month: 1 + days/31, Day: 1 + days%31}
	}
	return Date{Year: jy, Month: 7 + (days-186)/30, Day: 1 + (days-186)%30}
}

func isGregorianLeap(year int) bool {
	return year%4 == 0 && year%100 != 0 || year%400 == 0
}
