package jalali

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDate = errors.New("invalid persian date")

// MinYear and MaxYear bound the years accepted from user input.
const (
	MinYear = 1300
	MaxYear = 1500
)

var monthNames = [12]string{
	"فروردین", "اردیبهشت", "خرداد", "تیر", "مرداد", "شهریور",
	"مهر", "آبان", "آذر", "دی", "بهمن", "اسفند",
}

// leapRemainders lists year%33 values of the leap years in the 33-year cycle.
var leapRemainders = map[int]bool{1: true, 5: true, 9: true, 13: true, 17: true, 22: true, 26: true, 30: true}

// Date is a day in the Persian (Jalali) calendar.
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate returns a validated Date.
func NewDate(year, month, day int) (Date, error) {
	d := Date{Year: year, Month: month, Day: day}
	if !d.Valid() {
		return Date{}, fmt.Errorf("%w: %s", ErrInvalidDate, d)
	}
	return d, nil
}

// IsLeapYear reports whether the Persian year has 30 days in Esfand.
func IsLeapYear(year int) bool {
	r := year % 33
	if r < 0 {
		r += 33
	}
	return leapRemainders[r]
}

// DaysInMonth returns the number of days of the month, or 0 for a month outside 1-12.
func DaysInMonth(year, month int) int {
	switch {
	case month >= 1 && month <= 6:
		return 31
	case month >= 7 && month <= 11:
		return 30
	case month == 12:
		if IsLeapYear(year) {
			return 30
		}
		return 29
	}
	return 0
}

// Valid checks the day-per-month rules. The year range is not checked here.
func (d Date) Valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return d.Day <= DaysInMonth(d.Year, d.Month)
}

// ToGregorian converts the date to midnight UTC of the same Gregorian day.
func (d Date) ToGregorian() (time.Time, error) {
	return ToGregorian(d.Year, d.Month, d.Day)
}

// MonthName returns the Persian month name, or "نامعتبر" for an invalid month.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return "نامعتبر"
	}
	return monthNames[month-1]
}

func (d Date) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}
