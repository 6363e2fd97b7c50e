package jalali

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGregorian(t *testing.T) {
	tests := []struct {
		name                string
		year, month, day    int
		wantY, wantM, wantD int
	}{
		{"bahman 1403", 1403, 11, 20, 2025, 2, 8},
		{"nowruz 1403", 1403, 1, 1, 2024, 3, 20},
		{"dey 1402 at gregorian year end", 1402, 10, 10, 2023, 12, 31},
		{"leap esfand 1399", 1399, 12, 30, 2021, 3, 20},
		{"mehr 1404", 1404, 7, 27, 2025, 10, 19},
		{"first year accepted from input", 1300, 1, 1, 1921, 3, 21},
		{"year below 979 anchor", 900, 1, 1, 1521, 3, 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToGregorian(tt.year, tt.month, tt.day)

			require.NoError(t, err)
			assert.Equal(t, time.Date(tt.wantY, time.Month(tt.wantM), tt.wantD, 0, 0, 0, 0, time.UTC), got)
		})
	}
}

func TestToGregorian_InvalidInput(t *testing.T) {
	tests := []struct {
		name             string
		year, month, day int
	}{
		{"zero year", 0, 1, 1},
		{"month 13", 1403, 13, 1},
		{"month 0", 1403, 0, 1},
		{"day 32", 1403, 1, 32},
		{"day 0", 1403, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToGregorian(tt.year, tt.month, tt.day)

			require.ErrorIs(t, err, ErrInvalidDate)
			assert.True(t, got.IsZero())
		})
	}
}

func TestToGregorian_EveryValidDateConvertsAndRoundTrips(t *testing.T) {
	for year := MinYear; year <= MaxYear; year++ {
		var previous time.Time
		for month := 1; month <= 12; month++ {
			for day := 1; day <= DaysInMonth(year, month); day++ {
				got, err := ToGregorian(year, month, day)
				if err != nil {
					t.Fatalf("ToGregorian(%d, %d, %d) failed: %v", year, month, day, err)
				}
				again, _ := ToGregorian(year, month, day)
				if !got.Equal(again) {
					t.Fatalf("ToGregorian(%d, %d, %d) is not deterministic", year, month, day)
				}
				if back := FromGregorian(got); back != (Date{year, month, day}) {
					t.Fatalf("FromGregorian(%s) = %s, want %04d/%02d/%02d", got.Format(time.DateOnly), back, year, month, day)
				}
				if !previous.IsZero() && got.Sub(previous) != 24*time.Hour {
					t.Fatalf("%04d/%02d/%02d is not the day after %s", year, month, day, previous.Format(time.DateOnly))
				}
				previous = got
			}
		}
	}
}

func TestFromGregorian_UsesCivilDayOfLocation(t *testing.T) {
	tehran := time.FixedZone("Asia/Tehran", 3*3600+1800)
	// 22:00 UTC on 7 Feb is already 8 Feb in Tehran
	instant := time.Date(2025, time.February, 7, 22, 0, 0, 0, time.UTC).In(tehran)

	assert.Equal(t, Date{1403, 11, 20}, FromGregorian(instant))
}

func TestIsLeapYear(t *testing.T) {
	leap := []int{1399, 1403, 1408, 1412, 1416, 1420}
	common := []int{1400, 1401, 1402, 1404, 1405}

	for _, y := range leap {
		assert.Truef(t, IsLeapYear(y), "%d should be leap", y)
	}
	for _, y := range common {
		assert.Falsef(t, IsLeapYear(y), "%d should not be leap", y)
	}
}

func TestDate_Valid(t *testing.T) {
	tests := []struct {
		name string
		date Date
		want bool
	}{
		{"31 days in first half", Date{1403, 6, 31}, true},
		{"30 days max in mehr", Date{1403, 7, 31}, false},
		{"esfand 30 in leap year", Date{1403, 12, 30}, true},
		{"esfand 30 in common year", Date{1404, 12, 30}, false},
		{"esfand 29 in common year", Date{1404, 12, 29}, true},
		{"zero day", Date{1403, 1, 0}, false},
		{"month out of range", Date{1403, 13, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.date.Valid())
		})
	}
}

func TestNewDate(t *testing.T) {
	d, err := NewDate(1403, 11, 20)
	require.NoError(t, err)
	assert.Equal(t, "1403/11/20", d.String())

	_, err = NewDate(1404, 12, 30)
	assert.True(t, errors.Is(err, ErrInvalidDate))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "بهمن", MonthName(11))
	assert.Equal(t, "فروردین", MonthName(1))
	assert.Equal(t, "نامعتبر", MonthName(0))
}
