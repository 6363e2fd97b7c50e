package week_parity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weekstatus/weekstatus/pkg/jalali"
)

var ErrInvalidParity = errors.New("invalid week parity")

type Parity string

const (
	Odd  Parity = "odd"
	Even Parity = "even"
)

// ParseParity accepts "odd"/"even" and the Persian labels "فرد"/"زوج".
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "odd", "فرد":
		return Odd, nil
	case "even", "زوج":
		return Even, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidParity, s)
}

// Opposite returns the parity of the neighbouring weeks.
func (p Parity) Opposite() Parity {
	if p == Even {
		return Odd
	}
	return Even
}

// Label is the Persian name shown to users.
func (p Parity) Label() string {
	if p == Even {
		return "زوج"
	}
	return "فرد"
}

// Reference anchors the parity sequence: the week containing Date has parity Parity.
type Reference struct {
	Date   time.Time
	Parity Parity
}

// NewReference converts the configured Persian date once. Callers treat an error as fatal.
func NewReference(date jalali.Date, parity Parity) (Reference, error) {
	if parity != Odd && parity != Even {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidParity, parity)
	}
	gregorian, err := date.ToGregorian()
	if err != nil {
		return Reference{}, fmt.Errorf("failed to convert reference date %s: %w", date, err)
	}
	return Reference{Date: gregorian, Parity: parity}, nil
}

// StartOfWeek returns midnight UTC of the Saturday at or before the civil day of date.
func StartOfWeek(date time.Time) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	daysToSubtract := (int(day.Weekday()) + 1) % 7
	return day.AddDate(0, 0, -daysToSubtract)
}

// CurrentParity returns the parity of the week containing now. now must already be in the civil
// time zone of the schedule; only its year, month and day are read.
func CurrentParity(now time.Time, ref Reference) Parity {
	weeks := WeeksBetween(ref.Date, now)
	if weeks%2 == 0 {
		return ref.Parity
	}
	return ref.Parity.Opposite()
}

// WeeksBetween counts whole Saturday-started weeks from the week of from to the week of to.
// The result is negative when to lies in an earlier week.
func WeeksBetween(from, to time.Time) int {
	diff := StartOfWeek(to).Sub(StartOfWeek(from))
	days := floorDiv(int(diff/time.Hour), 24)
	return floorDiv(days, 7)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
