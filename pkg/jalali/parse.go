package jalali

import (
	"strconv"
	"strings"
)

// NormalizeDigits maps Persian (U+06F0..U+06F9) and Arabic-Indic (U+0660..U+0669) digits to ASCII.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		}
		return r
	}, s)
}

// Parse reads a Persian date typed by a user, e.g. "1403/11/20", "۱۴۰۳-۱۱-۲۰" or "14031120".
// Only year-first input is accepted. Any failure returns ErrInvalidDate and a zero Date.
func Parse(text string) (Date, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '/' || r == '-' || r == '.' {
			return r
		}
		return -1
	}, NormalizeDigits(text))

	var parts []string
	switch {
	case strings.Contains(cleaned, "/"):
		parts = strings.Split(cleaned, "/")
	case strings.Contains(cleaned, "-"):
		parts = strings.Split(cleaned, "-")
	case len(cleaned) == 8 && isASCIIDigits(cleaned):
		parts = []string{cleaned[0:4], cleaned[4:6], cleaned[6:8]}
	default:
		return Date{}, ErrInvalidDate
	}
	if len(parts) != 3 {
		return Date{}, ErrInvalidDate
	}

	var fields [3]int
	for i, p := range parts {
		n, ok := leadingInt(p)
		if !ok {
			return Date{}, ErrInvalidDate
		}
		fields[i] = n
	}

	year, month, day := fields[0], fields[1], fields[2]
	if year < MinYear || year > MaxYear {
		return Date{}, ErrInvalidDate
	}
	d := Date{Year: year, Month: month, Day: day}
	if !d.Valid() {
		return Date{}, ErrInvalidDate
	}
	return d, nil
}

// leadingInt parses the leading run of ASCII digits, so "20.5" reads as 20 and "0020" as 20.
func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	start := 0
	for start < end-1 && s[start] == '0' {
		start++
	}
	if end-start > 9 {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
