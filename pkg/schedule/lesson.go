package schedule

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/weekstatus/weekstatus/pkg/jalali"
)

// HH:MM with hours 00-23, or H:MM for 8 and 9 o'clock.
var timePattern = regexp.MustCompile(`^(?:[01]\d|2[0-3]|[89]):[0-5]\d$`)

const unparseableTime = 9999

// ParseTime converts a lesson time to minutes from midnight.
func ParseTime(s string) (int, bool) {
	if !timePattern.MatchString(s) {
		return 0, false
	}
	hours, minutes, _ := strings.Cut(s, ":")
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}

func startMinutes(l Lesson) int {
	if m, ok := ParseTime(l.StartTime); ok {
		return m
	}
	return unparseableTime
}

func sortLessons(lessons []Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		return startMinutes(lessons[i]) < startMinutes(lessons[j])
	})
}

// ParseLessonDetails reads "name - start - end - location" as typed by a user. Persian digits in the
// times are accepted.
func ParseLessonDetails(text string) (Lesson, error) {
	parts := strings.Split(text, "-")
	if len(parts) != 4 {
		return Lesson{}, fmt.Errorf("%w: expected 4 parts separated by '-', got %d", ErrInvalidLesson, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	lesson := Lesson{
		Name:      parts[0],
		StartTime: jalali.NormalizeDigits(parts[1]),
		EndTime:   jalali.NormalizeDigits(parts[2]),
		Location:  parts[3],
	}
	if err := lesson.Validate(); err != nil {
		return Lesson{}, err
	}
	return lesson, nil
}

func (l Lesson) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidLesson)
	}
	start, ok := ParseTime(l.StartTime)
	if !ok {
		return fmt.Errorf("%w: bad start time %q", ErrInvalidLesson, l.StartTime)
	}
	end, ok := ParseTime(l.EndTime)
	if !ok {
		return fmt.Errorf("%w: bad end time %q", ErrInvalidLesson, l.EndTime)
	}
	if end <= start {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidLesson, l.EndTime, l.StartTime)
	}
	return nil
}

// FormatDuration renders minutes as e.g. "1 ساعت و 30 دقیقه"; zero or less is "-".
func FormatDuration(totalMinutes int) string {
	if totalMinutes <= 0 {
		return "-"
	}
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d ساعت", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d دقیقه", minutes))
	}
	return strings.Join(parts, " و ")
}
