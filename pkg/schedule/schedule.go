package schedule

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

var ErrInvalidDay = errors.New("invalid teaching day")
var ErrInvalidLesson = errors.New("invalid lesson")

// DayKey names one of the five teaching days, Saturday to Wednesday.
type DayKey string

const (
	Saturday  DayKey = "saturday"
	Sunday    DayKey = "sunday"
	Monday    DayKey = "monday"
	Tuesday   DayKey = "tuesday"
	Wednesday DayKey = "wednesday"
)

var Days = []DayKey{Saturday, Sunday, Monday, Tuesday, Wednesday}

var dayLabels = map[DayKey]string{
	Saturday:  "شنبه",
	Sunday:    "یکشنبه",
	Monday:    "دوشنبه",
	Tuesday:   "سه‌شنبه",
	Wednesday: "چهارشنبه",
}

// weekdayLabels is indexed by days since Saturday.
var weekdayLabels = [7]string{"شنبه", "یکشنبه", "دوشنبه", "سه‌شنبه", "چهارشنبه", "پنج‌شنبه", "جمعه"}

func (d DayKey) Valid() bool {
	_, ok := dayLabels[d]
	return ok
}

func (d DayKey) Label() string {
	return dayLabels[d]
}

func ParseDayKey(s string) (DayKey, error) {
	d := DayKey(s)
	if !d.Valid() {
		return "", ErrInvalidDay
	}
	return d, nil
}

// DayOf returns the teaching day of t's civil date; ok is false on Thursday and Friday.
func DayOf(t time.Time) (day DayKey, ok bool) {
	idx := (int(t.Weekday()) + 1) % 7
	if idx < len(Days) {
		return Days[idx], true
	}
	return "", false
}

// WeekdayLabel is the Persian name of t's weekday, including Thursday and Friday.
func WeekdayLabel(t time.Time) string {
	return weekdayLabels[(int(t.Weekday())+1)%7]
}

type Lesson struct {
	Name      string `json:"lesson"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Location  string `json:"location"`
}

// Minutes is the lesson length, or 0 when a time does not parse.
func (l Lesson) Minutes() int {
	start, okStart := ParseTime(l.StartTime)
	end, okEnd := ParseTime(l.EndTime)
	if !okStart || !okEnd {
		return 0
	}
	return end - start
}

type Week map[DayKey][]Lesson

func (w Week) IsEmpty() bool {
	for _, lessons := range w {
		if len(lessons) > 0 {
			return false
		}
	}
	return true
}

func (w Week) clone() Week {
	out := make(Week, len(w))
	for day, lessons := range w {
		out[day] = append([]Lesson(nil), lessons...)
	}
	return out
}

type UserSchedule struct {
	Odd  Week
	Even Week
}

func (s UserSchedule) Week(parity week_parity.Parity) Week {
	if parity == week_parity.Even {
		return s.Even
	}
	return s.Odd
}

func (s UserSchedule) IsEmpty() bool {
	return s.Odd.IsEmpty() && s.Even.IsEmpty()
}

type rawLesson struct {
	Name      *string `json:"lesson"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Location  *string `json:"location"`
}

// decodeWeek reads a stored week leniently: unknown days and lessons missing a string field are
// dropped and every day is sorted by start time.
func decodeWeek(raw []byte) Week {
	week := Week{}
	if len(raw) == 0 {
		return week
	}
	var days map[string]json.RawMessage
	if err := json.Unmarshal(raw, &days); err != nil {
		return week
	}
	for _, day := range Days {
		var entries []json.RawMessage
		if err := json.Unmarshal(days[string(day)], &entries); err != nil {
			continue
		}
		lessons := make([]Lesson, 0, len(entries))
		for _, entry := range entries {
			var l rawLesson
			if err := json.Unmarshal(entry, &l); err != nil {
				continue
			}
			if l.Name == nil || l.StartTime == nil || l.EndTime == nil || l.Location == nil {
				continue
			}
			lessons = append(lessons, Lesson{Name: *l.Name, StartTime: *l.StartTime, EndTime: *l.EndTime, Location: *l.Location})
		}
		if len(lessons) > 0 {
			sortLessons(lessons)
			week[day] = lessons
		}
	}
	return week
}

func encodeWeek(week Week) ([]byte, error) {
	if week == nil {
		week = Week{}
	}
	return json.Marshal(week)
}
