package export

import (
	"fmt"
	"strconv"

	"github.com/weekstatus/weekstatus/pkg/schedule"
)

const emptyCell = "-"

type Format string

const (
	Pdf Format = "pdf"
	Csv Format = "csv"
)

// ParseFormat maps a command or callback action to a format. Anything but "csv" is a PDF.
func ParseFormat(s string) Format {
	if Format(s) == Csv {
		return Csv
	}
	return Pdf
}

type Document struct {
	FileName string
	Content  []byte
}

type Renderer interface {
	Render(owner Owner, s schedule.UserSchedule) (Document, error)
}

// Owner identifies whose schedule is exported.
type Owner struct {
	UserId   int64
	FullName string
	Username string
}

// FileName is schedule_<username>.<format>, or the user id when there is no username.
func (o Owner) FileName(format Format) string {
	name := o.Username
	if name == "" {
		name = strconv.FormatInt(o.UserId, 10)
	}
	return fmt.Sprintf("schedule_%s.%s", name, format)
}

type slot struct {
	title      string
	label      string
	start, end int
}

var slots = []slot{
	{"کلاس اول", "08:00 - 10:00", 8 * 60, 10 * 60},
	{"کلاس دوم", "10:00 - 12:00", 10 * 60, 12 * 60},
	{"کلاس سوم", "13:00 - 15:00", 13 * 60, 15 * 60},
	{"کلاس چهارم", "15:00 - 17:00", 15 * 60, 17 * 60},
	{"کلاس پنجم", "17:00 - 19:00", 17 * 60, 19 * 60},
}

// bySlot groups a day's lessons into the slot columns. Lessons starting outside every slot are left out.
func bySlot(lessons []schedule.Lesson) [][]schedule.Lesson {
	cells := make([][]schedule.Lesson, len(slots))
	for _, lesson := range lessons {
		idx := slotOf(lesson)
		if idx < 0 {
			continue
		}
		cells[idx] = append(cells[idx], lesson)
	}
	return cells
}

// slotOf places a lesson by its start time; -1 when it starts outside every slot.
func slotOf(lesson schedule.Lesson) int {
	start, ok := schedule.ParseTime(lesson.StartTime)
	if !ok {
		return -1
	}
	for i, s := range slots {
		if start >= s.start && start < s.end {
			return i
		}
	}
	return -1
}
