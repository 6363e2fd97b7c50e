package export

import (
	"bytes"
	"encoding/csv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/pkg/schedule"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

// utf8BOM makes spreadsheet applications read the file as UTF-8.
const utf8BOM = "\ufeff"

type CsvScheduleRendererImpl struct {
}

func NewCsvScheduleRenderer() *CsvScheduleRendererImpl {
	return &CsvScheduleRendererImpl{}
}

func (r *CsvScheduleRendererImpl) Render(owner Owner, s schedule.UserSchedule) (Document, error) {
	data := make([][]string, 0, 2*(len(schedule.Days)+3))
	data = append(data, []string{"برنامه هفتگی", owner.FullName})
	for i, parity := range []week_parity.Parity{week_parity.Odd, week_parity.Even} {
		if i > 0 {
			data = append(data, []string{})
		}
		data = append(data, []string{"هفته " + parity.Label()})
		data = append(data, headerRow())
		for _, day := range schedule.Days {
			data = append(data, dayRow(day, s.Week(parity)[day]))
		}
	}

	var b bytes.Buffer
	b.WriteString(utf8BOM)
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return Document{}, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return Document{}, err
	}

	return Document{FileName: owner.FileName(Csv), Content: b.Bytes()}, nil
}

func headerRow() []string {
	row := make([]string, 0, len(slots)+1)
	row = append(row, "روز")
	for _, s := range slots {
		row = append(row, s.label)
	}
	return row
}

func dayRow(day schedule.DayKey, lessons []schedule.Lesson) []string {
	row := make([]string, 0, len(slots)+1)
	row = append(row, day.Label())
	for _, cell := range bySlot(lessons) {
		if len(cell) == 0 {
			row = append(row, emptyCell)
			continue
		}
		names := make([]string, 0, len(cell))
		for _, lesson := range cell {
			names = append(names, lesson.Name+" ("+lesson.Location+")")
		}
		row = append(row, strings.Join(names, " / "))
	}
	return row
}
