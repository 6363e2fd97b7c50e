package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weekstatus/weekstatus/pkg/schedule"
)

func TestCsvScheduleRendererImpl_Render(t *testing.T) {
	// given
	renderer := NewCsvScheduleRenderer()
	s := schedule.UserSchedule{
		Odd: schedule.Week{
			schedule.Saturday: {
				{Name: "ریاضی", StartTime: "8:00", EndTime: "10:00", Location: "101"},
				{Name: "فیزیک", StartTime: "13:30", EndTime: "15:00", Location: "lab"},
				{Name: "late", StartTime: "19:00", EndTime: "20:00", Location: "x"},
			},
		},
		Even: schedule.Week{
			schedule.Wednesday: {
				{Name: "a", StartTime: "10:00", EndTime: "11:00", Location: "1"},
				{Name: "b", StartTime: "11:00", EndTime: "12:00", Location: "2"},
			},
		},
	}

	// when
	doc, err := renderer.Render(Owner{UserId: 9, FullName: "Sara"}, s)

	// then
	require.NoError(t, err)
	assert.Equal(t, "schedule_9.csv", doc.FileName)
	require.True(t, bytes.HasPrefix(doc.Content, []byte(utf8BOM)))

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(doc.Content, []byte(utf8BOM))))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	// title, odd label, header, 5 days, odd label, header, 5 days; csv skips the blank separator
	require.Len(t, rows, 1+2*(2+len(schedule.Days)))
	assert.Equal(t, []string{"برنامه هفتگی", "Sara"}, rows[0])
	assert.Equal(t, []string{"هفته فرد"}, rows[1])
	assert.Equal(t, headerRow(), rows[2])
	assert.Equal(t, []string{"شنبه", "ریاضی (101)", "-", "فیزیک (lab)", "-", "-"}, rows[3])
	assert.Equal(t, []string{"یکشنبه", "-", "-", "-", "-", "-"}, rows[4])

	assert.Equal(t, []string{"هفته زوج"}, rows[8])
	assert.Equal(t, []string{"چهارشنبه", "-", "a (1) / b (2)", "-", "-", "-"}, rows[14])
}
