package export

import (
	"bytes"
	"strconv"

	"codeberg.org/go-pdf/fpdf"
	"github.com/go-fonts/dejavu/dejavusans"
	"github.com/go-fonts/dejavu/dejavusansbold"
	log "github.com/sirupsen/logrus"
	"github.com/weekstatus/weekstatus/pkg/schedule"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

const (
	pdfFont      = "DejaVu"
	pageMargin   = 10.0
	tableTop     = 45.0
	dayColWidth  = 25.0
	lineHeight   = 5.0
	cellPadding  = 2.0
	minRowHeight = 12.0
)

// PdfScheduleRendererImpl draws one landscape A4 page per week with the days as rows and the slots
// as columns, laid out right to left.
type PdfScheduleRendererImpl struct {
}

func NewPdfScheduleRenderer() *PdfScheduleRendererImpl {
	return &PdfScheduleRendererImpl{}
}

func (r *PdfScheduleRendererImpl) Render(owner Owner, s schedule.UserSchedule) (Document, error) {
	pdf := r.build(owner, s)

	var b bytes.Buffer
	if err := pdf.Output(&b); err != nil {
		log.Errorf("Error writing pdf: %v", err)
		return Document{}, err
	}
	return Document{FileName: owner.FileName(Pdf), Content: b.Bytes()}, nil
}

func (r *PdfScheduleRendererImpl) build(owner Owner, s schedule.UserSchedule) *fpdf.Fpdf {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("برنامه هفتگی", true)
	pdf.SetCreator("weekstatus", false)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddUTF8FontFromBytes(pdfFont, "", dejavusans.TTF)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", dejavusansbold.TTF)
	pdf.SetFooterFunc(func() {
		pageWidth, pageHeight := pdf.GetPageSize()
		pdf.SetFont(pdfFont, "", 8)
		pdf.SetXY(pageMargin, pageHeight-pageMargin)
		pdf.CellFormat(pageWidth-2*pageMargin, 4, strconv.Itoa(pdf.PageNo()), "", 0, "L", false, 0, "")
	})

	for _, parity := range []week_parity.Parity{week_parity.Odd, week_parity.Even} {
		pdf.AddPage()
		weekPage(pdf, owner, parity, s.Week(parity))
	}
	return pdf
}

func weekPage(pdf *fpdf.Fpdf, owner Owner, parity week_parity.Parity, week schedule.Week) {
	pageWidth, pageHeight := pdf.GetPageSize()
	width := pageWidth - 2*pageMargin

	name := owner.FullName
	if name == "" {
		name = emptyCell
	}
	heading := func(y, size float64, style, text string) {
		pdf.SetFont(pdfFont, style, size)
		pdf.SetXY(pageMargin, y)
		pdf.CellFormat(width, size/2, persianLine(text), "", 0, "C", false, 0, "")
	}
	heading(12, 18, "B", "برنامه هفتگی")
	heading(22, 12, "", "نام: "+name)
	heading(32, 14, "B", "هفته "+parity.Label())

	header := make([][]string, 0, len(slots)+1)
	header = append(header, []string{"روز"})
	for _, sl := range slots {
		header = append(header, []string{sl.title, sl.label})
	}

	y := tableTop
	y += tableRow(pdf, y, width, header, true)
	for _, day := range schedule.Days {
		cells := make([][]string, 0, len(slots)+1)
		cells = append(cells, []string{day.Label()})
		for _, lessons := range bySlot(week[day]) {
			cells = append(cells, cellLines(lessons))
		}
		if y+rowHeight(pdf, width, cells) > pageHeight-2*pageMargin {
			pdf.AddPage()
			y = pageMargin
			y += tableRow(pdf, y, width, header, true)
		}
		y += tableRow(pdf, y, width, cells, false)
	}
}

// cellLines lists name and location of every lesson in a slot, one per line.
func cellLines(lessons []schedule.Lesson) []string {
	if len(lessons) == 0 {
		return []string{emptyCell}
	}
	lines := make([]string, 0, 2*len(lessons))
	for _, lesson := range lessons {
		lines = append(lines, lesson.Name)
		if lesson.Location != "" {
			lines = append(lines, lesson.Location)
		}
	}
	return lines
}

// columnBox returns the left edge and width of column i, where column 0 is the day and the slots
// follow from right to left.
func columnBox(i int, width float64) (float64, float64) {
	slotWidth := (width - dayColWidth) / float64(len(slots))
	if i == 0 {
		return pageMargin + width - dayColWidth, dayColWidth
	}
	return pageMargin + float64(len(slots)-i)*slotWidth, slotWidth
}

// wrap shapes each logical line and breaks it to the column width. Lines are reordered for
// drawing only after breaking, so a wrapped line keeps the start of the text on top.
func wrap(pdf *fpdf.Fpdf, lines []string, w float64) []string {
	var out []string
	for _, line := range lines {
		if line == "" {
			continue
		}
		for _, part := range pdf.SplitText(shapePersian(line), w-2*cellPadding) {
			out = append(out, visualOrder(part))
		}
	}
	return out
}

func rowHeight(pdf *fpdf.Fpdf, width float64, cells [][]string) float64 {
	pdf.SetFont(pdfFont, "", 9)
	h := minRowHeight
	for i, cell := range cells {
		_, w := columnBox(i, width)
		if ch := float64(len(wrap(pdf, cell, w)))*lineHeight + 2*cellPadding; ch > h {
			h = ch
		}
	}
	return h
}

// tableRow draws one bordered row at y and returns its height.
func tableRow(pdf *fpdf.Fpdf, y, width float64, cells [][]string, head bool) float64 {
	h := rowHeight(pdf, width, cells)

	style, rectStyle := "", "D"
	if head {
		style, rectStyle = "B", "FD"
		pdf.SetFillColor(220, 220, 220)
	}
	for i, cell := range cells {
		cellStyle := style
		if i == 0 {
			cellStyle = "B"
		}
		pdf.SetFont(pdfFont, cellStyle, 9)
		x, w := columnBox(i, width)
		pdf.Rect(x, y, w, h, rectStyle)

		lines := wrap(pdf, cell, w)
		top := y + (h-float64(len(lines))*lineHeight)/2
		for k, line := range lines {
			pdf.SetXY(x, top+float64(k)*lineHeight)
			pdf.CellFormat(w, lineHeight, line, "", 0, "C", false, 0, "")
		}
	}
	return h
}
