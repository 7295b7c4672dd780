// Package export writes a composed bill as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/feebill/internal/bill"
)

// SheetName is the single sheet of an exported bill.
const SheetName = "Bill"

// ContentType is the MIME type of WriteXLSX output.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// amountFormat is the built-in "#,##0.00" number format.
const amountFormat = 4

// Filename is the download name of doc, e.g. "fee-bill-FB-20241018-1A2B3C4D.xlsx".
func Filename(doc *bill.Document) string {
	return fmt.Sprintf("fee-bill-%s.xlsx", doc.Number)
}

// WriteXLSX writes doc as a one-sheet workbook: header block, student and bill
// details, the fee table and totals. Only the first copy is written since
// every copy carries the same summary.
func WriteXLSX(w io.Writer, doc *bill.Document) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("Failed to close workbook", "bill_number", doc.Number, "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	sw := &sheetWriter{f: f}
	sw.row(styles.title, doc.Institution.Name)
	if doc.Institution.Address != "" {
		sw.row(0, doc.Institution.Address)
	}
	if doc.Institution.Phone != "" || doc.Institution.Email != "" {
		sw.row(0, fmt.Sprintf("Phone: %s | Email: %s", doc.Institution.Phone, doc.Institution.Email))
	}
	sw.row(styles.bold, "FEE BILL")
	sw.row(0, "Academic Year "+doc.AcademicYear)
	sw.skip()

	sw.pair(styles.bold, "Name", doc.Student.Name)
	sw.pair(styles.bold, "Class", doc.Student.Class)
	sw.pair(styles.bold, "Roll Number", doc.Student.RollNumber)
	sw.pair(styles.bold, "Bill No", doc.Number)
	sw.pair(styles.bold, "Bill Type", doc.BillTypeLabel)
	sw.pair(styles.bold, "Issue Date", doc.IssueDate.Format("January 2, 2006"))
	sw.pair(styles.bold, "Due Date", doc.DueDate.Format("1/2/2006"))
	sw.skip()

	sw.row(styles.header, "Description", "Amount", "Due Amount")
	for _, item := range doc.Summary.Items {
		sw.amounts(styles.amount, item.Label, item.Amount, item.Due())
	}
	sw.amounts(styles.total, "Total Amount", doc.Summary.Total, doc.Summary.Due)

	if doc.Summary.HasDue() {
		sw.skip()
		sw.amounts(styles.due, "Total Outstanding Amount", doc.Summary.Due)
	}

	if sw.err != nil {
		return fmt.Errorf("failed to fill sheet: %w", sw.err)
	}
	if err := f.SetColWidth(SheetName, "A", "A", 48); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "C", 16); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type styleSet struct {
	title, bold, header, amount, total, due int
}

func newStyles(f *excelize.File) (styleSet, error) {
	var s styleSet
	border := []excelize.Border{
		{Type: "left", Color: "D1D5DB", Style: 1},
		{Type: "right", Color: "D1D5DB", Style: 1},
		{Type: "top", Color: "D1D5DB", Style: 1},
		{Type: "bottom", Color: "D1D5DB", Style: 1},
	}
	defs := []struct {
		id    *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16, Color: "2563EB"}}},
		{&s.bold, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.header, &excelize.Style{
			Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F2937"}},
			Border: border,
		}},
		{&s.amount, &excelize.Style{NumFmt: amountFormat, Border: border}},
		{&s.total, &excelize.Style{
			NumFmt: amountFormat,
			Font:   &excelize.Font{Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F3F4F6"}},
			Border: border,
		}},
		{&s.due, &excelize.Style{NumFmt: amountFormat, Font: &excelize.Font{Bold: true, Color: "B91C1C"}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("failed to create style: %w", err)
		}
		*d.id = id
	}
	return s, nil
}

// sheetWriter appends rows top to bottom, keeping the first error.
type sheetWriter struct {
	f   *excelize.File
	n   int
	err error
}

func (sw *sheetWriter) skip() { sw.n++ }

func (sw *sheetWriter) row(style int, values ...any) {
	sw.n++
	for i, v := range values {
		sw.set(i+1, v, style)
	}
}

func (sw *sheetWriter) pair(style int, label, value string) {
	sw.n++
	sw.set(1, label, style)
	sw.set(2, value, 0)
}

func (sw *sheetWriter) amounts(style int, label string, values ...float64) {
	sw.n++
	sw.set(1, label, style)
	for i, v := range values {
		sw.set(i+2, v, style)
	}
}

func (sw *sheetWriter) set(col int, value any, style int) {
	if sw.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, sw.n)
	if err != nil {
		sw.err = err
		return
	}
	if err := sw.f.SetCellValue(SheetName, cell, value); err != nil {
		sw.err = err
		return
	}
	if style != 0 {
		sw.err = sw.f.SetCellStyle(SheetName, cell, cell, style)
	}
}
