// Package export renders reports as spreadsheet workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"docflow/internal/model"
)

const (
	SheetSummary  = "Summary"
	SheetUsers    = "Users"
	SheetActivity = "Activity"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	timestampFormat = "2006-01-02 15:04:05"
)

// Filename is the download name for a report generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("docflow-report-%s.xlsx", t.Format("20060102-150405"))
}

// workbook wraps an excelize file with the shared header style.
type workbook struct {
	file        *excelize.File
	headerStyle int
	loc         *time.Location
}

func newWorkbook(loc *time.Location) (*workbook, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	return &workbook{file: f, headerStyle: style, loc: loc}, nil
}

// sheet writes a header row plus rows, freezes the header and sizes columns.
func (w *workbook) sheet(name string, header []string, rows [][]any, widths []float64) error {
	if name != SheetSummary {
		if _, err := w.file.NewSheet(name); err != nil {
			return err
		}
	}
	if err := w.file.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := w.file.SetCellStyle(name, "A1", last, w.headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := w.file.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", name, i+2, err)
		}
	}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := w.file.SetColWidth(name, col, col, width); err != nil {
			return err
		}
	}
	return w.file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (w *workbook) stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(w.loc).Format(timestampFormat)
}

// WriteReport renders r as a workbook with Summary, Users and Activity sheets.
// Timestamps are shown in loc.
func WriteReport(out io.Writer, r *model.Report, loc *time.Location) error {
	w, err := newWorkbook(loc)
	if err != nil {
		return err
	}
	defer w.file.Close()

	summary := make([][]any, 0, len(r.Summary.Breakdown)+2)
	for _, c := range r.Summary.Breakdown {
		summary = append(summary, []any{c.Label, c.Value, c.Pct})
	}
	summary = append(summary,
		[]any{"Total", r.Summary.Total, ""},
		[]any{"Generated at", w.stamp(r.Summary.GeneratedAt), ""},
	)
	if err := w.sheet(SheetSummary, []string{"Status", "Documents", "Percent"}, summary, []float64{16, 14, 10}); err != nil {
		return err
	}

	header := []string{"User", "Name", "Role", "Total"}
	for _, st := range model.Statuses {
		header = append(header, string(st))
	}
	users := make([][]any, 0, len(r.Users))
	for _, u := range r.Users {
		row := []any{u.UserID, u.Name, string(u.Role), u.Total}
		for _, st := range model.Statuses {
			row = append(row, u.Counts[st])
		}
		users = append(users, row)
	}
	if err := w.sheet(SheetUsers, header, users, []float64{38, 24, 10, 8}); err != nil {
		return err
	}

	activity := make([][]any, 0, len(r.RecentActivity))
	for _, e := range r.RecentActivity {
		activity = append(activity, []any{
			w.stamp(e.CreatedAt), string(e.Action), deref(e.ActorEmail, deref(e.ActorID, "")), deref(e.TargetDocumentID, ""), e.Detail,
		})
	}
	if err := w.sheet(SheetActivity, []string{"When", "Action", "Actor", "Document", "Detail"}, activity, []float64{20, 10, 28, 38, 60}); err != nil {
		return err
	}

	if _, err := w.file.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
