// Package export writes simulation results as CSV, JSON or Excel.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/san-kum/placesim/internal/sim"
	"github.com/san-kum/placesim/internal/stats"
	"github.com/xuri/excelize/v2"
)

var StudentHeader = []string{"roll_no", "name", "department", "cgpa", "domain_1", "domain_2", "status", "placed_company"}

var companyHeader = []string{
	"company_id", "company_name", "job_role", "visit_day", "min_hires", "max_hires",
	"interview_slots", "applicants", "shortlisted", "offered", "target_hires", "hired",
}

// Formats lists the accepted format names.
var Formats = []string{"csv", "json", "xlsx"}

// Data is a run together with what produced it.
type Data struct {
	RunID       string      `json:"run_id,omitempty"`
	Name        string      `json:"name,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	Config      sim.Config  `json:"config"`
	Result      *sim.Result `json:"result"`
}

func studentRow(s sim.StudentOutcome) []string {
	return []string{
		s.RollNo,
		s.Name,
		s.Department,
		strconv.FormatFloat(s.CGPA, 'f', -1, 64),
		s.Domain1,
		s.Domain2,
		string(s.Status),
		s.PlacedCompany,
	}
}

// WriteCSV writes one row per student.
func WriteCSV(w io.Writer, students []sim.StudentOutcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(StudentHeader); err != nil {
		return err
	}
	for _, s := range students {
		if err := cw.Write(studentRow(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteJSON(w io.Writer, d Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// WriteXLSX writes a workbook with Students, Companies and Summary sheets.
func WriteXLSX(w io.Writer, d Data) error {
	if d.Result == nil {
		return fmt.Errorf("no result to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Students"); err != nil {
		return err
	}
	if err := writeRows(f, "Students", StudentHeader, len(d.Result.Students), func(i int) []any {
		s := d.Result.Students[i]
		return []any{s.RollNo, s.Name, s.Department, s.CGPA, s.Domain1, s.Domain2, string(s.Status), s.PlacedCompany}
	}); err != nil {
		return err
	}

	if _, err := f.NewSheet("Companies"); err != nil {
		return err
	}
	if err := writeRows(f, "Companies", companyHeader, len(d.Result.Companies), func(i int) []any {
		c := d.Result.Companies[i]
		return []any{c.CompanyID, c.CompanyName, c.JobRole, c.VisitDay, c.MinHires, c.MaxHires,
			c.InterviewSlots, c.Applicants, c.Shortlisted, c.Offered, c.TargetHires, c.Hired}
	}); err != nil {
		return err
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return err
	}
	summary := summaryRows(d)
	if err := writeRows(f, "Summary", []string{"metric", "value"}, len(summary), func(i int) []any {
		return summary[i]
	}); err != nil {
		return err
	}

	_ = f.SetColWidth("Students", "A", "H", 16)
	_ = f.SetColWidth("Companies", "A", "C", 24)
	_ = f.SetColWidth("Summary", "A", "A", 28)
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, header []string, n int, row func(int) []any) error {
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func summaryRows(d Data) [][]any {
	r := d.Result
	s := stats.Placements(r.Students)
	cw := stats.CompanyWise(r.Companies)
	rows := [][]any{
		{"run_id", d.RunID},
		{"random_seed", d.Config.RandomSeed},
		{"total_students", s.Overall.Total},
		{"placed", s.Overall.Placed},
		{"unplaced", s.Overall.Unplaced},
		{"opted_out", s.Overall.OptedOut},
		{"placement_rate", s.Overall.PlacementRate},
		{"total_hired", cw.Statistics.TotalHired},
		{"companies_that_hired", cw.Statistics.CompaniesThatHired},
		{"avg_hires_per_company", cw.Statistics.AvgHiresPerCompany},
	}
	if d.Fingerprint != "" {
		rows = append(rows, []any{"dataset_fingerprint", d.Fingerprint})
	}
	return rows
}

// Write dispatches on format. CSV carries only the student table.
func Write(w io.Writer, format string, d Data) error {
	switch format {
	case "csv":
		if d.Result == nil {
			return fmt.Errorf("no result to export")
		}
		return WriteCSV(w, d.Result.Students)
	case "json":
		return WriteJSON(w, d)
	case "xlsx":
		return WriteXLSX(w, d)
	default:
		return fmt.Errorf("unknown format %q (want csv, json or xlsx)", format)
	}
}

// ToFile writes d to path in the given format.
func ToFile(path, format string, d Data) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, format, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case "csv":
		return "text/csv"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}
