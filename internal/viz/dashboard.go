package viz

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/san-kum/placesim/internal/placement"
	"github.com/san-kum/placesim/internal/sim"
	"github.com/san-kum/placesim/internal/stats"
	"github.com/san-kum/placesim/internal/storage"
)

var (
	tableBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))
	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Padding(0, 1)
	tableNumber = tableCell.Align(lipgloss.Right)
)

// Table builds a table whose columns listed in numeric are right aligned.
func Table(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeader
			case right[col]:
				return tableNumber
			default:
				return tableCell
			}
		})
	return t.Render()
}

// SummaryTiles renders the headline numbers side by side.
func SummaryTiles(s stats.SummaryStats) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		Tile("students", Int(s.TotalStudents)),
		Tile("companies", Int(s.TotalCompanies)),
		Tile("placed", Int(s.PlacedStudents)),
		Tile("unplaced", Int(s.UnplacedStudents)),
		Tile("opted out", Int(s.OptedOut)),
		Tile("placement rate", Percent(s.PlacementRate)),
		Tile("avg cgpa placed", Float(s.AvgCGPAPlaced)),
	)
}

func DepartmentTable(depts []stats.DepartmentStats) string {
	rows := make([][]string, 0, len(depts))
	for _, d := range depts {
		rows = append(rows, []string{
			d.Department, Int(d.Total), Int(d.Placed), Int(d.Unplaced), Int(d.OptedOut),
			Float(d.AvgCGPA), Percent(d.PlacementRate),
		})
	}
	return Table([]string{"dept", "total", "placed", "unplaced", "opted out", "avg cgpa", "rate"}, rows, 1, 2, 3, 4, 5, 6)
}

// StudentTable lists up to limit students; limit <= 0 lists all.
func StudentTable(students []sim.StudentOutcome, limit int) string {
	if limit <= 0 || limit > len(students) {
		limit = len(students)
	}
	rows := make([][]string, 0, limit)
	for _, s := range students[:limit] {
		rows = append(rows, []string{
			s.RollNo, s.Name, s.Department, strconv.FormatFloat(s.CGPA, 'f', 2, 64),
			Badge(s.Status), s.PlacedCompany,
		})
	}
	out := Table([]string{"roll no", "name", "dept", "cgpa", "status", "company"}, rows, 3)
	if limit < len(students) {
		out += "\n" + Subtle.Render(fmt.Sprintf("… %s more", Int(len(students)-limit)))
	}
	return out
}

// CompanyTable lists companies by hires, most first.
func CompanyTable(companies []sim.CompanyOutcome, limit int) string {
	sorted := stats.CompanyWise(companies).Companies
	if limit <= 0 || limit > len(sorted) {
		limit = len(sorted)
	}
	rows := make([][]string, 0, limit)
	for _, c := range sorted[:limit] {
		hired := Int(c.Hired)
		if c.Hired < c.MinHires {
			hired = ErrorText.Render(hired)
		}
		rows = append(rows, []string{
			c.CompanyID, strconv.Itoa(c.VisitDay), Int(c.Applicants), Int(c.Shortlisted),
			Int(c.Offered), hired, fmt.Sprintf("%d-%d", c.MinHires, c.MaxHires),
		})
	}
	return Table([]string{"company", "day", "applied", "shortlisted", "offered", "hired", "min-max"}, rows, 1, 2, 3, 4, 5)
}

func RunsTable(runs []storage.RunMetadata) string {
	if len(runs) == 0 {
		return Subtle.Render("no stored runs")
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID, r.Name, r.CreatedAt.Local().Format("2006-01-02 15:04"), strconv.FormatInt(r.Seed, 10),
			Int(r.Placed), Int(r.TotalStudents), Percent(r.PlacementRate()),
		})
	}
	return Table([]string{"id", "name", "created", "seed", "placed", "students", "rate"}, rows, 3, 4, 5, 6)
}

// AggregateTable renders ensemble statistics.
func AggregateTable(a sim.Aggregate) string {
	spread := func(s sim.Spread) string { return Float(s.Mean) + " ± " + Float(s.Std) }
	rows := [][]string{
		{"runs", Int(len(a.Runs))},
		{"placed", spread(a.Placed)},
		{"placed range", fmt.Sprintf("%s - %s", Int(a.MinPlaced), Int(a.MaxPlaced))},
		{"opted out", spread(a.OptedOut)},
		{"placement rate %", spread(a.PlacementRate)},
		{"avg opt-out rate %", Float(a.AvgOptOutRate)},
		{"avg companies hiring", Float(a.AvgCompaniesHired)},
	}
	out := Table([]string{"metric", "value"}, rows, 1)

	placed := make([]float64, len(a.Runs))
	for i, r := range a.Runs {
		placed[i] = float64(r.Placed)
	}
	if len(placed) > 1 {
		out += "\n" + Sparkline(placed, max(len(placed), 20))
	}

	depts := make([]string, 0, len(a.Departments))
	for d := range a.Departments {
		depts = append(depts, d)
	}
	sort.Strings(depts)
	if len(depts) > 0 {
		drows := make([][]string, 0, len(depts))
		for _, d := range depts {
			drows = append(drows, []string{d, spread(a.Departments[d])})
		}
		out += "\n" + Table([]string{"dept", "placed"}, drows, 1)
	}
	return out
}

// Dashboard renders the full terminal view of one result. Without the
// season's companies, capacity totals come from the result itself.
func Dashboard(title string, res *sim.Result, companies []placement.Company) string {
	if companies == nil {
		for _, c := range res.Companies {
			companies = append(companies, placement.Company{
				Name: c.CompanyName, JobRole: c.JobRole, VisitDay: c.VisitDay,
				MinHires: c.MinHires, MaxHires: c.MaxHires,
			})
		}
	}
	var b strings.Builder
	b.WriteString(Title.Render(title) + "\n")
	b.WriteString(Separator(72) + "\n")
	b.WriteString(SummaryTiles(stats.Summary(res.Students, companies)) + "\n\n")

	depts := stats.Departments(res.Students)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		BoxWithTitle("Departments", DepartmentTable(depts)),
		BoxWithTitle("Placed by department", DepartmentChart(depts)),
	) + "\n")
	b.WriteString(BoxWithTitle("CGPA distribution", CGPAChart(stats.CGPADistribution(res.Students))) + "\n")

	if len(res.Companies) > 0 {
		b.WriteString(BoxWithTitle("Top companies", CompanyTable(res.Companies, 10)) + "\n")
	}
	if n := len(res.Warnings); n > 0 {
		b.WriteString(KeyHint.Render(fmt.Sprintf("%s companies fell short of their minimum hires", Int(n))) + "\n")
	}
	return b.String()
}
