package stats

import (
	"reflect"
	"testing"

	"github.com/san-kum/placesim/internal/placement"
	"github.com/san-kum/placesim/internal/sim"
)

var (
	placed   = placement.StatusPlaced
	unplaced = placement.StatusUnplaced
	optedOut = placement.StatusOptedOut
)

func fixture() []sim.StudentOutcome {
	return []sim.StudentOutcome{
		{RollNo: "1", Department: "CS", CGPA: 9.0, Domain1: "SDE", Domain2: "Data", Status: placed, PlacedCompany: "Google_SWE"},
		{RollNo: "2", Department: "CS", CGPA: 8.0, Domain1: "SDE", Status: unplaced},
		{RollNo: "3", Department: "EE", CGPA: 7.0, Domain1: "Core_EE", Status: placed, PlacedCompany: "TI_Core"},
		{RollNo: "4", Department: "EE", CGPA: 6.0, Domain1: "SDE", Domain2: "Core_EE", Status: optedOut},
		{RollNo: "5", Department: "MA", CGPA: 5.0, Domain1: "Data", Status: unplaced},
	}
}

func TestRound2(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{1.005, 1},
		{2.3451, 2.35},
		{-2.3451, -2.35},
		{0.125, 0.13},
		{66.666666, 66.67},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	companies := []placement.Company{{MinHires: 1, MaxHires: 3}, {MinHires: 2, MaxHires: 5}}
	s := Summary(fixture(), companies)

	want := SummaryStats{
		TotalStudents:    5,
		TotalCompanies:   2,
		PlacedStudents:   2,
		UnplacedStudents: 2,
		OptedOut:         1,
		PlacementRate:    40,
		AvgCGPAAll:       7,
		AvgCGPAPlaced:    8,
		TotalPositions:   8,
		MinPositions:     3,
	}
	if s != want {
		t.Errorf("Summary() = %+v, want %+v", s, want)
	}
}

func TestSummaryEmpty(t *testing.T) {
	s := Summary(nil, nil)
	if s.PlacementRate != 0 || s.AvgCGPAAll != 0 || s.AvgCGPAPlaced != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestDepartments(t *testing.T) {
	got := Departments(fixture())
	if len(got) != 3 {
		t.Fatalf("expected 3 departments, got %d", len(got))
	}
	order := []string{got[0].Department, got[1].Department, got[2].Department}
	if !reflect.DeepEqual(order, []string{"CS", "EE", "MA"}) {
		t.Errorf("order = %v", order)
	}
	if got[1].OptedOut != 1 || got[1].AvgCGPA != 6.5 || got[1].PlacementRate != 50 {
		t.Errorf("EE = %+v", got[1])
	}
}

func TestCGPABin(t *testing.T) {
	tests := []struct {
		cgpa float64
		want int
	}{
		{0, 0},
		{6, 0},
		{6.01, 1},
		{6.5, 1},
		{9.5, 7},
		{10, 8},
		{10.1, -1},
		{-1, -1},
	}
	for _, tt := range tests {
		if got := CGPABin(tt.cgpa); got != tt.want {
			t.Errorf("CGPABin(%v) = %d, want %d", tt.cgpa, got, tt.want)
		}
	}
}

func TestCGPADistribution(t *testing.T) {
	d := CGPADistribution(fixture())
	if !reflect.DeepEqual(d.Overall, []int{2, 0, 1, 0, 1, 0, 1, 0, 0}) {
		t.Errorf("overall = %v", d.Overall)
	}
	if !reflect.DeepEqual(d.Placed, []int{0, 0, 1, 0, 0, 0, 1, 0, 0}) {
		t.Errorf("placed = %v", d.Placed)
	}
	if !reflect.DeepEqual(d.Unplaced, []int{1, 0, 0, 0, 1, 0, 0, 0, 0}) {
		t.Errorf("unplaced = %v", d.Unplaced)
	}

	sum := 0
	for _, n := range d.Overall {
		sum += n
	}
	if sum != 5 {
		t.Errorf("histogram total = %d, want 5", sum)
	}
}

func TestDomains(t *testing.T) {
	d := Domains(fixture())
	if d.Domain1["SDE"] != 3 || d.Domain2["Core_EE"] != 1 || d.AllDomains["Core_EE"] != 2 {
		t.Errorf("unexpected domain counts %+v", d)
	}
	if len(d.Matrix) != 3 || d.Matrix[1].Department != "EE" || d.Matrix[1].Domains["Core_EE"] != 2 {
		t.Errorf("unexpected matrix %+v", d.Matrix)
	}
}

func TestVocabulary(t *testing.T) {
	students := fixture()
	if got := DepartmentCodes(students); !reflect.DeepEqual(got, []string{"CS", "EE", "MA"}) {
		t.Errorf("departments = %v", got)
	}
	if got := DomainNames(students); !reflect.DeepEqual(got, []string{"Core_EE", "Data", "SDE"}) {
		t.Errorf("domains = %v", got)
	}
}

func TestCompanies(t *testing.T) {
	c := Companies([]placement.Company{
		{JobRole: "SDE", VisitDay: 1, MinHires: 1, MaxHires: 2},
		{JobRole: "SDE", VisitDay: 1, MinHires: 2, MaxHires: 4},
		{JobRole: "Quant", VisitDay: 2, MinHires: 1, MaxHires: 1},
	})
	if c.RoleTypes["SDE"] != 2 || c.DayDistribution[1] != 2 || c.DayDistribution[2] != 1 {
		t.Errorf("unexpected distribution %+v", c)
	}
	if c.TotalMinCapacity != 4 || c.TotalMaxCapacity != 7 {
		t.Errorf("capacity = %d/%d", c.TotalMinCapacity, c.TotalMaxCapacity)
	}
	if c.AvgMinCapacity != 1.33 || c.AvgMaxCapacity != 2.33 {
		t.Errorf("averages = %v/%v", c.AvgMinCapacity, c.AvgMaxCapacity)
	}
}

func TestPlacements(t *testing.T) {
	p := Placements(fixture())
	if p.Overall.Total != 5 || p.Overall.Placed != 2 || p.Overall.PlacementRate != 40 {
		t.Errorf("overall = %+v", p.Overall)
	}
	if p.ByDepartment["EE"] != (Split{Total: 2, Placed: 1, OptedOut: 1}) {
		t.Errorf("EE = %+v", p.ByDepartment["EE"])
	}
}

func TestCompanyWise(t *testing.T) {
	in := []sim.CompanyOutcome{
		{CompanyID: "A", Hired: 1},
		{CompanyID: "B", Hired: 0},
		{CompanyID: "C", Hired: 4},
		{CompanyID: "D", Hired: 1},
	}
	cw := CompanyWise(in)

	var ids []string
	for _, c := range cw.Companies {
		ids = append(ids, c.CompanyID)
	}
	if !reflect.DeepEqual(ids, []string{"C", "A", "D", "B"}) {
		t.Errorf("order = %v", ids)
	}
	want := CompanyWiseTotals{TotalHired: 6, CompaniesThatHired: 3, AvgHiresPerCompany: 2}
	if cw.Statistics != want {
		t.Errorf("statistics = %+v, want %+v", cw.Statistics, want)
	}
	if in[0].CompanyID != "A" {
		t.Error("input slice was reordered")
	}
}

func TestMinHireReport(t *testing.T) {
	in := []sim.CompanyOutcome{
		{CompanyID: "A", VisitDay: 1, MinHires: 2, MaxHires: 4, Hired: 3},
		{CompanyID: "B", VisitDay: 1, MinHires: 2, MaxHires: 2, Hired: 0},
		{CompanyID: "C", VisitDay: 2, MinHires: 1, MaxHires: 1, Hired: 1},
	}

	all := MinHireReport(in, 0)
	if all.Total != 3 || all.MeetingMin != 2 || all.BelowMin != 1 {
		t.Errorf("all = %+v", all)
	}
	if !reflect.DeepEqual(all.ZeroHires, []string{"B"}) {
		t.Errorf("zero hires = %v", all.ZeroHires)
	}
	if all.Companies[1].Shortfall != 2 {
		t.Errorf("shortfall = %d", all.Companies[1].Shortfall)
	}

	day1 := MinHireReport(in, 1)
	if day1.Total != 2 || day1.MeetingRate != 50 {
		t.Errorf("day1 = %+v", day1)
	}
}
