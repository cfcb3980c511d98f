// Package stats computes the dashboard aggregates over student and company
// views. Every function is pure.
package stats

import (
	"math"
	"sort"

	"github.com/san-kum/placesim/internal/placement"
	"github.com/san-kum/placesim/internal/sim"
)

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(part) / float64(total) * 100)
}

type counts struct {
	total, placed, unplaced, optedOut int
	cgpaSum, placedCGPASum           float64
}

func (c *counts) add(s *sim.StudentOutcome) {
	c.total++
	c.cgpaSum += s.CGPA
	switch s.Status {
	case placement.StatusPlaced:
		c.placed++
		c.placedCGPASum += s.CGPA
	case placement.StatusUnplaced:
		c.unplaced++
	case placement.StatusOptedOut:
		c.optedOut++
	}
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return Round2(sum / float64(n))
}

type SummaryStats struct {
	TotalStudents    int     `json:"total_students"`
	TotalCompanies   int     `json:"total_companies"`
	PlacedStudents   int     `json:"placed_students"`
	UnplacedStudents int     `json:"unplaced_students"`
	OptedOut         int     `json:"opted_out"`
	PlacementRate    float64 `json:"placement_rate"`
	AvgCGPAAll       float64 `json:"avg_cgpa_all"`
	AvgCGPAPlaced    float64 `json:"avg_cgpa_placed"`
	TotalPositions   int     `json:"total_positions"`
	MinPositions     int     `json:"min_positions"`
}

func Summary(students []sim.StudentOutcome, companies []placement.Company) SummaryStats {
	var c counts
	for i := range students {
		c.add(&students[i])
	}
	s := SummaryStats{
		TotalStudents:    c.total,
		TotalCompanies:   len(companies),
		PlacedStudents:   c.placed,
		UnplacedStudents: c.unplaced,
		OptedOut:         c.optedOut,
		PlacementRate:    percent(c.placed, c.total),
		AvgCGPAAll:       mean(c.cgpaSum, c.total),
		AvgCGPAPlaced:    mean(c.placedCGPASum, c.placed),
	}
	for i := range companies {
		s.TotalPositions += companies[i].MaxHires
		s.MinPositions += companies[i].MinHires
	}
	return s
}

type DepartmentStats struct {
	Department    string  `json:"department"`
	Total         int     `json:"total"`
	Placed        int     `json:"placed"`
	Unplaced      int     `json:"unplaced"`
	OptedOut      int     `json:"opted_out"`
	AvgCGPA       float64 `json:"avg_cgpa"`
	PlacementRate float64 `json:"placement_rate"`
}

// Departments breaks students down by department, best placement rate first.
func Departments(students []sim.StudentOutcome) []DepartmentStats {
	byDept := make(map[string]*counts)
	for i := range students {
		d := students[i].Department
		if byDept[d] == nil {
			byDept[d] = &counts{}
		}
		byDept[d].add(&students[i])
	}

	out := make([]DepartmentStats, 0, len(byDept))
	for d, c := range byDept {
		out = append(out, DepartmentStats{
			Department:    d,
			Total:         c.total,
			Placed:        c.placed,
			Unplaced:      c.unplaced,
			OptedOut:      c.optedOut,
			AvgCGPA:       mean(c.cgpaSum, c.total),
			PlacementRate: percent(c.placed, c.total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlacementRate != out[j].PlacementRate {
			return out[i].PlacementRate > out[j].PlacementRate
		}
		return out[i].Department < out[j].Department
	})
	return out
}

// DepartmentCodes lists the distinct departments, sorted.
func DepartmentCodes(students []sim.StudentOutcome) []string {
	seen := make(map[string]bool)
	for _, s := range students {
		seen[s.Department] = true
	}
	return sortedKeys(seen)
}

// DomainNames lists every primary and secondary domain, sorted.
func DomainNames(students []sim.StudentOutcome) []string {
	seen := make(map[string]bool)
	for _, s := range students {
		if s.Domain1 != "" {
			seen[s.Domain1] = true
		}
		if s.Domain2 != "" {
			seen[s.Domain2] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	cgpaEdges  = []float64{0, 6, 6.5, 7, 7.5, 8, 8.5, 9, 9.5, 10}
	CGPALabels = []string{"<6", "6-6.5", "6.5-7", "7-7.5", "7.5-8", "8-8.5", "8.5-9", "9-9.5", "9.5-10"}
)

type CGPAStats struct {
	Bins     []string `json:"bins"`
	Overall  []int    `json:"overall"`
	Placed   []int    `json:"placed"`
	Unplaced []int    `json:"unplaced"`
}

// CGPABin returns the histogram bin of a CGPA, or -1 outside [0, 10]. Bins
// are closed on the right; the first also includes 0.
func CGPABin(cgpa float64) int {
	if cgpa < cgpaEdges[0] || cgpa > cgpaEdges[len(cgpaEdges)-1] || math.IsNaN(cgpa) {
		return -1
	}
	for i := 1; i < len(cgpaEdges); i++ {
		if cgpa <= cgpaEdges[i] {
			return i - 1
		}
	}
	return -1
}

func CGPADistribution(students []sim.StudentOutcome) CGPAStats {
	n := len(CGPALabels)
	out := CGPAStats{
		Bins:     append([]string(nil), CGPALabels...),
		Overall:  make([]int, n),
		Placed:   make([]int, n),
		Unplaced: make([]int, n),
	}
	for _, s := range students {
		b := CGPABin(s.CGPA)
		if b < 0 {
			continue
		}
		out.Overall[b]++
		switch s.Status {
		case placement.StatusPlaced:
			out.Placed[b]++
		case placement.StatusUnplaced:
			out.Unplaced[b]++
		}
	}
	return out
}

type DeptDomains struct {
	Department string         `json:"department"`
	Domains    map[string]int `json:"domains"`
}

type DomainStats struct {
	Domain1    map[string]int `json:"domain1_distribution"`
	Domain2    map[string]int `json:"domain2_distribution"`
	AllDomains map[string]int `json:"all_domains"`
	Matrix     []DeptDomains  `json:"dept_domain_matrix"`
}

func Domains(students []sim.StudentOutcome) DomainStats {
	out := DomainStats{
		Domain1:    make(map[string]int),
		Domain2:    make(map[string]int),
		AllDomains: make(map[string]int),
	}
	matrix := make(map[string]map[string]int)
	for _, s := range students {
		if matrix[s.Department] == nil {
			matrix[s.Department] = make(map[string]int)
		}
		if s.Domain1 != "" {
			out.Domain1[s.Domain1]++
			out.AllDomains[s.Domain1]++
			matrix[s.Department][s.Domain1]++
		}
		if s.Domain2 != "" {
			out.Domain2[s.Domain2]++
			out.AllDomains[s.Domain2]++
			matrix[s.Department][s.Domain2]++
		}
	}

	depts := make([]string, 0, len(matrix))
	for d := range matrix {
		depts = append(depts, d)
	}
	sort.Strings(depts)
	out.Matrix = make([]DeptDomains, len(depts))
	for i, d := range depts {
		out.Matrix[i] = DeptDomains{Department: d, Domains: matrix[d]}
	}
	return out
}

type CompanyStats struct {
	RoleTypes        map[string]int `json:"role_types"`
	DayDistribution  map[int]int    `json:"day_distribution"`
	TotalMinCapacity int            `json:"total_min_capacity"`
	TotalMaxCapacity int            `json:"total_max_capacity"`
	AvgMinCapacity   float64        `json:"avg_min_capacity"`
	AvgMaxCapacity   float64        `json:"avg_max_capacity"`
}

func Companies(companies []placement.Company) CompanyStats {
	out := CompanyStats{
		RoleTypes:       make(map[string]int),
		DayDistribution: make(map[int]int),
	}
	for i := range companies {
		c := &companies[i]
		out.RoleTypes[c.JobRole]++
		out.DayDistribution[c.VisitDay]++
		out.TotalMinCapacity += c.MinHires
		out.TotalMaxCapacity += c.MaxHires
	}
	out.AvgMinCapacity = mean(float64(out.TotalMinCapacity), len(companies))
	out.AvgMaxCapacity = mean(float64(out.TotalMaxCapacity), len(companies))
	return out
}

type Split struct {
	Total    int `json:"total"`
	Placed   int `json:"placed"`
	Unplaced int `json:"unplaced"`
	OptedOut int `json:"opted_out"`
}

type OverallSplit struct {
	Split
	PlacementRate float64 `json:"placement_rate"`
}

type PlacementStats struct {
	Overall      OverallSplit     `json:"overall"`
	ByDepartment map[string]Split `json:"by_department"`
}

func Placements(students []sim.StudentOutcome) PlacementStats {
	var all counts
	byDept := make(map[string]*counts)
	for i := range students {
		s := &students[i]
		all.add(s)
		if byDept[s.Department] == nil {
			byDept[s.Department] = &counts{}
		}
		byDept[s.Department].add(s)
	}

	out := PlacementStats{
		Overall: OverallSplit{
			Split:         split(&all),
			PlacementRate: percent(all.placed, all.total),
		},
		ByDepartment: make(map[string]Split, len(byDept)),
	}
	for d, c := range byDept {
		out.ByDepartment[d] = split(c)
	}
	return out
}

func split(c *counts) Split {
	return Split{Total: c.total, Placed: c.placed, Unplaced: c.unplaced, OptedOut: c.optedOut}
}

type CompanyWiseTotals struct {
	TotalHired         int     `json:"total_hired"`
	CompaniesThatHired int     `json:"companies_that_hired"`
	AvgHiresPerCompany float64 `json:"avg_hires_per_company"`
}

type CompanyWiseStats struct {
	Companies  []sim.CompanyOutcome `json:"companies"`
	Statistics CompanyWiseTotals    `json:"statistics"`
}

// CompanyWise orders companies by hires, most first. Ties keep input order.
func CompanyWise(companies []sim.CompanyOutcome) CompanyWiseStats {
	sorted := append([]sim.CompanyOutcome(nil), companies...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Hired > sorted[j].Hired })

	var t CompanyWiseTotals
	for _, c := range companies {
		t.TotalHired += c.Hired
		if c.Hired > 0 {
			t.CompaniesThatHired++
		}
	}
	t.AvgHiresPerCompany = mean(float64(t.TotalHired), t.CompaniesThatHired)
	if sorted == nil {
		sorted = []sim.CompanyOutcome{}
	}
	return CompanyWiseStats{Companies: sorted, Statistics: t}
}

type MinHireRow struct {
	CompanyID string `json:"company_id"`
	VisitDay  int    `json:"visit_day"`
	MinHires  int    `json:"min_hires"`
	Hired     int    `json:"hired"`
	MaxHires  int    `json:"max_hires"`
	MeetsMin  bool   `json:"meets_min"`
	Shortfall int    `json:"shortfall"`
}

type MinHireStats struct {
	Companies   []MinHireRow `json:"companies"`
	Total       int          `json:"total_companies"`
	MeetingMin  int          `json:"meeting_min"`
	BelowMin    int          `json:"below_min"`
	ZeroHires   []string     `json:"zero_hires"`
	MeetingRate float64      `json:"meeting_rate"`
}

// MinHireReport checks each company's hires against its minimum. A day of
// zero covers every company.
func MinHireReport(companies []sim.CompanyOutcome, day int) MinHireStats {
	out := MinHireStats{Companies: []MinHireRow{}, ZeroHires: []string{}}
	for _, c := range companies {
		if day != 0 && c.VisitDay != day {
			continue
		}
		row := MinHireRow{
			CompanyID: c.CompanyID,
			VisitDay:  c.VisitDay,
			MinHires:  c.MinHires,
			Hired:     c.Hired,
			MaxHires:  c.MaxHires,
			MeetsMin:  c.Hired >= c.MinHires,
			Shortfall: max(c.MinHires-c.Hired, 0),
		}
		out.Companies = append(out.Companies, row)
		if row.MeetsMin {
			out.MeetingMin++
		} else {
			out.BelowMin++
		}
		if c.Hired == 0 {
			out.ZeroHires = append(out.ZeroHires, c.CompanyID)
		}
	}
	out.Total = len(out.Companies)
	out.MeetingRate = percent(out.MeetingMin, out.Total)
	return out
}
