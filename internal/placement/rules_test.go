package placement

import (
	"math"
	"testing"
)

func TestSkillMatchScore(t *testing.T) {
	student := []string{"Python", "C++", "Data Structures", "Algorithms", "Machine Learning", "Deep Learning"}

	tests := []struct {
		name     string
		required []string
		want     float64
	}{
		{"full match", []string{"python", "c++"}, 10},
		{"half match", []string{"python", "java"}, 5},
		{"abbreviations", []string{"dsa", "ml"}, 10},
		{"nothing required", nil, 10},
		{"no overlap", []string{"verilog"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SkillMatchScore(student, tt.required)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSkillMatchScore_ReverseAbbreviation(t *testing.T) {
	got := SkillMatchScore([]string{"OS", "DBMS"}, []string{"operating systems", "database"})
	if got != 10 {
		t.Errorf("expected abbreviations to satisfy full names, got %v", got)
	}
}

func TestDepartmentEligible(t *testing.T) {
	if !DepartmentEligible("CS", []string{"ALL"}) {
		t.Error("CS should be eligible for ALL")
	}
	if !DepartmentEligible("CS", []string{"CS", "EC", "EE"}) {
		t.Error("CS should be eligible")
	}
	if DepartmentEligible("ME", []string{"CS", "EC", "EE"}) {
		t.Error("ME should not be eligible")
	}
	if DepartmentEligible("CS", nil) {
		t.Error("empty allowed list admits nobody")
	}
}

func TestCGPAEligible(t *testing.T) {
	if !CGPAEligible(8.5, 7.0) {
		t.Error("8.5 >= 7.0")
	}
	if CGPAEligible(6.5, 7.0) {
		t.Error("6.5 < 7.0")
	}
	if !CGPAEligible(7.0, 0) {
		t.Error("any CGPA clears a zero cutoff")
	}
}

func TestDomainMatch(t *testing.T) {
	tests := []struct {
		domains []string
		role    string
		want    bool
	}{
		{[]string{"SDE"}, "Software Development", true},
		{[]string{"Data"}, "Data Analyst", true},
		{[]string{"Quant"}, "Quant Analyst", true},
		{[]string{"SDE"}, "Quant", false},
		{[]string{"Core_EE"}, "Hardware", true},
		{[]string{"Finance", "CONSULTING"}, "Consulting", true},
		{[]string{"Unknown"}, "SDE", false},
	}

	for _, tt := range tests {
		if got := DomainMatch(tt.domains, tt.role); got != tt.want {
			t.Errorf("DomainMatch(%v, %q) = %v, want %v", tt.domains, tt.role, got, tt.want)
		}
	}
}

func TestEligible(t *testing.T) {
	s := &Student{RollNo: "23CS10001", CGPA: 8.5, Department: "CS", Domain1: "SDE", Domain2: "Data"}
	c := &Company{Name: "Acme", JobRole: "SDE", AllowedDepartments: []string{"CS"}, MinCGPA: 7.5}

	if !Eligible(s, c) {
		t.Fatal("expected student to be eligible")
	}
	if got := len(s.Domains()); got != 2 {
		t.Errorf("expected 2 domains, got %d", got)
	}

	c.MinCGPA = 9
	if Eligible(s, c) {
		t.Error("expected CGPA cutoff to exclude student")
	}
}

func TestCompanyID(t *testing.T) {
	c := Company{Name: "Google", JobRole: "SWE"}
	if c.ID() != "Google_SWE" {
		t.Errorf("unexpected id %q", c.ID())
	}
}
