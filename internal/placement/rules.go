package placement

import "strings"

var skillAbbreviations = map[string][]string{
	"dsa":  {"data structures", "algorithms", "data structure"},
	"ml":   {"machine learning"},
	"dl":   {"deep learning"},
	"oop":  {"object-oriented programming", "object oriented programming"},
	"oops": {"object-oriented programming", "object oriented programming"},
	"os":   {"operating systems", "operating system"},
	"dbms": {"database management systems", "database"},
	"cp":   {"competitive programming"},
}

// Domain keys map to the job-role keywords they qualify for. Any domain
// starting with "Core_" uses the "Core_" entry.
var domainRoles = map[string][]string{
	"SDE": {"SDE", "Software", "Software Development", "AI engineer / SDE", "AI Engineer",
		"System Software Engineer", "SWE", "R&D", "Core"},
	"Data":       {"Data", "Analyst", "Data Analyst"},
	"Quant":      {"Quant", "Quant Analyst", "Algo-Quants", "Sales and Trading"},
	"Finance":    {"Finance", "Analyst", "Wholesale Strategy"},
	"CONSULTING": {"Consulting", "Consultinig", "Management Trainee", "Political Consulting"},
	"Core_": {"Core", "R&D", "Hardware", "Signal Processing", "ANALOG", "DIGITAL",
		"Electric Vehicle Software", "EDA", "Systems"},
}

func overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// SkillMatchScore scores a student against a role's required skills on a
// 0-10 scale. Substring overlap in either direction counts as a match, as do
// the common abbreviations (dsa, ml, os, ...).
func SkillMatchScore(studentSkills, required []string) float64 {
	if len(required) == 0 {
		return 10
	}

	have := make([]string, 0, len(studentSkills))
	haveSet := make(map[string]bool, len(studentSkills))
	for _, s := range studentSkills {
		l := strings.ToLower(s)
		have = append(have, l)
		haveSet[l] = true
	}

	matched := 0
	for _, req := range required {
		if skillMatches(strings.ToLower(req), have, haveSet) {
			matched++
		}
	}
	return float64(matched) / float64(len(required)) * 10
}

func skillMatches(req string, have []string, haveSet map[string]bool) bool {
	for _, s := range have {
		if overlaps(req, s) {
			return true
		}
	}
	for _, expanded := range skillAbbreviations[req] {
		for _, s := range have {
			if overlaps(expanded, s) {
				return true
			}
		}
	}
	for abbrev, expansions := range skillAbbreviations {
		if !haveSet[abbrev] {
			continue
		}
		for _, e := range expansions {
			if e == req {
				return true
			}
		}
	}
	return false
}

func DepartmentEligible(dept string, allowed []string) bool {
	for _, a := range allowed {
		if a == AllDepartments || a == dept {
			return true
		}
	}
	return false
}

func CGPAEligible(cgpa, min float64) bool {
	return cgpa >= min
}

// DomainMatch reports whether any of the student's domains qualifies for the
// job role.
func DomainMatch(domains []string, jobRole string) bool {
	role := strings.ToLower(jobRole)
	for _, d := range domains {
		key := d
		if strings.HasPrefix(d, "Core_") {
			key = "Core_"
		}
		for _, r := range domainRoles[key] {
			if overlaps(strings.ToLower(r), role) {
				return true
			}
		}
	}
	return false
}

// Eligible applies the department, CGPA and domain checks together.
func Eligible(s *Student, c *Company) bool {
	return DepartmentEligible(s.Department, c.AllowedDepartments) &&
		CGPAEligible(s.CGPA, c.MinCGPA) &&
		DomainMatch(s.Domains(), c.JobRole)
}
