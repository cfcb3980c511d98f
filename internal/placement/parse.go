package placement

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// AllDepartments is the wildcard entry in an allowed-department list.
const AllDepartments = "ALL"

var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

var knownDepartments = map[string]bool{
	"CS": true, "EC": true, "EE": true, "ME": true, "MA": true, "CH": true,
	"IM": true, "IE": true, "MI": true, "MT": true, "GG": true, "EX": true,
	"AE": true, "CE": true, "MF": true, "HS": true, "AG": true, "BT": true,
	"CY": true, "PH": true, "NA": true, "SD": true,
}

var circuital = []string{"CS", "MA", "IM", "EE", "EC", "IE"}

var departmentAliases = map[string][]string{
	"CSE":        {"CS"},
	"MNC":        {"MA"},
	"MnC":        {"MA"},
	"ECE":        {"EC"},
	"E&ECE":      {"EE", "EC"},
	"CIRCUITAL":  circuital,
	"Circuital":  circuital,
	"Circuitals": circuital,
}

// ParseCGPARequirement turns a free-text CGPA cutoff into a number.
// Conditional cutoffs ("7.5+ for Dev, 8.5+ for ...") resolve to the first
// figure; anything unreadable means no cutoff.
func ParseCGPARequirement(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NONE", "NA", "None", "nan", "NaN":
		return 0
	}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "for") {
		if m := numberPattern.FindString(s); m != "" {
			v, err := strconv.ParseFloat(m, 64)
			if err == nil {
				return v
			}
		}
	}
	if strings.Contains(lower, "preferably") {
		s = strings.TrimSpace(strings.ReplaceAll(s, "preferably", ""))
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "+", ""))

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseDepartments normalises an allowed-departments cell into department
// codes. A cell with no recognisable code is open to all; a missing cell
// admits nobody.
func ParseDepartments(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "nan" || s == "NaN" {
		return nil
	}

	upper := strings.ToUpper(s)
	switch upper {
	case "ALL", "OPEN TO ALL", "ALL DEPARTMENTS", "NOT DEPARTMENT SPECIFIC":
		return []string{AllDepartments}
	}
	if strings.Contains(upper, "ONLY BTECH") {
		return []string{AllDepartments}
	}

	seen := make(map[string]bool)
	add := func(codes ...string) {
		for _, c := range codes {
			seen[c] = true
		}
	}

	for _, part := range strings.Split(strings.ReplaceAll(s, " and ", ","), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "&") {
			for _, sub := range strings.Split(part, "&") {
				sub = strings.TrimSpace(sub)
				switch sub {
				case "E", "EE", "Electrical":
					add("EE")
				case "ECE", "EC", "Electronics":
					add("EC")
				default:
					if len(sub) == 2 && knownDepartments[strings.ToUpper(sub)] {
						add(strings.ToUpper(sub))
					}
				}
			}
			continue
		}
		if mapped, ok := departmentAliases[part]; ok {
			add(mapped...)
			continue
		}
		if len(part) >= 2 {
			code := strings.ToUpper(part[:2])
			if knownDepartments[code] {
				add(code)
			}
		}
	}

	if len(seen) == 0 {
		return []string{AllDepartments}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ParseSkills splits a comma-separated skill list, dropping parenthesised
// detail and lowercasing each entry.
func ParseSkills(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "nan" || s == "NaN" {
		return nil
	}
	var skills []string
	for _, raw := range strings.Split(s, ",") {
		skill, _, _ := strings.Cut(raw, "(")
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill != "" {
			skills = append(skills, skill)
		}
	}
	return skills
}

// SplitList splits a comma-separated student skill cell, keeping case.
func SplitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
