package placement

import "strings"

// Status is a student's position in the placement process.
type Status string

const (
	StatusUnplaced Status = "Unplaced"
	StatusOffered  Status = "Offered"
	StatusPlaced   Status = "Placed"
	StatusOptedOut Status = "Opted_Out"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnplaced, StatusOffered, StatusPlaced, StatusOptedOut:
		return true
	}
	return false
}

// ParseStatus matches s against the known statuses ignoring case.
func ParseStatus(s string) (Status, bool) {
	for _, st := range []Status{StatusUnplaced, StatusOffered, StatusPlaced, StatusOptedOut} {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

type Student struct {
	RollNo     string
	Name       string
	CGPA       float64
	Department string
	Domain1    string
	Domain2    string
	Skills     []string
}

// Domains returns the student's non-empty domains of interest, primary first.
func (s *Student) Domains() []string {
	domains := []string{s.Domain1}
	if s.Domain2 != "" {
		domains = append(domains, s.Domain2)
	}
	return domains
}

// DepartmentFromRoll extracts the two-letter department code embedded at
// positions 2-3 of a roll number (e.g. 21CS10001 -> CS).
func DepartmentFromRoll(rollNo string) string {
	if len(rollNo) < 4 {
		return ""
	}
	return strings.ToUpper(rollNo[2:4])
}

type Company struct {
	Name               string
	JobRole            string
	AllowedDepartments []string
	MinCGPA            float64
	RequiredSkills     []string
	VisitDay           int
	MinHires           int
	MaxHires           int
	InterviewSlots     int
}

// ID is the unique key for a company role, e.g. "Google_SWE".
func (c *Company) ID() string {
	return c.Name + "_" + c.JobRole
}
