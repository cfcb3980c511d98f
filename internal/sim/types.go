package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/placesim/internal/placement"
)

// Config holds the scoring weights and process knobs of one run.
type Config struct {
	W1CGPA              float64 `json:"w1_cgpa" yaml:"w1_cgpa"`
	W2Skill             float64 `json:"w2_skill" yaml:"w2_skill"`
	W3Random            float64 `json:"w3_random" yaml:"w3_random"`
	W4DepScore          float64 `json:"w4_dep_score" yaml:"w4_dep_score"`
	W5Profile           float64 `json:"w5_profile" yaml:"w5_profile"`
	W6CGPAInterview     float64 `json:"w6_cgpa_interview" yaml:"w6_cgpa_interview"`
	W7RandomInterview   float64 `json:"w7_random_interview" yaml:"w7_random_interview"`
	POptOut             float64 `json:"p_opt_out" yaml:"p_opt_out"`
	RandomSeed          int64   `json:"random_seed" yaml:"random_seed"`
	OverOfferMultiplier float64 `json:"over_offer_multiplier" yaml:"over_offer_multiplier"`
	UseDepScore         bool    `json:"use_dep_score" yaml:"use_dep_score"`
	EnforceMinHires     bool    `json:"enforce_min_hires" yaml:"enforce_min_hires"`
	// Days restricts the run to these arrival days. Empty means every day
	// present in the data.
	Days []int `json:"days,omitempty" yaml:"days,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		W1CGPA:              0.3,
		W2Skill:             0.2,
		W3Random:            0.2,
		W4DepScore:          0.3,
		W5Profile:           0.3,
		W6CGPAInterview:     0.5,
		W7RandomInterview:   0.2,
		POptOut:             0.05,
		RandomSeed:          42,
		OverOfferMultiplier: 1.5,
		UseDepScore:         true,
		EnforceMinHires:     true,
	}
}

func (c Config) Validate() error {
	weights := []struct {
		name string
		v    float64
	}{
		{"w1_cgpa", c.W1CGPA},
		{"w2_skill", c.W2Skill},
		{"w3_random", c.W3Random},
		{"w4_dep_score", c.W4DepScore},
		{"w5_profile", c.W5Profile},
		{"w6_cgpa_interview", c.W6CGPAInterview},
		{"w7_random_interview", c.W7RandomInterview},
	}
	finite := append(weights, []struct {
		name string
		v    float64
	}{
		{"p_opt_out", c.POptOut},
		{"over_offer_multiplier", c.OverOfferMultiplier},
	}...)
	for _, f := range finite {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s must be a finite number, got %g", f.name, f.v)
		}
	}
	for _, w := range weights {
		if w.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %g", w.name, w.v)
		}
	}
	if c.POptOut < 0 || c.POptOut > 1 {
		return fmt.Errorf("p_opt_out must be in [0, 1], got %g", c.POptOut)
	}
	if c.OverOfferMultiplier < 1 {
		return fmt.Errorf("over_offer_multiplier must be at least 1, got %g", c.OverOfferMultiplier)
	}
	for _, d := range c.Days {
		if d < 1 {
			return fmt.Errorf("days must be positive, got %d", d)
		}
	}
	return nil
}

// Observer receives coarse progress. fraction runs from 0 to 1 over the
// serials of the run.
type Observer interface {
	OnStage(message string, fraction float64)
}

type ObserverFunc func(message string, fraction float64)

func (f ObserverFunc) OnStage(message string, fraction float64) { f(message, fraction) }

type StudentOutcome struct {
	RollNo        string           `json:"roll_no"`
	Name          string           `json:"name"`
	Department    string           `json:"department"`
	CGPA          float64          `json:"cgpa"`
	Domain1       string           `json:"domain_1"`
	Domain2       string           `json:"domain_2"`
	Status        placement.Status `json:"status"`
	PlacedCompany string           `json:"placed_company"`
}

type CompanyOutcome struct {
	CompanyID      string `json:"company_id"`
	CompanyName    string `json:"company_name"`
	JobRole        string `json:"job_role"`
	VisitDay       int    `json:"visit_day"`
	MinHires       int    `json:"min_hires"`
	MaxHires       int    `json:"max_hires"`
	InterviewSlots int    `json:"interview_slots"`
	Applicants     int    `json:"applicants"`
	Shortlisted    int    `json:"shortlisted"`
	Offered        int    `json:"offered"`
	TargetHires    int    `json:"target_hires"`
	Hired          int    `json:"hired"`
}

type Statistics struct {
	DayWisePlacements map[int]int    `json:"day_wise_placements"`
	CompanyWiseHires  map[string]int `json:"company_wise_hires"`
	UnplacedStudents  int            `json:"unplaced_students"`
	OptedOutStudents  int            `json:"opted_out_students"`
}

type Result struct {
	Students   []StudentOutcome `json:"students"`
	Companies  []CompanyOutcome `json:"companies"`
	Statistics Statistics       `json:"statistics"`
	Warnings   []string         `json:"warnings"`
}

// Count returns how many students ended in status s.
func (r *Result) Count(s placement.Status) int {
	n := 0
	for _, st := range r.Students {
		if st.Status == s {
			n++
		}
	}
	return n
}

// Unplaced builds outcomes for a season that has not been simulated yet.
func Unplaced(students []placement.Student) []StudentOutcome {
	out := make([]StudentOutcome, len(students))
	for i := range students {
		out[i] = outcomeOf(&students[i], placement.StatusUnplaced, "")
	}
	return out
}

func outcomeOf(s *placement.Student, status placement.Status, company string) StudentOutcome {
	return StudentOutcome{
		RollNo:        s.RollNo,
		Name:          s.Name,
		Department:    s.Department,
		CGPA:          s.CGPA,
		Domain1:       s.Domain1,
		Domain2:       s.Domain2,
		Status:        status,
		PlacedCompany: company,
	}
}
