package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/san-kum/placesim/internal/dataset"
	"github.com/san-kum/placesim/internal/placement"
)

const defaultDepScore = 5.0

type student struct {
	*placement.Student
	status  placement.Status
	company string
}

type company struct {
	*placement.Company
	applicants  []*student
	shortlisted []*student
	profile     map[*student]float64
	offered     []*student
	hired       []*student
	target      int
}

// Engine runs the multi-stage placement process over one dataset. An Engine
// is single-use; the dataset it reads is never modified.
type Engine struct {
	data      *dataset.Dataset
	cfg       Config
	rng       *rand.Rand
	observers []Observer

	students  []*student
	companies []*company
	stats     Statistics
	warnings  []string
}

func New(data *dataset.Dataset, cfg Config) (*Engine, error) {
	if data == nil {
		return nil, fmt.Errorf("nil dataset")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		data: data,
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.RandomSeed)),
	}, nil
}

func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Engine) notify(msg string, fraction float64) {
	for _, o := range e.observers {
		o.OnStage(msg, fraction)
	}
}

func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.reset()

	days := e.days()
	serials := e.data.Order
	matchAll := len(serials) == 0
	if matchAll {
		serials = []dataset.Serial{{Number: 1}}
	}

	total := float64(max(len(days)*len(serials), 1))

	for di, day := range days {
		processed := make(map[*company]bool)
		for si, serial := range serials {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			step := di*len(serials) + si
			e.notify(fmt.Sprintf("Running day %d, serial %d...", day, serial.Number), float64(step)/total)

			companies := e.companiesFor(day, serial, matchAll, processed)
			if len(companies) == 0 {
				continue
			}
			unplaced := e.unplaced()
			if len(unplaced) == 0 {
				break
			}
			for _, c := range companies {
				processed[c] = true
			}

			e.apply(companies, unplaced)
			e.shortlist(companies)
			e.interview(companies)
			e.accept(companies)
		}
		e.stats.DayWisePlacements[day] = e.countStatus(placement.StatusPlaced)
	}

	e.notify("Processing results...", 1)
	return e.result(), nil
}

func (e *Engine) reset() {
	e.students = make([]*student, len(e.data.Students))
	for i := range e.data.Students {
		e.students[i] = &student{Student: &e.data.Students[i], status: placement.StatusUnplaced}
	}
	e.companies = make([]*company, len(e.data.Companies))
	for i := range e.data.Companies {
		e.companies[i] = &company{Company: &e.data.Companies[i]}
	}
	e.stats = Statistics{
		DayWisePlacements: make(map[int]int),
		CompanyWiseHires:  make(map[string]int),
		UnplacedStudents:  len(e.students),
	}
	e.warnings = nil
}

func (e *Engine) days() []int {
	candidates := e.cfg.Days
	if len(candidates) == 0 {
		for i := range e.data.Companies {
			candidates = append(candidates, e.data.Companies[i].VisitDay)
		}
	}
	seen := make(map[int]bool)
	var days []int
	for _, d := range candidates {
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Ints(days)
	return days
}

// companiesFor selects the companies of a serial on a given day. Names match
// when either contains the other, ignoring case.
func (e *Engine) companiesFor(day int, serial dataset.Serial, matchAll bool, processed map[*company]bool) []*company {
	var out []*company
	for _, c := range e.companies {
		if c.VisitDay != day || processed[c] {
			continue
		}
		if matchAll || nameMatches(c.Name, serial.Companies) {
			out = append(out, c)
		}
	}
	return out
}

func nameMatches(name string, orderNames []string) bool {
	n := strings.ToLower(name)
	for _, o := range orderNames {
		o = strings.ToLower(o)
		if strings.Contains(n, o) || strings.Contains(o, n) {
			return true
		}
	}
	return false
}

func (e *Engine) unplaced() []*student {
	var out []*student
	for _, s := range e.students {
		if s.status == placement.StatusUnplaced {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) countStatus(status placement.Status) int {
	n := 0
	for _, s := range e.students {
		if s.status == status {
			n++
		}
	}
	return n
}

// apply registers every eligible unplaced student with each company. All
// applicants are invited to the test.
func (e *Engine) apply(companies []*company, unplaced []*student) {
	for _, c := range companies {
		c.applicants = c.applicants[:0]
		for _, s := range unplaced {
			if placement.Eligible(s.Student, c.Company) {
				c.applicants = append(c.applicants, s)
			}
		}
	}
}

type scored struct {
	s     *student
	score float64
}

func rank(list []scored) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })
}

func (e *Engine) shortlist(companies []*company) {
	for _, c := range companies {
		ranked := make([]scored, len(c.applicants))
		for i, s := range c.applicants {
			ranked[i] = scored{s, e.profileScore(s, c)}
		}
		rank(ranked)

		n := max(min(c.InterviewSlots, len(ranked)), 0)
		c.shortlisted = make([]*student, n)
		c.profile = make(map[*student]float64, n)
		for i := 0; i < n; i++ {
			c.shortlisted[i] = ranked[i].s
			c.profile[ranked[i].s] = ranked[i].score
		}
	}
}

func (e *Engine) interview(companies []*company) {
	for _, c := range companies {
		ranked := make([]scored, len(c.shortlisted))
		for i, s := range c.shortlisted {
			ranked[i] = scored{s, e.interviewScore(s, c.profile[s])}
		}
		rank(ranked)

		n := len(ranked)
		var offers int
		if n >= c.MinHires {
			c.target = c.MinHires + e.rng.Intn(max(c.MaxHires-c.MinHires, 0)+1)
			offers = int(math.Min(float64(c.target)*e.cfg.OverOfferMultiplier, float64(n)))
			if e.cfg.EnforceMinHires {
				offers = max(offers, c.MinHires)
			}
		} else {
			offers = n
			c.target = c.MinHires
			if n > 0 {
				e.warn("%s couldn't meet min_hires (%d), only %d candidates available", c.ID(), c.MinHires, n)
			} else {
				e.warn("%s has 0 candidates (min_hires: %d)", c.ID(), c.MinHires)
			}
		}

		c.offered = make([]*student, offers)
		for i := 0; i < offers; i++ {
			c.offered[i] = ranked[i].s
			ranked[i].s.status = placement.StatusOffered
		}
	}
}

// accept lets each offered student take one offer, returns the rest to the
// pool and applies the opt-out draw.
func (e *Engine) accept(companies []*company) {
	var order []*student
	offers := make(map[*student][]*company)
	for _, c := range companies {
		for _, s := range c.offered {
			if _, ok := offers[s]; !ok {
				order = append(order, s)
			}
			offers[s] = append(offers[s], c)
		}
	}

	for _, s := range order {
		if s.status == placement.StatusPlaced {
			continue
		}
		choices := offers[s]
		c := choices[e.rng.Intn(len(choices))]
		s.status = placement.StatusPlaced
		s.company = c.ID()
		c.hired = append(c.hired, s)
	}

	unplaced, optedOut := 0, 0
	for _, s := range e.students {
		if s.status == placement.StatusOffered {
			s.status = placement.StatusUnplaced
		}
		if s.status != placement.StatusUnplaced {
			continue
		}
		if e.rng.Float64() < e.cfg.POptOut {
			s.status = placement.StatusOptedOut
			optedOut++
		} else {
			unplaced++
		}
	}

	e.stats.UnplacedStudents = unplaced
	e.stats.OptedOutStudents += optedOut
	for _, c := range companies {
		e.stats.CompanyWiseHires[c.ID()] = len(c.hired)
	}
}

// CGPAScore maps a 6-10 CGPA onto 1-10.
func CGPAScore(cgpa float64) float64 {
	v := (cgpa - 6) / 4 * 10
	return max(1, min(10, v))
}

func (e *Engine) profileScore(s *student, c *company) float64 {
	skill := placement.SkillMatchScore(s.Skills, c.RequiredSkills)
	r1 := uniform(e.rng, 1, 10)

	score := e.cfg.W1CGPA*CGPAScore(s.CGPA) + e.cfg.W2Skill*skill + e.cfg.W3Random*r1
	if e.cfg.UseDepScore {
		dep, ok := e.data.DepScores[s.Department]
		if !ok {
			dep = defaultDepScore
		}
		score += e.cfg.W4DepScore * dep
	}
	return score
}

func (e *Engine) interviewScore(s *student, profile float64) float64 {
	r2 := uniform(e.rng, 0, 10)
	return e.cfg.W5Profile*profile + e.cfg.W6CGPAInterview*s.CGPA + e.cfg.W7RandomInterview*r2
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func (e *Engine) warn(format string, args ...any) {
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
}

func (e *Engine) result() *Result {
	r := &Result{
		Students:   make([]StudentOutcome, len(e.students)),
		Companies:  make([]CompanyOutcome, len(e.companies)),
		Statistics: e.stats,
		Warnings:   e.warnings,
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	for i, s := range e.students {
		r.Students[i] = outcomeOf(s.Student, s.status, s.company)
	}
	for i, c := range e.companies {
		r.Companies[i] = CompanyOutcome{
			CompanyID:      c.ID(),
			CompanyName:    c.Name,
			JobRole:        c.JobRole,
			VisitDay:       c.VisitDay,
			MinHires:       c.MinHires,
			MaxHires:       c.MaxHires,
			InterviewSlots: c.InterviewSlots,
			Applicants:     len(c.applicants),
			Shortlisted:    len(c.shortlisted),
			Offered:        len(c.offered),
			TargetHires:    c.target,
			Hired:          len(c.hired),
		}
	}
	return r
}
