package sim

import (
	"context"
	"math"
	"sort"

	"github.com/san-kum/placesim/internal/dataset"
	"github.com/san-kum/placesim/internal/placement"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs the same configuration under consecutive seeds.
type Ensemble struct {
	data      *dataset.Dataset
	cfg       Config
	numRuns   int
	seedStart int64
	// Workers bounds concurrent runs; zero means unbounded.
	Workers int
}

func NewEnsemble(data *dataset.Dataset, cfg Config, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{data: data, cfg: cfg, numRuns: numRuns, seedStart: seedStart}
}

// Run returns one result per seed, indexed by seed - seedStart.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfg := e.cfg
			cfg.RandomSeed = e.seedStart + int64(i)

			eng, err := New(e.data, cfg)
			if err != nil {
				return err
			}
			results[i], err = eng.Run(ctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

type Spread struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

type RunSummary struct {
	Seed           int64          `json:"seed"`
	TotalStudents  int            `json:"total_students"`
	Placed         int            `json:"total_placed"`
	OptedOut       int            `json:"total_opted_out"`
	Unplaced       int            `json:"total_unplaced"`
	PlacementRate  float64        `json:"placement_rate"`
	OptOutRate     float64        `json:"opt_out_rate"`
	CompaniesHired int            `json:"companies_hired"`
	CompanyCounts  map[string]int `json:"company_counts"`
	DeptCounts     map[string]int `json:"dept_counts"`
}

type Aggregate struct {
	Runs              []RunSummary      `json:"all_runs"`
	Placed            Spread            `json:"placed"`
	MinPlaced         int               `json:"min_placed"`
	MaxPlaced         int               `json:"max_placed"`
	OptedOut          Spread            `json:"opted_out"`
	PlacementRate     Spread            `json:"placement_rate"`
	AvgOptOutRate     float64           `json:"avg_opt_out_rate"`
	AvgCompaniesHired float64           `json:"avg_companies_hired"`
	Companies         map[string]Spread `json:"company_averages"`
	Departments       map[string]Spread `json:"dept_averages"`
}

// Summarize reduces one run to its headline counts.
func Summarize(seed int64, r *Result) RunSummary {
	s := RunSummary{
		Seed:          seed,
		TotalStudents: len(r.Students),
		CompanyCounts: make(map[string]int),
		DeptCounts:    make(map[string]int),
	}
	for _, st := range r.Students {
		switch st.Status {
		case placement.StatusPlaced:
			s.Placed++
			s.CompanyCounts[st.PlacedCompany]++
			s.DeptCounts[st.Department]++
		case placement.StatusOptedOut:
			s.OptedOut++
		case placement.StatusUnplaced:
			s.Unplaced++
		}
	}
	if s.TotalStudents > 0 {
		s.PlacementRate = float64(s.Placed) / float64(s.TotalStudents) * 100
		s.OptOutRate = float64(s.OptedOut) / float64(s.TotalStudents) * 100
	}
	s.CompaniesHired = len(s.CompanyCounts)
	return s
}

// AggregateResults computes population statistics across runs. A company or
// department absent from a run counts as zero for that run.
func AggregateResults(seedStart int64, results []*Result) Aggregate {
	agg := Aggregate{
		Runs:        make([]RunSummary, len(results)),
		Companies:   make(map[string]Spread),
		Departments: make(map[string]Spread),
	}
	if len(results) == 0 {
		return agg
	}

	placed := make([]float64, len(results))
	opted := make([]float64, len(results))
	rates := make([]float64, len(results))
	optRates := make([]float64, len(results))
	hired := make([]float64, len(results))
	companies := make(map[string]bool)
	depts := make(map[string]bool)

	for i, r := range results {
		s := Summarize(seedStart+int64(i), r)
		agg.Runs[i] = s
		placed[i] = float64(s.Placed)
		opted[i] = float64(s.OptedOut)
		rates[i] = s.PlacementRate
		optRates[i] = s.OptOutRate
		hired[i] = float64(s.CompaniesHired)
		for c := range s.CompanyCounts {
			companies[c] = true
		}
		for d := range s.DeptCounts {
			depts[d] = true
		}
	}

	agg.Placed = spread(placed)
	agg.OptedOut = spread(opted)
	agg.PlacementRate = spread(rates)
	agg.AvgOptOutRate = spread(optRates).Mean
	agg.AvgCompaniesHired = spread(hired).Mean

	sorted := append([]float64(nil), placed...)
	sort.Float64s(sorted)
	agg.MinPlaced = int(sorted[0])
	agg.MaxPlaced = int(sorted[len(sorted)-1])

	for c := range companies {
		agg.Companies[c] = spread(countsFor(agg.Runs, c, func(s RunSummary) map[string]int { return s.CompanyCounts }))
	}
	for d := range depts {
		agg.Departments[d] = spread(countsFor(agg.Runs, d, func(s RunSummary) map[string]int { return s.DeptCounts }))
	}
	return agg
}

func countsFor(runs []RunSummary, key string, pick func(RunSummary) map[string]int) []float64 {
	out := make([]float64, len(runs))
	for i, r := range runs {
		out[i] = float64(pick(r)[key])
	}
	return out
}

func spread(xs []float64) Spread {
	if len(xs) == 0 {
		return Spread{}
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return Spread{Mean: mean, Std: math.Sqrt(ss / float64(len(xs)))}
}
