// Package automation runs scripted batches of simulations: scenarios of
// named configurations and sweeps over one config parameter.
package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/san-kum/placesim/internal/config"
	"github.com/san-kum/placesim/internal/dataset"
	"github.com/san-kum/placesim/internal/sim"
	"github.com/san-kum/placesim/internal/viz"
	"gopkg.in/yaml.v3"
)

// Scenario defines a sequence of configurations to compare.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Runs        int            `yaml:"runs"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one configuration: a preset, inline overrides, or both.
// Overrides are applied on top of the preset.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
	Runs   int       `yaml:"runs"`
}

// Outcome is the aggregate of one step or sweep point.
type Outcome struct {
	Name      string        `json:"name"`
	Config    sim.Config    `json:"config"`
	Aggregate sim.Aggregate `json:"aggregate"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	return &scenario, nil
}

// Resolve builds the step's config from its preset and overrides.
func (s *ScenarioStep) Resolve() (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if s.Preset != "" {
		p := config.GetPreset(s.Preset)
		if p == nil {
			return cfg, fmt.Errorf("unknown preset %q", s.Preset)
		}
		cfg = *p
	}
	if s.Config.Kind != 0 {
		if err := s.Config.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

func (s *ScenarioStep) label(i int) string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Preset != "":
		return s.Preset
	}
	return fmt.Sprintf("step-%d", i+1)
}

// RunScenario executes the steps in order. Each step runs its configuration
// under consecutive seeds starting at the config's random_seed. Progress
// lines go to w.
func RunScenario(ctx context.Context, scenario *Scenario, data *dataset.Dataset, w io.Writer) ([]Outcome, error) {
	if w == nil {
		w = io.Discard
	}
	outcomes := make([]Outcome, 0, len(scenario.Steps))

	for i := range scenario.Steps {
		step := &scenario.Steps[i]
		name := step.label(i)
		fmt.Fprintf(w, "Running step %d/%d: %s\n", i+1, len(scenario.Steps), name)

		cfg, err := step.Resolve()
		if err != nil {
			return outcomes, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}
		runs := step.Runs
		if runs <= 0 {
			runs = max(scenario.Runs, 1)
		}

		agg, err := runEnsemble(ctx, data, cfg, runs)
		if err != nil {
			return outcomes, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}
		outcomes = append(outcomes, Outcome{Name: name, Config: cfg, Aggregate: agg})
	}
	return outcomes, nil
}

func runEnsemble(ctx context.Context, data *dataset.Dataset, cfg sim.Config, runs int) (sim.Aggregate, error) {
	results, err := sim.NewEnsemble(data, cfg, runs, cfg.RandomSeed).Run(ctx)
	if err != nil {
		return sim.Aggregate{}, err
	}
	return sim.AggregateResults(cfg.RandomSeed, results), nil
}

// ParameterSweep varies one numeric config field over an evenly spaced range.
type ParameterSweep struct {
	Base     sim.Config
	Param    string
	Min, Max float64
	NumSteps int
	Runs     int
}

var ErrUnknownParam = errors.New("unknown sweep parameter")

var sweepable = map[string]func(*sim.Config, float64){
	"w1_cgpa":               func(c *sim.Config, v float64) { c.W1CGPA = v },
	"w2_skill":              func(c *sim.Config, v float64) { c.W2Skill = v },
	"w3_random":             func(c *sim.Config, v float64) { c.W3Random = v },
	"w4_dep_score":          func(c *sim.Config, v float64) { c.W4DepScore = v },
	"w5_profile":            func(c *sim.Config, v float64) { c.W5Profile = v },
	"w6_cgpa_interview":     func(c *sim.Config, v float64) { c.W6CGPAInterview = v },
	"w7_random_interview":   func(c *sim.Config, v float64) { c.W7RandomInterview = v },
	"p_opt_out":             func(c *sim.Config, v float64) { c.POptOut = v },
	"over_offer_multiplier": func(c *sim.Config, v float64) { c.OverOfferMultiplier = v },
}

// SweepParams lists the config fields a sweep can vary.
func SweepParams() []string {
	names := make([]string, 0, len(sweepable))
	for k := range sweepable {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Values returns the parameter values the sweep visits.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	vals := make([]float64, s.NumSteps)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	return vals
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, data *dataset.Dataset, w io.Writer) ([]Outcome, error) {
	set, ok := sweepable[sweep.Param]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParam, sweep.Param)
	}
	if w == nil {
		w = io.Discard
	}
	runs := max(sweep.Runs, 1)
	vals := sweep.Values()
	outcomes := make([]Outcome, 0, len(vals))

	for i, v := range vals {
		cfg := sweep.Base
		set(&cfg, v)
		if err := cfg.Validate(); err != nil {
			return outcomes, fmt.Errorf("%s=%.4f: %w", sweep.Param, v, err)
		}
		agg, err := runEnsemble(ctx, data, cfg, runs)
		if err != nil {
			return outcomes, err
		}
		name := fmt.Sprintf("%s=%.4g", sweep.Param, v)
		outcomes = append(outcomes, Outcome{Name: name, Config: cfg, Aggregate: agg})
		fmt.Fprintf(w, "Sweep %d/%d: %s\n", i+1, len(vals), name)
	}
	return outcomes, nil
}

// Table renders outcomes side by side.
func Table(outcomes []Outcome) string {
	spread := func(s sim.Spread) string { return viz.Float(s.Mean) + " ± " + viz.Float(s.Std) }
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		a := o.Aggregate
		rows = append(rows, []string{
			o.Name, viz.Int(len(a.Runs)), spread(a.Placed),
			fmt.Sprintf("%s - %s", viz.Int(a.MinPlaced), viz.Int(a.MaxPlaced)),
			spread(a.PlacementRate), spread(a.OptedOut), viz.Float(a.AvgCompaniesHired),
		})
	}
	return viz.Table([]string{"name", "runs", "placed", "range", "rate %", "opted out", "companies hiring"}, rows, 1, 2, 3, 4, 5, 6)
}
