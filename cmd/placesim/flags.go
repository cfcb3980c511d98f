package main

import (
	"fmt"

	"github.com/san-kum/placesim/internal/config"
	"github.com/san-kum/placesim/internal/sim"
	"github.com/spf13/cobra"
)

// simFlags binds every Config field to a flag. Resolution order is defaults,
// then --preset, then --config, then flags set on the command line.
type simFlags struct {
	cfg        sim.Config
	preset     string
	configFile string
}

func addSimFlags(cmd *cobra.Command) *simFlags {
	f := &simFlags{cfg: sim.DefaultConfig()}
	fs := cmd.Flags()
	fs.Float64Var(&f.cfg.W1CGPA, "w1-cgpa", f.cfg.W1CGPA, "shortlist weight of CGPA")
	fs.Float64Var(&f.cfg.W2Skill, "w2-skill", f.cfg.W2Skill, "shortlist weight of skill match")
	fs.Float64Var(&f.cfg.W3Random, "w3-random", f.cfg.W3Random, "shortlist weight of chance")
	fs.Float64Var(&f.cfg.W4DepScore, "w4-dep-score", f.cfg.W4DepScore, "shortlist weight of department score")
	fs.Float64Var(&f.cfg.W5Profile, "w5-profile", f.cfg.W5Profile, "interview weight of profile score")
	fs.Float64Var(&f.cfg.W6CGPAInterview, "w6-cgpa-interview", f.cfg.W6CGPAInterview, "interview weight of CGPA")
	fs.Float64Var(&f.cfg.W7RandomInterview, "w7-random-interview", f.cfg.W7RandomInterview, "interview weight of chance")
	fs.Float64Var(&f.cfg.POptOut, "p-opt-out", f.cfg.POptOut, "daily opt-out probability")
	fs.Int64Var(&f.cfg.RandomSeed, "seed", f.cfg.RandomSeed, "random seed")
	fs.Float64Var(&f.cfg.OverOfferMultiplier, "over-offer", f.cfg.OverOfferMultiplier, "offers per target hire")
	fs.BoolVar(&f.cfg.UseDepScore, "use-dep-score", f.cfg.UseDepScore, "use department scores")
	fs.BoolVar(&f.cfg.EnforceMinHires, "enforce-min-hires", f.cfg.EnforceMinHires, "guarantee minimum hires")
	fs.IntSliceVar(&f.cfg.Days, "days", nil, "arrival days to simulate (default all)")
	fs.StringVar(&f.preset, "preset", "", "start from a named preset")
	fs.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	return f
}

func (f *simFlags) resolve(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if f.preset != "" {
		p := config.GetPreset(f.preset)
		if p == nil {
			return cfg, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
		cfg = *p
	}
	if f.configFile != "" {
		file, err := config.LoadWith(f.configFile, cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = file.Sim
	}

	src := f.cfg
	overrides := []struct {
		flag  string
		apply func()
	}{
		{"w1-cgpa", func() { cfg.W1CGPA = src.W1CGPA }},
		{"w2-skill", func() { cfg.W2Skill = src.W2Skill }},
		{"w3-random", func() { cfg.W3Random = src.W3Random }},
		{"w4-dep-score", func() { cfg.W4DepScore = src.W4DepScore }},
		{"w5-profile", func() { cfg.W5Profile = src.W5Profile }},
		{"w6-cgpa-interview", func() { cfg.W6CGPAInterview = src.W6CGPAInterview }},
		{"w7-random-interview", func() { cfg.W7RandomInterview = src.W7RandomInterview }},
		{"p-opt-out", func() { cfg.POptOut = src.POptOut }},
		{"seed", func() { cfg.RandomSeed = src.RandomSeed }},
		{"over-offer", func() { cfg.OverOfferMultiplier = src.OverOfferMultiplier }},
		{"use-dep-score", func() { cfg.UseDepScore = src.UseDepScore }},
		{"enforce-min-hires", func() { cfg.EnforceMinHires = src.EnforceMinHires }},
		{"days", func() { cfg.Days = src.Days }},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			o.apply()
		}
	}
	return cfg, cfg.Validate()
}
