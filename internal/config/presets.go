package config

import (
	"sort"

	"github.com/san-kum/placesim/internal/sim"
)

type Preset struct {
	Description string
	Apply       func(*sim.Config)
}

var Presets = map[string]Preset{
	"baseline": {
		Description: "default weights",
		Apply:       func(*sim.Config) {},
	},
	"merit": {
		Description: "CGPA dominates both rounds",
		Apply: func(c *sim.Config) {
			c.W1CGPA, c.W2Skill, c.W3Random, c.W4DepScore = 0.6, 0.2, 0.05, 0.15
			c.W5Profile, c.W6CGPAInterview, c.W7RandomInterview = 0.3, 0.65, 0.05
		},
	},
	"skills": {
		Description: "skill match drives the shortlist",
		Apply: func(c *sim.Config) {
			c.W1CGPA, c.W2Skill, c.W3Random, c.W4DepScore = 0.2, 0.6, 0.1, 0.1
			c.W5Profile, c.W6CGPAInterview, c.W7RandomInterview = 0.6, 0.3, 0.1
		},
	},
	"lottery": {
		Description: "mostly random selection",
		Apply: func(c *sim.Config) {
			c.W1CGPA, c.W2Skill, c.W3Random, c.W4DepScore = 0.1, 0.1, 0.7, 0.1
			c.W5Profile, c.W6CGPAInterview, c.W7RandomInterview = 0.1, 0.1, 0.8
		},
	},
	"no-dep-score": {
		Description: "ignore department reputation",
		Apply:       func(c *sim.Config) { c.UseDepScore = false },
	},
	"exact-offers": {
		Description: "offer exactly the target, no minimum guarantee",
		Apply: func(c *sim.Config) {
			c.OverOfferMultiplier = 1.0
			c.EnforceMinHires = false
		},
	},
	"high-attrition": {
		Description: "students give up three times as often",
		Apply:       func(c *sim.Config) { c.POptOut = 0.15 },
	},
}

// GetPreset returns the default config with the named preset applied, or nil
// if there is no such preset.
func GetPreset(name string) *sim.Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := sim.DefaultConfig()
	p.Apply(&cfg)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
