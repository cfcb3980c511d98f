package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/san-kum/placesim/internal/dataset"
)

// Env is the process configuration read from PLACESIM_* variables.
type Env struct {
	HTTPAddr      string `env:"PLACESIM_HTTP_ADDR"      envDefault:":8000"`
	DataDir       string `env:"PLACESIM_DATA_DIR"       envDefault:"data"`
	StudentsFile  string `env:"PLACESIM_STUDENTS_FILE"`
	CompaniesFile string `env:"PLACESIM_COMPANIES_FILE"`
	OrderFile     string `env:"PLACESIM_ORDER_FILE"`
	ShortlistDir  string `env:"PLACESIM_SHORTLIST_DIR"`
	ShortlistMap  string `env:"PLACESIM_SHORTLIST_MAP"`
	DepScoreFile  string `env:"PLACESIM_DEP_SCORE_FILE"`
	DBPath        string `env:"PLACESIM_DB_PATH"        envDefault:".placesim/runs.db"`
	OTelEndpoint  string `env:"PLACESIM_OTEL_ENDPOINT"`
	OTelEnabled   bool   `env:"PLACESIM_OTEL_ENABLED"   envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Paths resolves the dataset files. Explicit file variables win over the
// conventional names under DataDir.
func (e Env) Paths() dataset.Paths {
	p := dataset.DefaultPaths(e.DataDir)
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&p.Students, e.StudentsFile)
	override(&p.Companies, e.CompaniesFile)
	override(&p.Order, e.OrderFile)
	override(&p.ShortlistDir, e.ShortlistDir)
	override(&p.ShortlistMap, e.ShortlistMap)
	override(&p.DepScores, e.DepScoreFile)
	return p
}

// StorageEnabled reports whether completed runs should be persisted. "none"
// or an empty path turn the store off.
func (e Env) StorageEnabled() bool {
	return e.DBPath != "" && e.DBPath != "none"
}
