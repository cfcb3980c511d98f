package config

import (
	"fmt"
	"os"

	"github.com/san-kum/placesim/internal/sim"
	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a run configuration. Fields left out of the
// YAML keep their defaults.
type File struct {
	Name        string     `yaml:"name,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Sim         sim.Config `yaml:",inline"`
}

func DefaultFile() *File {
	return &File{Name: "default", Sim: sim.DefaultConfig()}
}

func Load(path string) (*File, error) {
	return LoadWith(path, sim.DefaultConfig())
}

// LoadWith reads a config file over base, so a file may refine a preset.
func LoadWith(path string, base sim.Config) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f := &File{Sim: base}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := f.Sim.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
