// Package config provides experiment configuration loading and management
// for the segmentation data pipeline. It handles loading configuration from
// YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Data holds the fields derived by the data module once the normalization
// statistics are loaded. They are written through a datamodule.ConfigPatch,
// not set by hand: downstream model construction depends on them.
type Data struct {
	// Dimensions is the spectral dimensionality of one pixel.
	Dimensions int `yaml:"dimensions"`

	// MeanA/StdA are the synthetic-source train statistics, MeanB/StdB the
	// real-source ones, for a two-domain normalization-aware model.
	MeanA float64 `yaml:"mean_a"`
	MeanB float64 `yaml:"mean_b"`
	StdA  float64 `yaml:"std_a"`
	StdB  float64 `yaml:"std_b"`

	// NClasses is the organ label cardinality after ignore filtering.
	NClasses int `yaml:"n_classes"`
}

// Experiment is the loader-facing experiment configuration.
type Experiment struct {
	// Shuffle draws a fresh sample permutation per epoch.
	Shuffle bool `yaml:"shuffle"`

	// NumWorkers is the parallelism used for batch assembly.
	NumWorkers int `yaml:"num_workers"`

	// BatchSize is the exact size of every training batch; a trailing
	// partial batch is dropped.
	BatchSize int `yaml:"batch_size"`

	// Target selects the synthetic-generation variant paired against real
	// data: "sampled", "real" or "synthetic".
	Target string `yaml:"target"`

	// Data is derived by the data module, see Data.
	Data Data `yaml:"data"`
}

// DefaultExperiment returns an experiment configuration with default values.
func DefaultExperiment() *Experiment {
	return &Experiment{
		Shuffle:    true,
		NumWorkers: runtime.NumCPU(),
		BatchSize:  100,
		Target:     "sampled",
	}
}

// Load reads an experiment configuration from a YAML file. If the file does
// not exist, it returns the default configuration.
func Load(path string) (*Experiment, error) {
	cfg := DefaultExperiment()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating the directory if
// needed.
func Save(cfg *Experiment, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
