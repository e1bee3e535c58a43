// Package tuning holds the runtime knobs that are configuration rather than
// content: run shape, seeding, server timeouts and audit log settings.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	RoundsPerRun    int   `yaml:"rounds_per_run"`
	RoundSeedStride int32 `yaml:"round_seed_stride"`

	DefaultStore DefaultStore `yaml:"default_store"`

	HTTP  HTTP  `yaml:"http"`
	Audit Audit `yaml:"audit"`
}

type DefaultStore struct {
	Name   string `yaml:"name"`
	Size   string `yaml:"size"`
	Region string `yaml:"region"`
}

type HTTP struct {
	ReadTimeoutSec     int `yaml:"read_timeout_sec"`
	WriteTimeoutSec    int `yaml:"write_timeout_sec"`
	ShutdownTimeoutSec int `yaml:"shutdown_timeout_sec"`
}

type Audit struct {
	Enabled   bool   `yaml:"enabled"`
	Dir       string `yaml:"dir"`
	ZstdLevel int    `yaml:"zstd_level"`
}

// Defaults is the configuration used when no tuning file is supplied.
func Defaults() Tuning {
	return Tuning{
		RoundsPerRun:    4,
		RoundSeedStride: 1000,
		DefaultStore: DefaultStore{
			Name:   "FreshWay Markets – Riverside",
			Size:   "medium",
			Region: "Midlands",
		},
		HTTP: HTTP{
			ReadTimeoutSec:     15,
			WriteTimeoutSec:    30,
			ShutdownTimeoutSec: 10,
		},
		Audit: Audit{
			Enabled:   true,
			Dir:       "data/audit",
			ZstdLevel: 3,
		},
	}
}

// Load reads a tuning file over the defaults, so a partial file only
// overrides the keys it names.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.RoundsPerRun < 1 {
		return t, fmt.Errorf("tuning.yaml: rounds_per_run must be at least 1")
	}
	if t.RoundSeedStride == 0 {
		return t, fmt.Errorf("tuning.yaml: round_seed_stride must be non-zero")
	}
	return t, nil
}
