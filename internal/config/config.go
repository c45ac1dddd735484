// Package config loads simulation configuration using koanf/v2: a YAML
// file overlaid with NETSIM_-prefixed environment variables, merged on
// top of hardcoded defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds every recognized simulation option.
type Config struct {
	// CongestionAlgorithm selects the controller variant used by every
	// flow: "reno" or "fast".
	CongestionAlgorithm string `koanf:"congestion_algorithm"`

	// Verbose enables human-readable tracing on top of the structured
	// record channels.
	Verbose bool `koanf:"verbose"`

	// EmitGraphs is a hint for external tooling; the core ignores it.
	EmitGraphs bool `koanf:"emit_graphs"`

	// RoutingBeaconIntervalSeconds is the virtual-time period between a
	// host's routing beacons (see DESIGN.md for the default's rationale).
	RoutingBeaconIntervalSeconds float64 `koanf:"routing_beacon_interval_seconds"`

	// InitialSsthresh is loaded and validated, but internal/topology does
	// not pass it on: every Reno controller starts from
	// netsim.DefaultInitialSsthresh whatever this value is.
	InitialSsthresh float64 `koanf:"initial_ssthresh"`

	// FastAlpha and FastGamma parametrize the FAST controller.
	FastAlpha float64 `koanf:"fast_alpha"`
	FastGamma float64 `koanf:"fast_gamma"`
}

// Algorithm identifies a congestion-control variant.
type Algorithm string

const (
	AlgorithmReno Algorithm = "reno"
	AlgorithmFast Algorithm = "fast"
)

// ErrInvalidCongestionAlgorithm means congestion_algorithm was neither
// "reno" nor "fast".
var ErrInvalidCongestionAlgorithm = errors.New("netsim/config: congestion_algorithm must be \"reno\" or \"fast\"")

// ErrInvalidParameter means a numeric option was out of its valid range.
var ErrInvalidParameter = errors.New("netsim/config: invalid parameter")

// Default returns a [Config] populated with sensible defaults for every
// option that has no single obviously-correct value.
func Default() *Config {
	return &Config{
		CongestionAlgorithm:          string(AlgorithmReno),
		Verbose:                      false,
		EmitGraphs:                   false,
		RoutingBeaconIntervalSeconds: 1.0,
		InitialSsthresh:              64.0,
		FastAlpha:                    50.0,
		FastGamma:                    0.5,
	}
}

// envPrefix is the environment variable prefix: NETSIM_CONGESTION_ALGORITHM
// maps to congestion_algorithm, etc.
const envPrefix = "NETSIM_"

// Load reads configuration from the YAML file at path (if path is
// non-empty), overlays NETSIM_-prefixed environment variables, and
// validates the result. An empty path loads only defaults and
// environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structProvider(Default()), nil); err != nil {
		return nil, fmt.Errorf("netsim/config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("netsim/config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("netsim/config: load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("netsim/config: unmarshal: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeyMapper transforms NETSIM_CONGESTION_ALGORITHM -> congestion_algorithm.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ToLower(s)
}

// structProvider adapts a *Config to koanf's map-based Provider interface
// without pulling in a reflection-based defaults library.
func structProvider(cfg *Config) koanf.Provider {
	return &staticProvider{m: map[string]any{
		"congestion_algorithm":            cfg.CongestionAlgorithm,
		"verbose":                         cfg.Verbose,
		"emit_graphs":                     cfg.EmitGraphs,
		"routing_beacon_interval_seconds": cfg.RoutingBeaconIntervalSeconds,
		"initial_ssthresh":                cfg.InitialSsthresh,
		"fast_alpha":                      cfg.FastAlpha,
		"fast_gamma":                      cfg.FastGamma,
	}}
}

type staticProvider struct {
	m map[string]any
}

func (p *staticProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("netsim/config: staticProvider does not support ReadBytes")
}

func (p *staticProvider) Read() (map[string]any, error) {
	return p.m, nil
}

// Validate checks cfg for logical errors.
func Validate(cfg *Config) error {
	switch Algorithm(cfg.CongestionAlgorithm) {
	case AlgorithmReno, AlgorithmFast:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidCongestionAlgorithm, cfg.CongestionAlgorithm)
	}
	if cfg.RoutingBeaconIntervalSeconds <= 0 {
		return fmt.Errorf("%w: routing_beacon_interval_seconds must be > 0", ErrInvalidParameter)
	}
	if cfg.InitialSsthresh <= 0 {
		return fmt.Errorf("%w: initial_ssthresh must be > 0", ErrInvalidParameter)
	}
	if cfg.FastAlpha <= 0 {
		return fmt.Errorf("%w: fast_alpha must be > 0", ErrInvalidParameter)
	}
	if cfg.FastGamma <= 0 || cfg.FastGamma > 1 {
		return fmt.Errorf("%w: fast_gamma must be in (0, 1]", ErrInvalidParameter)
	}
	return nil
}
