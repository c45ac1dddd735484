package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsUnknownAlgorithm(t *testing.T) {
	cfg := Default()
	cfg.CongestionAlgorithm = "vegas"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for an unknown congestion algorithm")
	}
}

func TestValidateRejectsNonPositiveBeaconInterval(t *testing.T) {
	cfg := Default()
	cfg.RoutingBeaconIntervalSeconds = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for a non-positive beacon interval")
	}
}

func TestValidateRejectsOutOfRangeGamma(t *testing.T) {
	cfg := Default()
	cfg.FastGamma = 1.5
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for gamma outside (0, 1]")
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CongestionAlgorithm != string(AlgorithmReno) {
		t.Fatalf("expected reno default, got %q", cfg.CongestionAlgorithm)
	}
}
