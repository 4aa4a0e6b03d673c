package cne

import (
	"errors"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Default config should validate, got %v", err)
	}
}

func TestPopulationSizeMinimum(t *testing.T) {
	cfg := DefaultConfig()

	cfg.PopulationSize = 3
	if _, err := New(cfg); err == nil {
		t.Error("Expected error for population size 3")
	} else {
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("Expected *ConfigError, got %T", err)
		}
	}

	cfg.PopulationSize = 4
	if _, err := New(cfg); err != nil {
		t.Errorf("Population size 4 should be accepted, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"negative max generations", func(c *Config) { c.MaxGenerations = 0 }, "MaxGenerations"},
		{"mutation prob above one", func(c *Config) { c.MutationProb = 1.5 }, "MutationProb"},
		{"negative mutation prob", func(c *Config) { c.MutationProb = -0.1 }, "MutationProb"},
		{"negative mutation size", func(c *Config) { c.MutationSize = -0.5 }, "MutationSize"},
		{"select percent above one", func(c *Config) { c.SelectPercent = 1.1 }, "SelectPercent"},
		{"negative select percent", func(c *Config) { c.SelectPercent = -0.2 }, "SelectPercent"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "Workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}

			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected *ConfigError, got %T", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, ce.Field)
			}
		})
	}
}

func TestNegativeTerminationThresholdsAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tolerance = -1
	cfg.ObjectiveChange = -1

	if err := cfg.Validate(); err != nil {
		t.Errorf("Negative thresholds disable the checks and should validate, got %v", err)
	}
}
