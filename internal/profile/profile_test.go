package profile

import (
	"math"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Fatalf("default config invalid: %v", errs)
	}
}

func TestIntegralBounds(t *testing.T) {
	p := Default().Profile
	if got := p.IntegralHighBound(); got != int64(p.PidIHigh/p.PidI) {
		t.Errorf("high bound = %d, want %d", got, int64(p.PidIHigh/p.PidI))
	}
	if got := p.IntegralLowBound(); got != int64(p.PidILow/p.PidI) {
		t.Errorf("low bound = %d, want %d", got, int64(p.PidILow/p.PidI))
	}

	p.PidI = 0
	if got := p.IntegralHighBound(); got != math.MaxInt64 {
		t.Errorf("zero-gain high bound = %d, want MaxInt64", got)
	}
	if got := p.IntegralLowBound(); got != math.MinInt64 {
		t.Errorf("zero-gain low bound = %d, want MinInt64", got)
	}
}

func TestStaleTimeout(t *testing.T) {
	p := Default().Profile
	p.StaleTimeFactor = 20
	if got := p.StaleTimeout(10 * time.Millisecond); got != 200*time.Millisecond {
		t.Errorf("stale timeout = %v, want 200ms", got)
	}
}

func TestValidateCatchesBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "uclamp high out of range",
			mutate: func(c *Config) { c.Profile.UclampMinHigh = 2000 },
			field:  "profile.uclamp_min_high",
		},
		{
			name:   "low above high",
			mutate: func(c *Config) { c.Profile.UclampMinLow = 500 },
			field:  "profile.uclamp_min_low",
		},
		{
			name:   "zero stale factor",
			mutate: func(c *Config) { c.Profile.StaleTimeFactor = 0 },
			field:  "profile.stale_time_factor",
		},
		{
			name:   "negative gain",
			mutate: func(c *Config) { c.Profile.PidPo = -1 },
			field:  "profile.pid_po",
		},
		{
			name:   "integral bounds inverted",
			mutate: func(c *Config) { c.Profile.PidIHigh = -500 },
			field:  "profile.pid_i_high",
		},
		{
			name:   "bad metrics port",
			mutate: func(c *Config) { c.Metrics.Port = 0 },
			field:  "metrics.port",
		},
		{
			name:   "bad metrics path",
			mutate: func(c *Config) { c.Metrics.Path = "metrics" },
			field:  "metrics.path",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			field:  "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatal("expected validation errors, got none")
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %s in %v", tt.field, errs)
			}
		})
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "profile.pid_po", Value: -1.0, Message: "must not be negative"},
		{Field: "metrics.port", Value: 0, Message: "must be a valid TCP port"},
	}
	msg := errs.Error()
	if msg == "" {
		t.Fatal("empty message for non-empty errors")
	}
	if len(ValidationErrors{}.Error()) != 0 {
		t.Error("empty error list should render empty message")
	}
}

func TestLoadFromDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Profile.Name != "default" {
		t.Errorf("profile name = %q, want %q", cfg.Profile.Name, "default")
	}
	if !cfg.Profile.PidOn {
		t.Error("pid controller disabled by default")
	}
}

func TestStoreSwap(t *testing.T) {
	first := Default().Profile
	store := NewStore(&first)
	if store.Current().Name != "default" {
		t.Fatalf("unexpected initial profile %q", store.Current().Name)
	}

	second := Default().Profile
	second.Name = "gaming"
	second.UclampMinInit = 300
	store.Swap(&second)

	got := store.Current()
	if got.Name != "gaming" || got.UclampMinInit != 300 {
		t.Errorf("swapped profile = %q/%d, want gaming/300", got.Name, got.UclampMinInit)
	}
}
