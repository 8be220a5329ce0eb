// Package profile holds the tunable coefficients that drive the
// per-session PID controller and the clamp arbiter, loaded through
// viper and swappable at runtime without restarting sessions.
package profile

import (
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Profile is the active set of control coefficients. A Profile is
// immutable once published; tuning changes swap in a fresh copy via
// Store.
type Profile struct {
	// Name identifies the profile in logs and dumps.
	Name string `mapstructure:"name"`

	// PidOn enables the PID controller. When false, every report pins
	// the session set point to UclampMinHigh.
	PidOn bool `mapstructure:"pid_on"`

	// PidPo and PidPu are the proportional gains applied when the
	// accumulated error is positive (over target) and negative (under
	// target) respectively.
	PidPo float64 `mapstructure:"pid_po"`
	PidPu float64 `mapstructure:"pid_pu"`

	// PidI is the integral gain.
	PidI float64 `mapstructure:"pid_i"`

	// PidIHigh and PidILow bound the integral term's contribution; the
	// raw accumulator is clamped to these limits divided by PidI.
	PidIHigh float64 `mapstructure:"pid_i_high"`
	PidILow  float64 `mapstructure:"pid_i_low"`

	// PidDo and PidDu are the derivative gains applied when the
	// derivative accumulator is positive and negative respectively.
	PidDo float64 `mapstructure:"pid_do"`
	PidDu float64 `mapstructure:"pid_du"`

	// SamplingWindowP/I/D limit how many of the most recent reported
	// durations feed each term. 0 means use the whole reported batch.
	SamplingWindowP uint64 `mapstructure:"sampling_window_p"`
	SamplingWindowI uint64 `mapstructure:"sampling_window_i"`
	SamplingWindowD uint64 `mapstructure:"sampling_window_d"`

	// UclampMinOn gates actual clamp application; when false the
	// arbiter computes votes but never touches the kernel.
	UclampMinOn bool `mapstructure:"uclamp_min_on"`

	// UclampMinLow/High bound the set point; UclampMinInit is the
	// clamp a fresh session (or fresh thread set) starts from.
	UclampMinLow  int `mapstructure:"uclamp_min_low"`
	UclampMinHigh int `mapstructure:"uclamp_min_high"`
	UclampMinInit int `mapstructure:"uclamp_min_init"`

	// StaleTimeFactor scales the session target into the staleness
	// deadline: a session is stale after target*StaleTimeFactor with
	// no report.
	StaleTimeFactor float64 `mapstructure:"stale_time_factor"`

	// TargetTimeFactor scales requested target durations on update.
	TargetTimeFactor float64 `mapstructure:"target_time_factor"`
}

// IntegralHighBound returns the upper clamp for the raw integral
// accumulator. A zero integral gain disables the clamp.
func (p *Profile) IntegralHighBound() int64 {
	if p.PidI == 0 {
		return math.MaxInt64
	}
	return int64(p.PidIHigh / p.PidI)
}

// IntegralLowBound returns the lower clamp for the raw integral
// accumulator. A zero integral gain disables the clamp.
func (p *Profile) IntegralLowBound() int64 {
	if p.PidI == 0 {
		return math.MinInt64
	}
	return int64(p.PidILow / p.PidI)
}

// StaleTimeout returns the staleness deadline for a given target.
func (p *Profile) StaleTimeout(target time.Duration) time.Duration {
	return time.Duration(float64(target) * p.StaleTimeFactor)
}

// Config is the daemon's complete configuration.
type Config struct {
	Profile Profile       `mapstructure:"profile"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
	Hints   HintsConfig   `mapstructure:"hints"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	// Enabled controls whether the metrics HTTP server is started.
	Enabled bool `mapstructure:"enabled"`
	// Port is the listen port for the metrics server.
	Port int `mapstructure:"port"`
	// Path is the HTTP path the metrics handler is mounted on.
	Path string `mapstructure:"path"`
}

// LoggingConfig controls daemon logging.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Dir is the directory for the log file; empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// HintsConfig lists the platform hint names this device supports.
type HintsConfig struct {
	Supported []string `mapstructure:"supported"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Profile: Profile{
			Name:             "default",
			PidOn:            true,
			PidPo:            5.0,
			PidPu:            3.0,
			PidI:             0.001,
			PidIHigh:         512.0,
			PidILow:          -120.0,
			PidDo:            500.0,
			PidDu:            0.0,
			SamplingWindowP:  1,
			SamplingWindowI:  0,
			SamplingWindowD:  1,
			UclampMinOn:      true,
			UclampMinLow:     2,
			UclampMinHigh:    480,
			UclampMinInit:    200,
			StaleTimeFactor:  20.0,
			TargetTimeFactor: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9125,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
		Hints: HintsConfig{
			Supported: []string{
				"CPU_LOAD_UP",
				"CPU_LOAD_RESET",
				"CPU_LOAD_RESUME",
				"ADPF_FIRST_FRAME",
				"ADPF_DISABLE_TA_BOOST",
			},
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("profile.name", defaults.Profile.Name)
	viper.SetDefault("profile.pid_on", defaults.Profile.PidOn)
	viper.SetDefault("profile.pid_po", defaults.Profile.PidPo)
	viper.SetDefault("profile.pid_pu", defaults.Profile.PidPu)
	viper.SetDefault("profile.pid_i", defaults.Profile.PidI)
	viper.SetDefault("profile.pid_i_high", defaults.Profile.PidIHigh)
	viper.SetDefault("profile.pid_i_low", defaults.Profile.PidILow)
	viper.SetDefault("profile.pid_do", defaults.Profile.PidDo)
	viper.SetDefault("profile.pid_du", defaults.Profile.PidDu)
	viper.SetDefault("profile.sampling_window_p", defaults.Profile.SamplingWindowP)
	viper.SetDefault("profile.sampling_window_i", defaults.Profile.SamplingWindowI)
	viper.SetDefault("profile.sampling_window_d", defaults.Profile.SamplingWindowD)
	viper.SetDefault("profile.uclamp_min_on", defaults.Profile.UclampMinOn)
	viper.SetDefault("profile.uclamp_min_low", defaults.Profile.UclampMinLow)
	viper.SetDefault("profile.uclamp_min_high", defaults.Profile.UclampMinHigh)
	viper.SetDefault("profile.uclamp_min_init", defaults.Profile.UclampMinInit)
	viper.SetDefault("profile.stale_time_factor", defaults.Profile.StaleTimeFactor)
	viper.SetDefault("profile.target_time_factor", defaults.Profile.TargetTimeFactor)

	viper.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	viper.SetDefault("metrics.port", defaults.Metrics.Port)
	viper.SetDefault("metrics.path", defaults.Metrics.Path)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	viper.SetDefault("hints.supported", defaults.Hints.Supported)
}

// Load reads the configuration from viper into a Config struct and
// validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the daemon's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "boostd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/boostd"
	}
	return filepath.Join(home, ".config", "boostd")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
