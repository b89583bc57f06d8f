package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/gliderbatch/internal/domain"
	"github.com/bft-labs/gliderbatch/pkg/log"
)

// Config holds CLI configuration for gliderbatch.
type Config struct {
	RootInputDir  string
	RootOutputDir string

	BatchSize     int
	TailThreshold int
	DataKind      string
	Steps         []int
	DatasetTag    string

	StepCommand      []string
	RecombineCommand []string
	GeocodeCommand   []string
	PlotCommand      []string
	IngestCommand    []string

	DatabasePath string
	ReportDir    string

	LogFile  string
	LogLevel string

	Watch    bool
	Debounce time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		TailThreshold: 3,
		DataKind:      string(domain.DataKindRaw),
		Steps:         []int{1, 1, 1, 1},
		DatasetTag:    "complete_mission",
		ReportDir:     "", // Derived from RootOutputDir during Validate
		LogLevel:      "info",
		Debounce:      30 * time.Second,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.RootInputDir == "" {
		return fmt.Errorf("%w: root-input-dir is required", domain.ErrInvalidConfig)
	}
	if c.RootOutputDir == "" {
		return fmt.Errorf("%w: root-output-dir is required", domain.ErrInvalidConfig)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch-size must be at least 1", domain.ErrInvalidConfig)
	}
	if c.TailThreshold < 1 {
		return fmt.Errorf("%w: tail-threshold must be at least 1", domain.ErrInvalidConfig)
	}
	if _, err := domain.ParseDataKind(c.DataKind); err != nil {
		return err
	}

	if len(c.Steps) == 0 {
		return fmt.Errorf("%w: steps must not be empty", domain.ErrInvalidConfig)
	}
	for _, s := range c.Steps {
		if s != 0 && s != 1 {
			return fmt.Errorf("%w: steps must be 0 or 1, got %v", domain.ErrInvalidConfig, c.Steps)
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	if c.Watch && c.Debounce <= 0 {
		return fmt.Errorf("%w: debounce must be positive in watch mode", domain.ErrInvalidConfig)
	}

	if c.ReportDir == "" {
		c.ReportDir = c.RootOutputDir
	}
	if c.DatasetTag == "" {
		c.DatasetTag = "complete_mission"
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a string slice if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInts sets an int slice if not empty and flag not changed.
func (s *configSetter) setInts(flag string, value []int, dst *[]int) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]int(nil), value...)
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setIntsFromString parses a comma-separated list such as "1,1,0,1".
func (s *configSetter) setIntsFromString(flag, value string, dst *[]int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("parse %s: %w", flag, err)
		}
		out = append(out, i)
	}
	*dst = out
	return nil
}

// setCommandFromString splits a command line on whitespace.
func (s *configSetter) setCommandFromString(flag, value string, dst *[]string) {
	s.setStrings(flag, strings.Fields(value), dst)
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
