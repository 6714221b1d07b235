package model

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("model: invalid timer configuration")

const (
	DefaultWork    = 40
	DefaultCycles  = 3
	DefaultSets    = 2
	DefaultPrepare = 0

	// Form steppers used by the configuration screen.
	MinFormWork = 5
	WorkStep    = 5
	PrepareStep = 5
)

// ConfigError reports which field of a Config was rejected.
type ConfigError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s=%d %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// Config is the run configuration. Durations are whole seconds.
type Config struct {
	Work    int  `json:"work" yaml:"work"`
	Cycles  int  `json:"cycles" yaml:"cycles"`
	Sets    int  `json:"sets" yaml:"sets"`
	Prepare int  `json:"prepare" yaml:"prepare"`
	Muted   bool `json:"muted" yaml:"muted"`
}

func DefaultConfig() Config {
	return Config{
		Work:    DefaultWork,
		Cycles:  DefaultCycles,
		Sets:    DefaultSets,
		Prepare: DefaultPrepare,
	}
}

func (c Config) Validate() error {
	if c.Work < 1 {
		return &ConfigError{Field: "work", Value: c.Work, Reason: "must be at least 1"}
	}
	if c.Cycles < 1 {
		return &ConfigError{Field: "cycles", Value: c.Cycles, Reason: "must be at least 1"}
	}
	if c.Sets < 1 {
		return &ConfigError{Field: "sets", Value: c.Sets, Reason: "must be at least 1"}
	}
	if c.Prepare < 0 {
		return &ConfigError{Field: "prepare", Value: c.Prepare, Reason: "must not be negative"}
	}
	return nil
}

func (c Config) TotalWorkSeconds() int {
	return c.Work * c.Cycles * c.Sets
}

func (c Config) TotalIntervals() int {
	return c.Cycles * c.Sets
}
