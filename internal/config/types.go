// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/actx/pkg/actx"
)

const (
	// LogLevelDebug logs skipped files, scans and loads.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs failing predicate scripts and other warnings.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLocation is the sentinel error wrapped by InvalidLocationError.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level the CLI logger emits.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// LocationConfig is one configured discovery location. Both fields hold
	// tagged references as read by actx.ParseSpec.
	LocationConfig struct {
		Source string `json:"source" mapstructure:"source"`
		Filter string `json:"filter,omitempty" mapstructure:"filter"`
	}

	// InvalidLocationError is returned when a LocationConfig has invalid fields.
	// It wraps ErrInvalidLocation for errors.Is() compatibility.
	InvalidLocationError struct {
		Index       int
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Locations are the discovery sources, merged in declared order.
		Locations []LocationConfig `json:"locations" mapstructure:"locations"`
		// BaseDir is the directory relative references resolve against.
		BaseDir string `json:"base_dir,omitempty" mapstructure:"base_dir"`
		// FileFilter is the provider-wide exclusion filter reference.
		FileFilter string `json:"file_filter,omitempty" mapstructure:"file_filter"`
		// LogLevel sets the CLI logger level.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`

		// Source is the file the configuration was read from; empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Locations: []LocationConfig{},
		LogLevel:  LogLevelInfo,
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level converts the LogLevel to a charmbracelet/log level. Unknown values
// map to info.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Spec parses the location into an actx.Location.
func (l LocationConfig) Spec() (actx.Location, error) {
	source, err := actx.ParseSpec(l.Source)
	if err != nil {
		return actx.Location{}, err
	}
	loc := actx.Location{Source: source}
	if l.Filter != "" {
		if loc.Filter, err = actx.ParseSpec(l.Filter); err != nil {
			return actx.Location{}, err
		}
	}
	return loc, nil
}

// IsValid returns whether the source and filter are parseable references and
// the source is a path.
func (l LocationConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(l.Source) == "" {
		errs = append(errs, errors.New("source: must not be empty"))
	} else if spec, err := actx.ParseSpec(l.Source); err != nil {
		errs = append(errs, fmt.Errorf("source: %w", err))
	} else if spec.Kind() != actx.KindPath {
		errs = append(errs, fmt.Errorf("source: %s is not a path reference", spec))
	}
	if l.Filter != "" {
		if _, err := actx.ParseSpec(l.Filter); err != nil {
			errs = append(errs, fmt.Errorf("filter: %w", err))
		}
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// Error implements the error interface for InvalidLocationError.
func (e *InvalidLocationError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("locations[%d]: %s", e.Index, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidLocation for errors.Is() compatibility.
func (e *InvalidLocationError) Unwrap() error { return ErrInvalidLocation }

// IsValid returns whether the Config has valid fields. It delegates to
// LogLevel.IsValid() and each location's IsValid(), and checks that the file
// filter parses.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for i, loc := range c.Locations {
		if valid, fieldErrs := loc.IsValid(); !valid {
			errs = append(errs, &InvalidLocationError{Index: i, FieldErrors: fieldErrs})
		}
	}
	if c.FileFilter != "" {
		if _, err := actx.ParseSpec(c.FileFilter); err != nil {
			errs = append(errs, fmt.Errorf("file_filter: %w", err))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// ActxLocations converts the configured locations to actx locations.
func (c *Config) ActxLocations() ([]actx.Location, error) {
	locs := make([]actx.Location, 0, len(c.Locations))
	for i, l := range c.Locations {
		loc, err := l.Spec()
		if err != nil {
			return nil, fmt.Errorf("locations[%d]: %w", i, err)
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

// ActxOptions returns the provider options for BaseDir and FileFilter. A
// relative BaseDir resolves against the directory of Source.
func (c *Config) ActxOptions() ([]actx.Option, error) {
	var opts []actx.Option
	if c.BaseDir != "" {
		dir := c.BaseDir
		if !filepath.IsAbs(dir) && c.Source != "" {
			dir = filepath.Join(filepath.Dir(c.Source), dir)
		}
		opts = append(opts, actx.WithBaseDir(dir))
	}
	if c.FileFilter != "" {
		spec, err := actx.ParseSpec(c.FileFilter)
		if err != nil {
			return nil, fmt.Errorf("file_filter: %w", err)
		}
		opts = append(opts, actx.WithFileFilter(spec))
	}
	return opts, nil
}
