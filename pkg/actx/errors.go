// SPDX-License-Identifier: MPL-2.0

package actx

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the sentinel wrapped by ConfigurationError.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrDiscovery is the sentinel wrapped by DiscoveryError.
	ErrDiscovery = errors.New("discovery failed")
	// ErrLoad is the sentinel wrapped by LoadError.
	ErrLoad = errors.New("action load failed")
	// ErrActionNotFound is returned when a context has no action under the requested name.
	ErrActionNotFound = errors.New("action not found")
)

type (
	// ConfigurationError reports a Spec that has the wrong shape or cannot be
	// resolved. It is always returned from Setup, never on first use.
	ConfigurationError struct {
		// Field names what was being resolved (e.g. "locations[1].filter").
		Field string
		// Spec is the offending reference.
		Spec Spec
		// Reason is a short human-readable explanation.
		Reason string
		// Cause is the underlying error (optional).
		Cause error
	}

	// DiscoveryError reports a failed walk of a location's base directory.
	DiscoveryError struct {
		// Location is the declared index of the failing location.
		Location int
		// Dir is the resolved base directory.
		Dir string
		// Cause is the underlying filesystem error.
		Cause error
	}

	// LoadError reports a failure to turn a discovered source file into a callable.
	// It is scoped to one action; other actions stay usable.
	LoadError struct {
		Domain string
		Name   string
		Source string
		Cause  error
	}
)

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Field, e.Reason)
	if e.Spec.kind != KindNone {
		msg = fmt.Sprintf("%s: %s (%s)", e.Field, e.Reason, e.Spec)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover actions in location %d (%s): %v", e.Location, e.Dir, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *DiscoveryError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrDiscovery.
func (e *DiscoveryError) Is(target error) bool { return target == ErrDiscovery }

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load action %s.%s from %s: %v", e.Domain, e.Name, e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrLoad.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// notFound builds the error returned for unknown domains or actions.
func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrActionNotFound, key)
}
