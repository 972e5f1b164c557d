package routing

import (
	"errors"
	"fmt"
)

// Common routing errors that can be checked with errors.Is().
var (
	// ErrNoProvidersAvailable is returned when no provider can currently
	// serve the requested model.
	ErrNoProvidersAvailable = errors.New("no providers available")

	// ErrUnknownStrategy is returned for an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("unknown routing strategy")
)

// NoProvidersAvailableError is returned when the filtered candidate set for
// a model is empty. Terminal for the current call; the caller decides whether
// to back off or try a different model.
type NoProvidersAvailableError struct {
	// Model is the requested model.
	Model string
}

// Error implements the error interface.
func (e *NoProvidersAvailableError) Error() string {
	return fmt.Sprintf("no providers available for model %q", e.Model)
}

// Is implements error matching for errors.Is().
func (e *NoProvidersAvailableError) Is(target error) bool {
	return target == ErrNoProvidersAvailable
}

// UnknownStrategyError is returned by NewStrategy for an unrecognized name.
type UnknownStrategyError struct {
	// Name is the rejected strategy name.
	Name string
}

// Error implements the error interface.
func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown routing strategy %q (valid: cost, performance, balanced, roundrobin)", e.Name)
}

// Is implements error matching for errors.Is().
func (e *UnknownStrategyError) Is(target error) bool {
	return target == ErrUnknownStrategy
}
