/*
errors.go - Centralized error types for the calendar engine

PURPOSE:
  All engine error types in one place. Selection and date-rule functions
  are total on well-typed input; only boundary operations can fail:
  loading a source, classifying with a tier name, and evaluating with an
  offset. Everything downstream of a failure is a skipped alert, never a
  crash - the engine prefers silence over a wrong or duplicated alert.

ERROR CATEGORIES:
  1. Source errors  - Calendar source missing or corrupt (degrades to an
     empty calendar; the caller logs and carries on)
  2. Tier errors    - Unknown frequency tier (fails loudly; never
     defaults to another tier)
  3. Offset errors  - Malformed alert offset (fails loudly)

USAGE:
  if errors.Is(err, calendar.ErrUnknownTier) { ... }

  var offErr *calendar.InvalidOffsetError
  if errors.As(err, &offErr) { ... }
*/
package calendar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDataUnavailable is returned when a calendar source is missing or
	// corrupt. Callers degrade to an empty calendar and log; it is never
	// fatal to the process.
	ErrDataUnavailable = errors.New("calendar source unavailable")

	// ErrUnknownTier is returned for an unrecognized frequency tier name.
	// There is deliberately no fallback tier.
	ErrUnknownTier = errors.New("unknown frequency tier")

	// ErrInvalidOffset is returned for a malformed alert offset, such as
	// a negative day count on a forward-looking alert.
	ErrInvalidOffset = errors.New("invalid alert offset")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SourceError reports why a year's source could not be loaded.
type SourceError struct {
	Year  int
	Cause error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("calendar source for %d unavailable: %v", e.Year, e.Cause)
}

func (e *SourceError) Unwrap() error { return ErrDataUnavailable }

// UnknownTierError identifies the offending tier name.
type UnknownTierError struct {
	Tier string
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("unknown frequency tier %q (want low, medium, or high)", e.Tier)
}

func (e *UnknownTierError) Unwrap() error { return ErrUnknownTier }

// InvalidOffsetError identifies the offending offset value.
type InvalidOffsetError struct {
	Offset int
}

func (e *InvalidOffsetError) Error() string {
	return fmt.Sprintf("invalid alert offset %d: forward-looking alerts require a non-negative day count", e.Offset)
}

func (e *InvalidOffsetError) Unwrap() error { return ErrInvalidOffset }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than a degraded source.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownTier) || errors.Is(err, ErrInvalidOffset)
}
