// Package providers implements the external geocoding adapters. Each
// adapter is a black box to the engine: one query in, one candidate or
// nothing out. Transport failures, timeouts, and malformed payloads never
// escape as errors; they all collapse to "no result".
package providers

import (
	"context"
	"time"

	"github.com/muni-gis/geocode-cli/internal/geodist"
)

// Candidate is a raw coordinate returned by a provider, before boundary
// validation and confidence tagging.
type Candidate struct {
	Point       geodist.Point
	DisplayName string
}

// Provider is a single external geocoding backend.
type Provider interface {
	Name() string
	// Query geocodes free text. A nil Candidate with nil error means the
	// provider has no answer; recoverable failures are reported the same
	// way so the caller can simply fall through to the next source.
	Query(ctx context.Context, text string) (*Candidate, error)
}

const defaultTimeout = 5 * time.Second

// callCtx bounds a single provider call. Timeouts are treated identically
// to "no result"; there are no retries.
func callCtx(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(parent, timeout)
}
