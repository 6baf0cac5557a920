// Package provider defines the HealthProvider contract: a polymorphic
// boundary over concrete health data sources. One implementation exists per
// platform plus a deterministic mock; the composition root picks the
// concrete implementation from the connection's provider tag at
// construction time.
package provider

import (
	"context"

	"github.com/stridewell/healthsync/pkg/types"
)

// HealthProvider is the capability interface over one health data source.
type HealthProvider interface {
	// Name returns the stable provider tag (e.g. "googlefit").
	Name() string

	// IsAvailable reports whether the data source can be reached for this
	// user at all. No side effects.
	IsAvailable(ctx context.Context) bool

	// RequestAuthorization asks for access to the given categories and
	// returns the subset actually granted, possibly empty. Partial denial
	// is not an error.
	RequestAuthorization(ctx context.Context, categories []types.SampleCategory) ([]types.SampleCategory, error)

	// QuerySamples returns all samples in the half-open range [Start, End).
	// An empty result is valid. I/O failures surface as *FetchError.
	QuerySamples(ctx context.Context, r types.DateRange) ([]types.HealthSample, error)
}
