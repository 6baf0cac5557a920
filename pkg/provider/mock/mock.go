// Package mock provides a deterministic HealthProvider for testing the full
// sync pipeline: injectable sample sets, configurable failures, and
// configurable latency (leave Latency at 0 for fast tests).
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/stridewell/healthsync/pkg/provider"
	"github.com/stridewell/healthsync/pkg/types"
)

type MockProvider struct {
	mu sync.Mutex

	// Samples is returned (filtered to the query range) by QuerySamples.
	Samples []types.HealthSample

	// Available controls IsAvailable.
	Available bool

	// Granted is returned by RequestAuthorization, intersected with the
	// requested set. Nil means grant everything requested.
	Granted []types.SampleCategory

	// QueryErr, when set, makes QuerySamples fail with a FetchError
	// wrapping it.
	QueryErr error

	// AuthErr, when set, makes RequestAuthorization fail outright.
	AuthErr error

	// Latency is slept before every call to simulate slow provider I/O.
	Latency time.Duration

	// QueryCalls counts QuerySamples invocations.
	QueryCalls int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{Available: true}
}

func (p *MockProvider) Name() string {
	return "mock"
}

func (p *MockProvider) IsAvailable(ctx context.Context) bool {
	p.sleep(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Available
}

func (p *MockProvider) RequestAuthorization(ctx context.Context, categories []types.SampleCategory) ([]types.SampleCategory, error) {
	p.sleep(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.AuthErr != nil {
		return nil, p.AuthErr
	}
	if p.Granted == nil {
		return categories, nil
	}

	allowed := make(map[types.SampleCategory]bool, len(p.Granted))
	for _, c := range p.Granted {
		allowed[c] = true
	}
	granted := make([]types.SampleCategory, 0, len(categories))
	for _, c := range categories {
		if allowed[c] {
			granted = append(granted, c)
		}
	}
	return granted, nil
}

func (p *MockProvider) QuerySamples(ctx context.Context, r types.DateRange) ([]types.HealthSample, error) {
	p.sleep(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()

	p.QueryCalls++
	if p.QueryErr != nil {
		return nil, provider.NewFetchError(p.Name(), p.QueryErr)
	}

	var out []types.HealthSample
	for _, s := range p.Samples {
		if r.Contains(s.StartTime) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p *MockProvider) sleep(ctx context.Context) {
	if p.Latency <= 0 {
		return
	}
	select {
	case <-time.After(p.Latency):
	case <-ctx.Done():
	}
}
