package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stridewell/healthsync/pkg/provider"
	"github.com/stridewell/healthsync/pkg/types"
)

func TestQuerySamples_FiltersToRange(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	p := NewMockProvider()
	p.Samples = []types.HealthSample{
		{SampleID: "in", Category: types.CategorySteps, StartTime: now.Add(-time.Hour)},
		{SampleID: "too-old", Category: types.CategorySteps, StartTime: now.Add(-48 * time.Hour)},
		{SampleID: "at-end", Category: types.CategorySteps, StartTime: now},
	}

	got, err := p.QuerySamples(context.Background(), types.DateRange{
		Start: now.Add(-24 * time.Hour),
		End:   now,
	})
	if err != nil {
		t.Fatalf("QuerySamples failed: %v", err)
	}

	if len(got) != 1 || got[0].SampleID != "in" {
		t.Errorf("expected only the in-range sample (end exclusive), got %+v", got)
	}
}

func TestQuerySamples_WrapsErrorAsFetchError(t *testing.T) {
	p := NewMockProvider()
	cause := errors.New("boom")
	p.QueryErr = cause

	_, err := p.QuerySamples(context.Background(), types.DateRange{End: time.Now()})

	var fetchErr *provider.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if fetchErr.Provider != "mock" {
		t.Errorf("expected provider tag mock, got %s", fetchErr.Provider)
	}
	if !errors.Is(err, cause) {
		t.Error("cause must stay reachable through the wrapper")
	}
}

func TestRequestAuthorization_IntersectsGrant(t *testing.T) {
	p := NewMockProvider()
	p.Granted = []types.SampleCategory{types.CategorySteps}

	granted, err := p.RequestAuthorization(context.Background(), []types.SampleCategory{
		types.CategorySteps, types.CategoryWorkout,
	})
	if err != nil {
		t.Fatalf("RequestAuthorization failed: %v", err)
	}
	if len(granted) != 1 || granted[0] != types.CategorySteps {
		t.Errorf("expected only steps granted, got %v", granted)
	}
}

func TestQueryCallsCounted(t *testing.T) {
	p := NewMockProvider()
	r := types.DateRange{End: time.Now()}

	p.QuerySamples(context.Background(), r)
	p.QuerySamples(context.Background(), r)

	if p.QueryCalls != 2 {
		t.Errorf("expected 2 calls recorded, got %d", p.QueryCalls)
	}
}
