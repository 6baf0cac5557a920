package transform

import (
	"testing"
	"time"

	"github.com/stridewell/healthsync/pkg/types"
)

func TestTransform_MapsFields(t *testing.T) {
	start := time.Date(2026, 8, 20, 7, 30, 0, 0, time.UTC)
	tr := NewTransformer("fitbit")

	records := tr.Transform([]types.HealthSample{
		{
			SampleID:  "daily-steps:2026-08-20",
			Category:  types.CategorySteps,
			Value:     8421,
			Unit:      "count",
			StartTime: start,
			EndTime:   start.Add(24 * time.Hour),
		},
	})

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.ActivityType != "steps" {
		t.Errorf("expected steps, got %s", r.ActivityType)
	}
	if r.Source != "fitbit" {
		t.Errorf("expected fitbit source, got %s", r.Source)
	}
	if r.Value != 8421 || r.Unit != "count" {
		t.Errorf("value/unit not carried: %+v", r)
	}
	if !r.RecordedAt.Equal(start) {
		t.Errorf("expected recorded_at %v, got %v", start, r.RecordedAt)
	}
	if r.SourceExternalID == "" {
		t.Error("external id must be stamped")
	}
}

func TestTransform_DropsUnusableSamples(t *testing.T) {
	tr := NewTransformer("mock")
	now := time.Now().UTC()

	records := tr.Transform([]types.HealthSample{
		{SampleID: "ok", Category: types.CategorySteps, Value: 1, StartTime: now},
		{SampleID: "", Category: types.CategorySteps, Value: 2, StartTime: now},
		{SampleID: "unknown-cat", Category: types.SampleCategory("blood_glucose"), Value: 3, StartTime: now},
	})

	if len(records) != 1 {
		t.Fatalf("expected only the usable sample, got %d records", len(records))
	}
	if records[0].Value != 1 {
		t.Errorf("wrong sample survived: %+v", records[0])
	}
}

func TestTransform_RecordedAtIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	local := time.Date(2026, 8, 20, 9, 0, 0, 0, loc)

	tr := NewTransformer("mock")
	records := tr.Transform([]types.HealthSample{
		{SampleID: "s1", Category: types.CategoryCalories, Value: 500, StartTime: local},
	})

	if records[0].RecordedAt.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", records[0].RecordedAt.Location())
	}
	if !records[0].RecordedAt.Equal(local) {
		t.Error("instant must be unchanged by normalization")
	}
}

func TestExternalID_Deterministic(t *testing.T) {
	a := ExternalID("fitbit", "daily-steps:2026-08-20")
	b := ExternalID("fitbit", "daily-steps:2026-08-20")
	if a != b {
		t.Fatalf("same input hashed differently: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d (%s)", len(a), a)
	}
}

func TestExternalID_ProviderScoped(t *testing.T) {
	if ExternalID("fitbit", "sample-1") == ExternalID("googlefit", "sample-1") {
		t.Error("same sample id from different providers must not collide")
	}
	if ExternalID("fitbit", "sample-1") == ExternalID("fitbit", "sample-2") {
		t.Error("distinct sample ids must not collide")
	}
}
