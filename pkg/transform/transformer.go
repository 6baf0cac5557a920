// Package transform converts raw provider samples into canonical activity
// records. The transformer computes each record's source_external_id, which
// the backend uses as its deduplication key, so it must be deterministic: the same sample
// from the same provider always hashes to the same id, no matter when or how
// often it is synced.
package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/stridewell/healthsync/pkg/types"
)

// activityTypes maps sample categories to canonical activity types.
var activityTypes = map[types.SampleCategory]string{
	types.CategorySteps:     "steps",
	types.CategoryDistance:  "distance",
	types.CategoryCalories:  "calories",
	types.CategoryWorkout:   "workout",
	types.CategoryHeartRate: "heart_rate",
}

// Transformer stamps records with its provider tag and derives external ids.
type Transformer struct {
	provider string
}

func NewTransformer(provider string) *Transformer {
	return &Transformer{provider: provider}
}

// Transform converts samples to activity records. Samples with an unknown
// category or no provider-local id are dropped: without a stable id there is
// no deduplication key, and uploading such a record would double-count on
// every retry.
func (t *Transformer) Transform(samples []types.HealthSample) []types.ActivityRecord {
	records := make([]types.ActivityRecord, 0, len(samples))
	for _, s := range samples {
		activityType, ok := activityTypes[s.Category]
		if !ok || s.SampleID == "" {
			continue
		}

		records = append(records, types.ActivityRecord{
			ActivityType:     activityType,
			Value:            s.Value,
			Unit:             s.Unit,
			Source:           t.provider,
			SourceExternalID: ExternalID(t.provider, s.SampleID),
			RecordedAt:       s.StartTime.UTC(),
		})
	}
	return records
}

// ExternalID derives the stable deduplication key for a provider sample.
// The key is fixed before the first upload attempt and never regenerated,
// which is what makes batch retries safe.
func ExternalID(provider, sampleID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", provider, sampleID)))
	return hex.EncodeToString(sum[:16])
}
