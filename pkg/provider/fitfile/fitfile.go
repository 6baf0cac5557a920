// Package fitfile implements the HealthProvider contract over .fit workout
// files the user has uploaded to the artifact bucket. Each FIT session
// becomes one workout sample; the object name doubles as the provider-local
// sample id, which keeps re-syncs idempotent.
package fitfile

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"

	shared "github.com/stridewell/healthsync/pkg"
	"github.com/stridewell/healthsync/pkg/provider"
	"github.com/stridewell/healthsync/pkg/types"
)

// Provider reads uploaded FIT files from a blob bucket.
type Provider struct {
	store  shared.BlobStore
	bucket string
	userID string
}

func New(store shared.BlobStore, bucket, userID string) *Provider {
	return &Provider{store: store, bucket: bucket, userID: userID}
}

func (p *Provider) Name() string {
	return shared.ProviderFitFile
}

// IsAvailable only requires the artifact bucket to be configured; a user
// with no uploads simply has zero samples.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.store != nil && p.bucket != ""
}

// RequestAuthorization grants workout access unconditionally: the files are
// the user's own uploads, there is no consent prompt to run.
func (p *Provider) RequestAuthorization(ctx context.Context, categories []types.SampleCategory) ([]types.SampleCategory, error) {
	var granted []types.SampleCategory
	for _, c := range categories {
		if c == types.CategoryWorkout {
			granted = append(granted, c)
		}
	}
	return granted, nil
}

// QuerySamples lists the user's uploads and decodes each FIT session whose
// start time falls inside the range.
func (p *Provider) QuerySamples(ctx context.Context, r types.DateRange) ([]types.HealthSample, error) {
	prefix := fmt.Sprintf("uploads/%s/", p.userID)
	objects, err := p.store.List(ctx, p.bucket, prefix)
	if err != nil {
		return nil, provider.NewFetchError(p.Name(), fmt.Errorf("list uploads: %w", err))
	}

	var samples []types.HealthSample
	for _, object := range objects {
		if !strings.HasSuffix(strings.ToLower(object), ".fit") {
			continue
		}

		data, err := p.store.Read(ctx, p.bucket, object)
		if err != nil {
			return nil, provider.NewFetchError(p.Name(), fmt.Errorf("read %s: %w", object, err))
		}

		fileSamples, err := ParseSessions(object, data)
		if err != nil {
			// A corrupt upload shouldn't poison the whole pass; skip it.
			continue
		}
		for _, s := range fileSamples {
			if r.Contains(s.StartTime) {
				samples = append(samples, s)
			}
		}
	}
	return samples, nil
}

// ParseSessions decodes a FIT file and returns one workout sample per
// session message.
func ParseSessions(object string, data []byte) ([]types.HealthSample, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty FIT data")
	}

	fitDec := decoder.New(bytes.NewReader(data))

	var samples []types.HealthSample
	sessionIdx := 0
	for fitDec.Next() {
		fitData, err := fitDec.Decode()
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIT file: %w", err)
		}

		for _, msg := range fitData.Messages {
			if msg.Num != typedef.MesgNumSession {
				continue
			}
			sessionMsg := mesgdef.NewSession(&msg)

			start := sessionMsg.StartTime.UTC()
			elapsedSec := float64(sessionMsg.TotalElapsedTime) / 1000

			samples = append(samples, types.HealthSample{
				SampleID:   fmt.Sprintf("%s#%d", path.Base(object), sessionIdx),
				Category:   types.CategoryWorkout,
				Value:      elapsedSec / 60, // minutes
				Unit:       "min",
				StartTime:  start,
				EndTime:    start.Add(time.Duration(elapsedSec * float64(time.Second))),
				SourceName: sportName(sessionMsg.Sport),
			})
			sessionIdx++
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no sessions found in FIT file")
	}
	return samples, nil
}

// sportName converts FIT SDK sport types to a readable source label.
func sportName(sport typedef.Sport) string {
	switch sport {
	case typedef.SportRunning:
		return "Run"
	case typedef.SportCycling:
		return "Ride"
	case typedef.SportSwimming:
		return "Swim"
	case typedef.SportWalking:
		return "Walk"
	case typedef.SportHiking:
		return "Hike"
	case typedef.SportTraining, typedef.SportFitnessEquipment:
		return "Workout"
	default:
		return "Workout"
	}
}
