// Package fitbit implements the HealthProvider contract over the Fitbit Web
// API: daily activity summaries for step/distance/calorie samples plus the
// activity log list for workouts.
package fitbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	shared "github.com/stridewell/healthsync/pkg"
	httputil "github.com/stridewell/healthsync/pkg/infrastructure/http"
	"github.com/stridewell/healthsync/pkg/provider"
	"github.com/stridewell/healthsync/pkg/types"
)

const baseURL = "https://api.fitbit.com/1/user/-"

// scopeCategories maps Fitbit OAuth scopes to sample categories.
var scopeCategories = map[string][]types.SampleCategory{
	"activity":  {types.CategorySteps, types.CategoryDistance, types.CategoryCalories, types.CategoryWorkout},
	"heartrate": {types.CategoryHeartRate},
}

// Provider queries the Fitbit Web API with an OAuth-authorized client.
type Provider struct {
	users  shared.UserStore
	userID string
	client *http.Client
}

// New constructs the provider for one user. Tests inject a plain client
// pointed at a stub server via BaseURL.
func New(users shared.UserStore, userID string, client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Provider{users: users, userID: userID, client: client}
}

// BaseURL is variable so tests can point the provider at a local stub.
var BaseURL = baseURL

func (p *Provider) Name() string {
	return shared.ProviderFitbit
}

func (p *Provider) IsAvailable(ctx context.Context) bool {
	user, err := p.users.GetUser(ctx, p.userID)
	if err != nil {
		return false
	}
	creds := user.Integration(shared.ProviderFitbit)
	return creds != nil && creds.Enabled
}

// RequestAuthorization resolves requested categories against the OAuth
// scopes granted at link time. Partial denial returns the granted subset.
func (p *Provider) RequestAuthorization(ctx context.Context, categories []types.SampleCategory) ([]types.SampleCategory, error) {
	user, err := p.users.GetUser(ctx, p.userID)
	if err != nil {
		return nil, fmt.Errorf("fitbit: load user: %w", err)
	}
	creds := user.Integration(shared.ProviderFitbit)
	if creds == nil || !creds.Enabled {
		return nil, nil
	}

	unlocked := make(map[types.SampleCategory]bool)
	for _, scope := range creds.GrantedScopes {
		for _, c := range scopeCategories[scope] {
			unlocked[c] = true
		}
	}

	granted := make([]types.SampleCategory, 0, len(categories))
	for _, c := range categories {
		if unlocked[c] {
			granted = append(granted, c)
		}
	}
	return granted, nil
}

// QuerySamples walks each day of [Start, End) for daily summaries and makes
// one activity-list call for workouts.
func (p *Provider) QuerySamples(ctx context.Context, r types.DateRange) ([]types.HealthSample, error) {
	var samples []types.HealthSample

	for day := r.Start.UTC().Truncate(24 * time.Hour); day.Before(r.End); day = day.Add(24 * time.Hour) {
		daySamples, err := p.queryDailySummary(ctx, r, day)
		if err != nil {
			return nil, provider.NewFetchError(p.Name(), err)
		}
		samples = append(samples, daySamples...)
	}

	workouts, err := p.queryWorkouts(ctx, r)
	if err != nil {
		return nil, provider.NewFetchError(p.Name(), err)
	}
	samples = append(samples, workouts...)

	return samples, nil
}

type dailySummaryResponse struct {
	Summary struct {
		Steps       int64   `json:"steps"`
		CaloriesOut float64 `json:"caloriesOut"`
		Distances   []struct {
			Activity string  `json:"activity"`
			Distance float64 `json:"distance"`
		} `json:"distances"`
	} `json:"summary"`
}

func (p *Provider) queryDailySummary(ctx context.Context, r types.DateRange, day time.Time) ([]types.HealthSample, error) {
	dateStr := day.Format("2006-01-02")
	url := fmt.Sprintf("%s/activities/date/%s.json", BaseURL, dateStr)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daily summary request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return nil, err
	}

	var result dailySummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode daily summary: %w", err)
	}

	// The first and last day of the window are usually partial. Clamp the
	// sample times so everything stays inside [Start, End).
	dayStart := day
	if dayStart.Before(r.Start) {
		dayStart = r.Start.UTC()
	}
	dayEnd := day.Add(24 * time.Hour)
	if dayEnd.After(r.End) {
		dayEnd = r.End.UTC()
	}

	var samples []types.HealthSample

	if result.Summary.Steps > 0 {
		samples = append(samples, types.HealthSample{
			SampleID:   "daily-steps:" + dateStr,
			Category:   types.CategorySteps,
			Value:      float64(result.Summary.Steps),
			Unit:       "count",
			StartTime:  dayStart,
			EndTime:    dayEnd,
			SourceName: "Fitbit",
		})
	}
	if result.Summary.CaloriesOut > 0 {
		samples = append(samples, types.HealthSample{
			SampleID:   "daily-calories:" + dateStr,
			Category:   types.CategoryCalories,
			Value:      result.Summary.CaloriesOut,
			Unit:       "kcal",
			StartTime:  dayStart,
			EndTime:    dayEnd,
			SourceName: "Fitbit",
		})
	}
	for _, d := range result.Summary.Distances {
		if d.Activity == "total" && d.Distance > 0 {
			samples = append(samples, types.HealthSample{
				SampleID:   "daily-distance:" + dateStr,
				Category:   types.CategoryDistance,
				Value:      d.Distance * 1000, // km -> m
				Unit:       "m",
				StartTime:  dayStart,
				EndTime:    dayEnd,
				SourceName: "Fitbit",
			})
		}
	}
	return samples, nil
}

type activityListResponse struct {
	Activities []struct {
		LogID        int64   `json:"logId"`
		ActivityName string  `json:"activityName"`
		Calories     float64 `json:"calories"`
		Duration     int64   `json:"duration"` // milliseconds
		StartTime    string  `json:"startTime"`
	} `json:"activities"`
}

func (p *Provider) queryWorkouts(ctx context.Context, r types.DateRange) ([]types.HealthSample, error) {
	url := fmt.Sprintf("%s/activities/list.json?afterDate=%s&sort=asc&limit=100&offset=0",
		BaseURL, r.Start.UTC().Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("activity list request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		if httputil.IsStatus(err, http.StatusTooManyRequests) {
			return nil, fmt.Errorf("fitbit rate limit exceeded: %w", err)
		}
		return nil, err
	}

	var result activityListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode activity list: %w", err)
	}

	var samples []types.HealthSample
	for _, a := range result.Activities {
		start, err := time.Parse(time.RFC3339, a.StartTime)
		if err != nil {
			continue
		}
		start = start.UTC()
		if !r.Contains(start) {
			continue
		}

		samples = append(samples, types.HealthSample{
			SampleID:   strconv.FormatInt(a.LogID, 10),
			Category:   types.CategoryWorkout,
			Value:      float64(a.Duration) / 60000, // ms -> minutes
			Unit:       "min",
			StartTime:  start,
			EndTime:    start.Add(time.Duration(a.Duration) * time.Millisecond),
			SourceName: "Fitbit",
		})
	}
	return samples, nil
}
