package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	shared "github.com/stridewell/healthsync/pkg"
	"github.com/stridewell/healthsync/pkg/testing/mocks"
	"github.com/stridewell/healthsync/pkg/types"
)

// stubProvider lets tests capture the query range and script the response.
type stubProvider struct {
	name       string
	samples    []types.HealthSample
	queryErr   error
	lastRange  types.DateRange
	queryCalls int
}

func (p *stubProvider) Name() string                     { return p.name }
func (p *stubProvider) IsAvailable(context.Context) bool { return true }

func (p *stubProvider) RequestAuthorization(ctx context.Context, cats []types.SampleCategory) ([]types.SampleCategory, error) {
	return cats, nil
}

func (p *stubProvider) QuerySamples(ctx context.Context, r types.DateRange) ([]types.HealthSample, error) {
	p.queryCalls++
	p.lastRange = r
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	return p.samples, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeSamples(n int) []types.HealthSample {
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	samples := make([]types.HealthSample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, types.HealthSample{
			SampleID:  fmt.Sprintf("sample-%d", i),
			Category:  types.CategorySteps,
			Value:     float64(100 * i),
			Unit:      "count",
			StartTime: base.Add(-time.Duration(i) * time.Minute),
			EndTime:   base.Add(-time.Duration(i)*time.Minute + time.Minute),
		})
	}
	return samples
}

func connectedBackend() *mocks.MockBackend {
	return &mocks.MockBackend{
		GetConnectionFunc: func(ctx context.Context, userID, provider string) (*types.HealthConnection, error) {
			return &types.HealthConnection{ID: "conn-1", UserID: userID, Provider: provider, Active: true}, nil
		},
	}
}

func TestSync_Success(t *testing.T) {
	backend := connectedBackend()

	var terminal *shared.TerminalSync
	backend.CompleteSyncFunc = func(ctx context.Context, userID, syncLogID string, term shared.TerminalSync) error {
		terminal = &term
		return nil
	}

	p := &stubProvider{name: "mock", samples: makeSamples(3)}
	o := NewOrchestrator(backend, p, testLogger())

	result, err := o.Sync(context.Background(), "user-1", Options{Type: types.SyncTypeManual})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if !result.Success {
		t.Error("expected success")
	}
	if result.RecordsProcessed != 3 || result.RecordsInserted != 3 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if terminal == nil || terminal.Status != types.SyncStatusCompleted {
		t.Errorf("expected completed terminal write, got %+v", terminal)
	}
}

func TestSync_BatchesOfOneHundred(t *testing.T) {
	backend := connectedBackend()

	var batchSizes []int
	backend.UploadActivityBatchFunc = func(ctx context.Context, userID string, records []types.ActivityRecord) (*types.BatchUploadResult, error) {
		batchSizes = append(batchSizes, len(records))
		return &types.BatchUploadResult{Inserted: len(records), TotalProcessed: len(records)}, nil
	}

	p := &stubProvider{name: "mock", samples: makeSamples(250)}
	o := NewOrchestrator(backend, p, testLogger())

	result, err := o.Sync(context.Background(), "user-1", Options{Type: types.SyncTypeManual})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	want := []int{100, 100, 50}
	if len(batchSizes) != len(want) {
		t.Fatalf("expected %d batches, got %v", len(want), batchSizes)
	}
	for i, size := range want {
		if batchSizes[i] != size {
			t.Errorf("batch %d: expected %d records, got %d", i, size, batchSizes[i])
		}
	}
	if result.RecordsProcessed != 250 {
		t.Errorf("expected 250 processed, got %d", result.RecordsProcessed)
	}
}

func TestSync_ZeroSamplesCompletes(t *testing.T) {
	backend := connectedBackend()

	uploadCalled := false
	backend.UploadActivityBatchFunc = func(ctx context.Context, userID string, records []types.ActivityRecord) (*types.BatchUploadResult, error) {
		uploadCalled = true
		return &types.BatchUploadResult{}, nil
	}
	var terminal *shared.TerminalSync
	backend.CompleteSyncFunc = func(ctx context.Context, userID, syncLogID string, term shared.TerminalSync) error {
		terminal = &term
		return nil
	}

	p := &stubProvider{name: "mock"}
	o := NewOrchestrator(backend, p, testLogger())

	result, err := o.Sync(context.Background(), "user-1", Options{Type: types.SyncTypeBackground})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if uploadCalled {
		t.Error("no batches should upload for zero samples")
	}
	if !result.Success || result.RecordsProcessed != 0 {
		t.Errorf("expected clean empty result, got %+v", result)
	}
	if terminal == nil || terminal.Status != types.SyncStatusCompleted {
		t.Errorf("expected completed status for empty pass, got %+v", terminal)
	}
}

func TestSync_FetchFailureMarksLogFailed(t *testing.T) {
	backend := connectedBackend()

	var terminal *shared.TerminalSync
	backend.CompleteSyncFunc = func(ctx context.Context, userID, syncLogID string, term shared.TerminalSync) error {
		terminal = &term
		return nil
	}
	uploadCalled := false
	backend.UploadActivityBatchFunc = func(ctx context.Context, userID string, records []types.ActivityRecord) (*types.BatchUploadResult, error) {
		uploadCalled = true
		return nil, nil
	}

	fetchErr := errors.New("provider timeout")
	p := &stubProvider{name: "mock", queryErr: fetchErr}
	o := NewOrchestrator(backend, p, testLogger())

	_, err := o.Sync(context.Background(), "user-1", Options{Type: types.SyncTypeManual})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected the provider error back, got %v", err)
	}

	if terminal == nil {
		t.Fatal("expected terminal write before error returned")
	}
	if terminal.Status != types.SyncStatusFailed {
		t.Errorf("expected failed status, got %s", terminal.Status)
	}
	if terminal.ErrorMessage != fetchErr.Error() {
		t.Errorf("expected error message %q, got %q", fetchErr.Error(), terminal.ErrorMessage)
	}
	if uploadCalled {
		t.Error("upload must not run after a fetch failure")
	}
}

func TestSync_SyncLogCreationFailureAbortsEarly(t *testing.T) {
	backend := connectedBackend()
	backend.StartSyncFunc = func(ctx context.Context, userID, connectionID string, syncType types.SyncType) (*types.SyncLog, error) {
		return nil, errors.New("backend rejected")
	}
	completeCalled := false
	backend.CompleteSyncFunc = func(ctx context.Context, userID, syncLogID string, term shared.TerminalSync) error {
		completeCalled = true
		return nil
	}

	p := &stubProvider{name: "mock", samples: makeSamples(5)}
	o := NewOrchestrator(backend, p, testLogger())

	_, err := o.Sync(context.Background(), "user-1", Options{Type: types.SyncTypeManual})

	var creationErr *SyncLogCreationError
	if !errors.As(err, &creationErr) {
		t.Fatalf("expected SyncLogCreationError, got %T: %v", err, err)
	}
	if p.queryCalls != 0 {
		t.Error("no samples should be fetched when the log cannot be created")
	}
	if completeCalled {
		t.Error("CompleteSync must not run when no log exists")
	}
}

func TestSync_BatchFailureDegradesToPartial(t *testing.T) {
	backend := connectedBackend()

	call := 0
	backend.UploadActivityBatchFunc = func(ctx context.Context, userID string, records []types.ActivityRecord) (*types.BatchUploadResult, error) {
		call++
		if call == 2 {
			return nil, errors.New("backend write timeout")
		}
		return &types.BatchUploadResult{Inserted: len(records), TotalProcessed: len(records)}, nil
	}
	var terminal *shared.TerminalSync
	backend.CompleteSyncFunc = func(ctx context.Context, userID, syncLogID string, term shared.TerminalSync) error {
		terminal = &term
		return nil
	}

	p := &stubProvider{name: "mock", samples: makeSamples(150)}
	o := NewOrchestrator(backend, p, testLogger())

	result, err := o.Sync(context.Background(), "user-1", Options{Type: types.SyncTypeManual})
	if err != nil {
		t.Fatalf("batch failures must not abort the pass: %v", err)
	}

	if result.Success {
		t.Error("expected degraded result")
	}
	if result.RecordsProcessed != 150 {
		t.Errorf("failed batch records still count as processed, got %d", result.RecordsProcessed)
	}
	if result.RecordsInserted != 100 {
		t.Errorf("expected 100 inserted, got %d", result.RecordsInserted)
	}
	if len(result.Errors) != 1 || result.Errors[0].Batch != 1 {
		t.Errorf("expected one error for batch 1, got %+v", result.Errors)
	}

	if terminal == nil || terminal.Status != types.SyncStatusPartial {
		t.Fatalf("expected partial terminal write, got %+v", terminal)
	}
	if terminal.ErrorMessage != "1 batch error(s)" {
		t.Errorf("unexpected terminal message %q", terminal.ErrorMessage)
	}
}

func TestSync_PerRecordErrorsDegradeToPartial(t *testing.T) {
	backend := connectedBackend()

	backend.UploadActivityBatchFunc = func(ctx context.Context, userID string, records []types.ActivityRecord) (*types.BatchUploadResult, error) {
		// The call itself succeeds but two records are rejected.
		return &types.BatchUploadResult{
			TotalProcessed: len(records),
			Inserted:       len(records) - 2,
			Deduplicated:   1,
			Errors: []types.SyncError{
				{SourceExternalID: records[0].SourceExternalID, Message: "schema validation failed"},
			},
		}, nil
	}
	var terminal *shared.TerminalSync
	backend.CompleteSyncFunc = func(ctx context.Context, userID, syncLogID string, term shared.TerminalSync) error {
		terminal = &term
		return nil
	}

	p := &stubProvider{name: "mock", samples: makeSamples(10)}
	o := NewOrchestrator(backend, p, testLogger())

	result, err := o.Sync(context.Background(), "user-1", Options{Type: types.SyncTypeManual})
	if err != nil {
		t.Fatalf("record-level errors must not abort the pass: %v", err)
	}

	if result.Success {
		t.Error("expected degraded result")
	}
	if result.RecordsProcessed != 10 || result.RecordsInserted != 8 || result.RecordsDeduplicated != 1 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Batch != 0 {
		t.Errorf("expected one error stamped with batch 0, got %+v", result.Errors)
	}
	if terminal == nil || terminal.Status != types.SyncStatusPartial {
		t.Fatalf("expected partial terminal write, got %+v", terminal)
	}
	if terminal.ErrorMessage != "1 batch error(s)" {
		t.Errorf("unexpected terminal message %q", terminal.ErrorMessage)
	}
}

func TestSync_PerRecordErrorsCarryBatchIndex(t *testing.T) {
	backend := connectedBackend()

	call := 0
	backend.UploadActivityBatchFunc = func(ctx context.Context, userID string, records []types.ActivityRecord) (*types.BatchUploadResult, error) {
		call++
		res := &types.BatchUploadResult{TotalProcessed: len(records), Inserted: len(records)}
		if call == 2 {
			res.Inserted -= 2
			res.Errors = []types.SyncError{
				{SourceExternalID: records[0].SourceExternalID, Message: "bad record"},
				{SourceExternalID: records[1].SourceExternalID, Message: "bad record"},
			}
		}
		return res, nil
	}

	p := &stubProvider{name: "mock", samples: makeSamples(250)}
	o := NewOrchestrator(backend, p, testLogger())

	result, err := o.Sync(context.Background(), "user-1", Options{Type: types.SyncTypeManual})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if result.RecordsInserted != 248 {
		t.Errorf("expected 248 inserted, got %d", result.RecordsInserted)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %+v", result.Errors)
	}
	for _, e := range result.Errors {
		if e.Batch != 1 {
			t.Errorf("error %q stamped with batch %d, want 1", e.SourceExternalID, e.Batch)
		}
	}
}

func TestSync_DeduplicatedRerun(t *testing.T) {
	backend := connectedBackend()

	seen := map[string]bool{}
	backend.UploadActivityBatchFunc = func(ctx context.Context, userID string, records []types.ActivityRecord) (*types.BatchUploadResult, error) {
		res := &types.BatchUploadResult{TotalProcessed: len(records)}
		for _, r := range records {
			if seen[r.SourceExternalID] {
				res.Deduplicated++
				continue
			}
			seen[r.SourceExternalID] = true
			res.Inserted++
		}
		return res, nil
	}

	p := &stubProvider{name: "mock", samples: makeSamples(10)}
	o := NewOrchestrator(backend, p, testLogger())

	first, err := o.Sync(context.Background(), "user-1", Options{Type: types.SyncTypeManual})
	if err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	second, err := o.Sync(context.Background(), "user-1", Options{Type: types.SyncTypeManual})
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}

	if first.RecordsInserted != 10 || first.RecordsDeduplicated != 0 {
		t.Errorf("first pass: %+v", first)
	}
	if second.RecordsInserted != 0 || second.RecordsDeduplicated != 10 {
		t.Errorf("second pass should fully deduplicate: %+v", second)
	}
}

func TestSync_GoalFetchFailureMarksLogFailed(t *testing.T) {
	backend := connectedBackend()
	backend.GetActiveGoalsForSyncFunc = func(ctx context.Context, userID string) ([]types.Goal, error) {
		return nil, errors.New("goal query failed")
	}
	var terminal *shared.TerminalSync
	backend.CompleteSyncFunc = func(ctx context.Context, userID, syncLogID string, term shared.TerminalSync) error {
		terminal = &term
		return nil
	}

	p := &stubProvider{name: "mock", samples: makeSamples(2)}
	o := NewOrchestrator(backend, p, testLogger())

	_, err := o.Sync(context.Background(), "user-1", Options{Type: types.SyncTypeManual})
	if err == nil {
		t.Fatal("expected error")
	}
	if terminal == nil || terminal.Status != types.SyncStatusFailed {
		t.Errorf("expected failed terminal write, got %+v", terminal)
	}
}

func TestSync_LookbackWindows(t *testing.T) {
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		opts     Options
		wantDays int
		wantErr  bool
	}{
		{"background default", Options{Type: types.SyncTypeBackground}, 3, false},
		{"manual default", Options{Type: types.SyncTypeManual}, 7, false},
		{"initial default", Options{Type: types.SyncTypeInitial}, 30, false},
		{"explicit wins over default", Options{Type: types.SyncTypeManual, LookbackDays: 14}, 14, false},
		{"custom with lookback", Options{Type: types.SyncTypeCustom, LookbackDays: 90}, 90, false},
		{"custom without lookback", Options{Type: types.SyncTypeCustom}, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &stubProvider{name: "mock"}
			o := NewOrchestrator(connectedBackend(), p, testLogger())
			o.now = func() time.Time { return now }

			_, err := o.Sync(context.Background(), "user-1", tc.opts)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected lookback error")
				}
				if p.queryCalls != 0 {
					t.Error("nothing should be fetched on a bad lookback")
				}
				return
			}
			if err != nil {
				t.Fatalf("Sync failed: %v", err)
			}

			wantStart := now.AddDate(0, 0, -tc.wantDays)
			if !p.lastRange.Start.Equal(wantStart) {
				t.Errorf("expected start %v, got %v", wantStart, p.lastRange.Start)
			}
			if !p.lastRange.End.Equal(now) {
				t.Errorf("expected end %v, got %v", now, p.lastRange.End)
			}
		})
	}
}
