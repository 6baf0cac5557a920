// Package sync runs one health-data sync pass end-to-end: open a SyncLog,
// fetch samples from the provider, transform and assign them, upload in
// fixed-size idempotent batches, and close the log with a terminal status.
//
// A pass is single-flight per invocation: batches upload sequentially, and
// there is no background scheduler here. Overlapping passes for the same
// connection are absorbed by backend-side idempotency rather than an
// engine-level lock; getConnectionStatus surfacing "syncing" is advisory.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	shared "github.com/stridewell/healthsync/pkg"
	"github.com/stridewell/healthsync/pkg/goals"
	"github.com/stridewell/healthsync/pkg/provider"
	"github.com/stridewell/healthsync/pkg/transform"
	"github.com/stridewell/healthsync/pkg/types"
)

// Options selects the sync type and, for custom syncs, the lookback window.
// An explicit LookbackDays always wins over the type's default.
type Options struct {
	Type         types.SyncType
	LookbackDays int
}

// Orchestrator is the core sync engine. Construct one per process in the
// composition root and share it; it holds no per-pass state.
type Orchestrator struct {
	backend     shared.Backend
	provider    provider.HealthProvider
	transformer *transform.Transformer
	assigner    *goals.Assigner
	logger      *slog.Logger

	batchSize int
	now       func() time.Time
}

func NewOrchestrator(backend shared.Backend, p provider.HealthProvider, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		backend:     backend,
		provider:    p,
		transformer: transform.NewTransformer(p.Name()),
		assigner:    goals.NewAssigner(),
		logger:      logger.With("component", "sync"),
		batchSize:   shared.UploadBatchSize,
		now:         time.Now,
	}
}

// Sync runs one pass for the user. Failures before the SyncLog exists bubble
// with no backend record; failures after always reach the log's terminal
// state before being returned.
func (o *Orchestrator) Sync(ctx context.Context, userID string, opts Options) (*types.SyncResult, error) {
	dateRange, err := o.dateRange(opts)
	if err != nil {
		return nil, err
	}

	conn, err := o.backend.GetConnection(ctx, userID, o.provider.Name())
	if err != nil {
		return nil, fmt.Errorf("resolve connection: %w", err)
	}

	log := o.logger.With("user_id", userID, "sync_type", opts.Type, "provider", o.provider.Name())
	log.Info("Starting sync pass", "lookback_start", dateRange.Start, "lookback_end", dateRange.End)

	syncLog, err := o.backend.StartSync(ctx, userID, conn.ID, opts.Type)
	if err != nil {
		return nil, &SyncLogCreationError{Err: err}
	}
	log = log.With("sync_log_id", syncLog.ID)

	samples, err := o.provider.QuerySamples(ctx, dateRange)
	if err != nil {
		// The caller sees the same error that marked the log failed.
		log.Error("Sample fetch failed", "error", err)
		o.finalize(ctx, log, userID, syncLog.ID, shared.TerminalSync{
			Status:       types.SyncStatusFailed,
			ErrorMessage: err.Error(),
		})
		return nil, err
	}
	log.Info("Fetched samples", "count", len(samples))

	records := o.transformer.Transform(samples)

	activeGoals, err := o.backend.GetActiveGoalsForSync(ctx, userID)
	if err != nil {
		log.Error("Goal fetch failed", "error", err)
		o.finalize(ctx, log, userID, syncLog.ID, shared.TerminalSync{
			Status:       types.SyncStatusFailed,
			ErrorMessage: err.Error(),
		})
		return nil, err
	}
	records = o.assigner.Assign(records, activeGoals)

	result := o.uploadBatches(ctx, log, userID, records)

	terminal := shared.TerminalSync{
		Status:              types.SyncStatusCompleted,
		RecordsProcessed:    result.RecordsProcessed,
		RecordsInserted:     result.RecordsInserted,
		RecordsDeduplicated: result.RecordsDeduplicated,
		Errors:              result.Errors,
	}
	if len(result.Errors) > 0 {
		terminal.Status = types.SyncStatusPartial
		terminal.ErrorMessage = fmt.Sprintf("%d batch error(s)", len(result.Errors))
	}
	o.finalize(ctx, log, userID, syncLog.ID, terminal)

	log.Info("Sync pass finished",
		"status", terminal.Status,
		"processed", result.RecordsProcessed,
		"inserted", result.RecordsInserted,
		"deduplicated", result.RecordsDeduplicated,
		"errors", len(result.Errors))

	return result, nil
}

// dateRange computes the half-open [start, now) fetch window.
func (o *Orchestrator) dateRange(opts Options) (types.DateRange, error) {
	days := opts.LookbackDays
	if days <= 0 {
		days = opts.Type.LookbackDays()
	}
	if days <= 0 {
		return types.DateRange{}, fmt.Errorf("sync type %q requires an explicit lookback", opts.Type)
	}

	end := o.now().UTC()
	return types.DateRange{
		Start: end.AddDate(0, 0, -days),
		End:   end,
	}, nil
}

// uploadBatches uploads sequentially and aggregates every batch outcome.
// Batch-level failures degrade the pass, they never abort it.
func (o *Orchestrator) uploadBatches(ctx context.Context, log *slog.Logger, userID string, records []types.ActivityRecord) *types.SyncResult {
	result := &types.SyncResult{}

	for i, batch := range partition(records, o.batchSize) {
		batchResult, err := o.backend.UploadActivityBatch(ctx, userID, batch)
		if err != nil {
			uploadErr := &BatchUploadError{Batch: i, Records: len(batch), Err: err}
			log.Warn("Batch upload failed", "batch", i, "records", len(batch), "error", err)

			// The batch's records were processed but not persisted.
			result.RecordsProcessed += len(batch)
			result.Errors = append(result.Errors, types.SyncError{
				Batch:   i,
				Message: uploadErr.Error(),
			})
			continue
		}

		result.RecordsProcessed += batchResult.TotalProcessed
		result.RecordsInserted += batchResult.Inserted
		result.RecordsDeduplicated += batchResult.Deduplicated
		for _, e := range batchResult.Errors {
			e.Batch = i
			result.Errors = append(result.Errors, e)
		}
	}

	result.Success = len(result.Errors) == 0
	return result
}

// finalize applies the terminal write. A failure here is logged, not
// returned: the pass outcome was already decided and the caller's error (if
// any) must win.
func (o *Orchestrator) finalize(ctx context.Context, log *slog.Logger, userID, syncLogID string, terminal shared.TerminalSync) {
	if err := o.backend.CompleteSync(ctx, userID, syncLogID, terminal); err != nil {
		log.Error("Failed to finalize sync log", "error", err, "status", terminal.Status)
	}
}
