// Package database provides the Firestore-backed implementation of the
// Backend and UserStore boundaries.
package database

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/stridewell/healthsync/pkg"
	storage "github.com/stridewell/healthsync/pkg/storage/firestore"
	"github.com/stridewell/healthsync/pkg/types"
)

// FirestoreAdapter implements shared.Backend and shared.UserStore on top of
// the typed storage client. Each exported call is all-or-nothing from the
// engine's perspective.
type FirestoreAdapter struct {
	storage *storage.Client
	now     func() time.Time
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{
		storage: storage.NewClient(client),
		now:     time.Now,
	}
}

// --- Connections ---

// ConnectProvider is an idempotent upsert: the first connect creates the
// record, a re-connect re-activates it and refreshes the granted set while
// keeping the original connection ID.
func (a *FirestoreAdapter) ConnectProvider(ctx context.Context, userID, provider string, granted []types.SampleCategory) (*types.HealthConnection, error) {
	doc := a.storage.Connections(userID).Doc(provider)
	now := a.now().UTC()

	existing, err := doc.Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return nil, fmt.Errorf("read connection: %w", err)
	}

	conn := &types.HealthConnection{
		ID:                uuid.NewString(),
		UserID:            userID,
		Provider:          provider,
		Active:            true,
		GrantedCategories: granted,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if existing != nil {
		conn.ID = existing.ID
		conn.CreatedAt = existing.CreatedAt
		conn.LastSyncAt = existing.LastSyncAt
	}

	if err := doc.Set(ctx, conn); err != nil {
		return nil, fmt.Errorf("write connection: %w", err)
	}
	return conn, nil
}

func (a *FirestoreAdapter) GetConnection(ctx context.Context, userID, provider string) (*types.HealthConnection, error) {
	conn, err := a.storage.Connections(userID).Doc(provider).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, shared.ErrConnectionNotFound
		}
		return nil, fmt.Errorf("read connection: %w", err)
	}
	return conn, nil
}

// DisconnectProvider clears the active flag. The record is kept: a
// disconnect is a state transition, not destruction.
func (a *FirestoreAdapter) DisconnectProvider(ctx context.Context, userID, provider string) error {
	if _, err := a.GetConnection(ctx, userID, provider); err != nil {
		return err
	}
	return a.storage.Connections(userID).Doc(provider).Update(ctx, map[string]interface{}{
		"active":     false,
		"updated_at": a.now().UTC(),
	})
}

// --- Sync logs ---

// StartSync validates the connection and opens a SyncLog in the syncing
// state. Invalid connections fail fast before any log exists.
func (a *FirestoreAdapter) StartSync(ctx context.Context, userID, connectionID string, syncType types.SyncType) (*types.SyncLog, error) {
	conns, err := a.storage.Connections(userID).Query().Where("id", "==", connectionID).Limit(1).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("validate connection: %w", err)
	}
	if len(conns) == 0 {
		return nil, shared.ErrConnectionNotFound
	}
	if !conns[0].Active {
		return nil, fmt.Errorf("connection %s is not active", connectionID)
	}

	log := &types.SyncLog{
		ID:           uuid.NewString(),
		ConnectionID: connectionID,
		SyncType:     syncType,
		Status:       types.SyncStatusSyncing,
		StartedAt:    a.now().UTC(),
	}
	if err := a.storage.SyncLogs(userID).Doc(log.ID).Create(ctx, log); err != nil {
		return nil, fmt.Errorf("create sync log: %w", err)
	}
	return log, nil
}

// CompleteSync applies the single terminal write and, when the pass landed
// data, stamps the connection's last_sync_at.
func (a *FirestoreAdapter) CompleteSync(ctx context.Context, userID, syncLogID string, terminal shared.TerminalSync) error {
	doc := a.storage.SyncLogs(userID).Doc(syncLogID)

	log, err := doc.Get(ctx)
	if err != nil {
		return fmt.Errorf("read sync log: %w", err)
	}
	if log.Status.Terminal() {
		return fmt.Errorf("sync log %s already terminal (%s)", syncLogID, log.Status)
	}

	now := a.now().UTC()
	updates := map[string]interface{}{
		"status":               terminal.Status,
		"completed_at":         now,
		"records_processed":    terminal.RecordsProcessed,
		"records_inserted":     terminal.RecordsInserted,
		"records_deduplicated": terminal.RecordsDeduplicated,
	}
	if terminal.ErrorMessage != "" {
		updates["error_message"] = terminal.ErrorMessage
	}
	if len(terminal.Errors) > 0 {
		updates["errors"] = terminal.Errors
	}
	if err := doc.Update(ctx, updates); err != nil {
		return fmt.Errorf("finalize sync log: %w", err)
	}

	if terminal.Status == types.SyncStatusCompleted || terminal.Status == types.SyncStatusPartial {
		conns, err := a.storage.Connections(userID).Query().Where("id", "==", log.ConnectionID).Limit(1).GetAll(ctx)
		if err == nil && len(conns) == 1 {
			_ = a.storage.Connections(userID).Doc(conns[0].Provider).Update(ctx, map[string]interface{}{
				"last_sync_at": now,
				"updated_at":   now,
			})
		}
	}
	return nil
}

// --- Activities ---

// UploadActivityBatch persists records idempotently. The activity document
// ID is the record's source_external_id, so a duplicate submission fails the
// Create with AlreadyExists and is counted as deduplicated, not as an error.
func (a *FirestoreAdapter) UploadActivityBatch(ctx context.Context, userID string, records []types.ActivityRecord) (*types.BatchUploadResult, error) {
	result := &types.BatchUploadResult{TotalProcessed: len(records)}

	col := a.storage.Activities(userID)
	for i := range records {
		record := records[i]
		if record.SourceExternalID == "" {
			result.Errors = append(result.Errors, types.SyncError{
				Message: "record has no source_external_id",
			})
			continue
		}

		err := col.Doc(record.SourceExternalID).Create(ctx, &record)
		switch {
		case err == nil:
			result.Inserted++
		case status.Code(err) == codes.AlreadyExists:
			result.Deduplicated++
		default:
			result.Errors = append(result.Errors, types.SyncError{
				SourceExternalID: record.SourceExternalID,
				Message:          err.Error(),
			})
		}
	}
	return result, nil
}

func (a *FirestoreAdapter) GetRecentActivities(ctx context.Context, userID string, limit, offset int) ([]types.ActivityRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return a.storage.Activities(userID).Query().
		OrderBy("recorded_at", firestore.Desc).
		Offset(offset).
		Limit(limit).
		GetAll(ctx)
}

// --- Goals ---

func (a *FirestoreAdapter) GetActiveGoalsForSync(ctx context.Context, userID string) ([]types.Goal, error) {
	return a.storage.Goals(userID).Query().Where("active", "==", true).GetAll(ctx)
}

// --- Sync history ---

func (a *FirestoreAdapter) GetSyncHistory(ctx context.Context, userID string, limit int) ([]types.SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}
	return a.storage.SyncLogs(userID).Query().
		OrderBy("started_at", firestore.Desc).
		Limit(limit).
		GetAll(ctx)
}

// --- Users ---

func (a *FirestoreAdapter) GetUser(ctx context.Context, id string) (*types.UserRecord, error) {
	return a.storage.Users().Doc(id).Get(ctx)
}

func (a *FirestoreAdapter) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	return a.storage.Users().Doc(id).Update(ctx, data)
}
