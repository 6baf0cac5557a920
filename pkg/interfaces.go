package shared

import (
	"context"
	"errors"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/stridewell/healthsync/pkg/types"
)

// ErrConnectionNotFound is returned by Backend.GetConnection when no
// connection record exists for the (user, provider) pair.
var ErrConnectionNotFound = errors.New("health connection not found")

// --- Persistence Interfaces ---

// TerminalSync carries the single terminal write applied to a SyncLog.
type TerminalSync struct {
	Status              types.SyncStatus
	ErrorMessage        string
	RecordsProcessed    int
	RecordsInserted     int
	RecordsDeduplicated int
	Errors              []types.SyncError
}

// Backend is the narrow boundary to the managed backend that owns
// HealthConnection, SyncLog, ActivityRecord and Goal persistence. Every
// call is all-or-nothing from the engine's perspective.
type Backend interface {
	// ConnectProvider registers (or re-activates) a connection. Idempotent upsert.
	ConnectProvider(ctx context.Context, userID, provider string, granted []types.SampleCategory) (*types.HealthConnection, error)

	// GetConnection returns the connection record or ErrConnectionNotFound.
	GetConnection(ctx context.Context, userID, provider string) (*types.HealthConnection, error)

	// DisconnectProvider clears the active flag. The record is never deleted.
	DisconnectProvider(ctx context.Context, userID, provider string) error

	// StartSync opens a SyncLog in the syncing state. Fails fast if the
	// connection is missing or inactive.
	StartSync(ctx context.Context, userID, connectionID string, syncType types.SyncType) (*types.SyncLog, error)

	// CompleteSync applies the single terminal write to an open SyncLog and
	// stamps the connection's last_sync_at on success.
	CompleteSync(ctx context.Context, userID, syncLogID string, terminal TerminalSync) error

	// UploadActivityBatch persists records idempotently keyed on
	// (user, source_external_id). Duplicates count as deduplicated.
	UploadActivityBatch(ctx context.Context, userID string, records []types.ActivityRecord) (*types.BatchUploadResult, error)

	// GetActiveGoalsForSync returns the user's currently active goals.
	GetActiveGoalsForSync(ctx context.Context, userID string) ([]types.Goal, error)

	// GetRecentActivities is the read path for UI history, ordered by
	// recorded_at descending.
	GetRecentActivities(ctx context.Context, userID string, limit, offset int) ([]types.ActivityRecord, error)

	// GetSyncHistory returns SyncLogs ordered by started_at descending.
	GetSyncHistory(ctx context.Context, userID string, limit int) ([]types.SyncLog, error)
}

// UserStore exposes the slice of the user document the engine touches:
// provider credentials (OAuth token plumbing) and device tokens.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*types.UserRecord, error)
	UpdateUser(ctx context.Context, id string, data map[string]interface{}) error
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}

// --- Notification Interfaces ---

type NotificationService interface {
	SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}
