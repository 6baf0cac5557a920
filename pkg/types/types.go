// Package types holds the canonical data model shared by the sync engine,
// the Firestore backend adapter, and the HTTP/event entry points.
package types

import "time"

// SyncType identifies what triggered a sync pass and drives the lookback window.
type SyncType string

const (
	SyncTypeBackground SyncType = "background"
	SyncTypeManual     SyncType = "manual"
	SyncTypeInitial    SyncType = "initial"
	SyncTypeCustom     SyncType = "custom"
)

// LookbackDays returns the default lookback window for a sync type.
// Custom syncs have no default; callers must supply an explicit value.
func (t SyncType) LookbackDays() int {
	switch t {
	case SyncTypeBackground:
		return 3
	case SyncTypeManual:
		return 7
	case SyncTypeInitial:
		return 30
	default:
		return 0
	}
}

// SyncStatus is the lifecycle state of a SyncLog.
type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusSyncing   SyncStatus = "syncing"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusPartial   SyncStatus = "partial"
	SyncStatusFailed    SyncStatus = "failed"
)

// Terminal reports whether the status is an end state. A SyncLog in a
// terminal state is immutable.
func (s SyncStatus) Terminal() bool {
	switch s {
	case SyncStatusCompleted, SyncStatusPartial, SyncStatusFailed:
		return true
	}
	return false
}

// ConnectionStatus is the derived state of a user's provider link.
type ConnectionStatus string

const (
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
	ConnectionStatusSyncing      ConnectionStatus = "syncing"
)

// SampleCategory classifies raw provider readings.
type SampleCategory string

const (
	CategorySteps     SampleCategory = "steps"
	CategoryDistance  SampleCategory = "distance"
	CategoryCalories  SampleCategory = "calories"
	CategoryWorkout   SampleCategory = "workout"
	CategoryHeartRate SampleCategory = "heart_rate"
)

// AllCategories is the full set requested when a connection is established.
func AllCategories() []SampleCategory {
	return []SampleCategory{
		CategorySteps,
		CategoryDistance,
		CategoryCalories,
		CategoryWorkout,
		CategoryHeartRate,
	}
}

// HealthConnection is a user's link to one provider. At most one active
// connection exists per (user, provider); the Firestore adapter enforces
// this by keying the document on the provider tag. Disconnection clears
// Active, it never deletes the record.
type HealthConnection struct {
	ID                string           `json:"id" firestore:"id"`
	UserID            string           `json:"user_id" firestore:"user_id"`
	Provider          string           `json:"provider" firestore:"provider"`
	Active            bool             `json:"active" firestore:"active"`
	LastSyncAt        *time.Time       `json:"last_sync_at,omitempty" firestore:"last_sync_at,omitempty"`
	GrantedCategories []SampleCategory `json:"granted_categories" firestore:"granted_categories"`
	CreatedAt         time.Time        `json:"created_at" firestore:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" firestore:"updated_at"`
}

// HealthSample is a raw provider reading. Samples are ephemeral: produced by
// a provider query, consumed by the transformer, never persisted as-is.
type HealthSample struct {
	SampleID       string         `json:"sample_id"`
	Category       SampleCategory `json:"category"`
	Value          float64        `json:"value"`
	Unit           string         `json:"unit"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	SourceName     string         `json:"source_name,omitempty"`
	SourceBundleID string         `json:"source_bundle_id,omitempty"`
}

// ActivityRecord is the canonical, backend-bound unit. (user,
// SourceExternalID) is unique at the backend: re-submitting the same record
// is counted as deduplicated, never as an error.
type ActivityRecord struct {
	ActivityType     string    `json:"activity_type" firestore:"activity_type"`
	Value            float64   `json:"value" firestore:"value"`
	Unit             string    `json:"unit" firestore:"unit"`
	Source           string    `json:"source" firestore:"source"`
	SourceExternalID string    `json:"source_external_id" firestore:"source_external_id"`
	RecordedAt       time.Time `json:"recorded_at" firestore:"recorded_at"`
	GoalIDs          []string  `json:"goal_ids,omitempty" firestore:"goal_ids,omitempty"`
}

// SyncError is one structured error entry carried through batch results and
// into the SyncLog. It is data, not a Go error: per-batch failures degrade
// the pass to partial instead of aborting it.
type SyncError struct {
	Batch            int    `json:"batch" firestore:"batch"`
	SourceExternalID string `json:"source_external_id,omitempty" firestore:"source_external_id,omitempty"`
	Message          string `json:"message" firestore:"message"`
}

// SyncLog is the audit record of one sync pass. Created at the start of an
// orchestration pass and written exactly once more with its terminal state.
type SyncLog struct {
	ID                  string      `json:"id" firestore:"id"`
	ConnectionID        string      `json:"connection_id" firestore:"connection_id"`
	SyncType            SyncType    `json:"sync_type" firestore:"sync_type"`
	Status              SyncStatus  `json:"status" firestore:"status"`
	StartedAt           time.Time   `json:"started_at" firestore:"started_at"`
	CompletedAt         *time.Time  `json:"completed_at,omitempty" firestore:"completed_at,omitempty"`
	ErrorMessage        string      `json:"error_message,omitempty" firestore:"error_message,omitempty"`
	RecordsProcessed    int         `json:"records_processed" firestore:"records_processed"`
	RecordsInserted     int         `json:"records_inserted" firestore:"records_inserted"`
	RecordsDeduplicated int         `json:"records_deduplicated" firestore:"records_deduplicated"`
	Errors              []SyncError `json:"errors,omitempty" firestore:"errors,omitempty"`
}

// SyncResult is the aggregate outcome returned to the caller of one sync pass.
type SyncResult struct {
	Success             bool        `json:"success"`
	RecordsProcessed    int         `json:"records_processed"`
	RecordsInserted     int         `json:"records_inserted"`
	RecordsDeduplicated int         `json:"records_deduplicated"`
	Errors              []SyncError `json:"errors,omitempty"`
}

// BatchUploadResult is the backend's answer to one uploadActivityBatch call.
type BatchUploadResult struct {
	Inserted       int         `json:"inserted"`
	Deduplicated   int         `json:"deduplicated"`
	TotalProcessed int         `json:"total_processed"`
	Errors         []SyncError `json:"errors,omitempty"`
}

// Goal is an active target or challenge entry that activity records count
// toward.
type Goal struct {
	ID           string    `json:"id" firestore:"id"`
	UserID       string    `json:"user_id" firestore:"user_id"`
	ActivityType string    `json:"activity_type" firestore:"activity_type"`
	TargetValue  float64   `json:"target_value" firestore:"target_value"`
	Unit         string    `json:"unit" firestore:"unit"`
	StartAt      time.Time `json:"start_at" firestore:"start_at"`
	EndAt        time.Time `json:"end_at" firestore:"end_at"`
	Active       bool      `json:"active" firestore:"active"`
	ChallengeID  string    `json:"challenge_id,omitempty" firestore:"challenge_id,omitempty"`
}

// DateRange is a half-open [Start, End) query window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether ts falls inside the half-open range.
func (r DateRange) Contains(ts time.Time) bool {
	return !ts.Before(r.Start) && ts.Before(r.End)
}
