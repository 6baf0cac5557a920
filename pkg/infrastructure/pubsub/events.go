package pubsub

import (
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/stridewell/healthsync/pkg/types"
)

// SyncRequestedPayload is the data carried by a sync.requested event.
type SyncRequestedPayload struct {
	UserID       string         `json:"user_id"`
	Provider     string         `json:"provider"`
	SyncType     types.SyncType `json:"sync_type"`
	LookbackDays int            `json:"lookback_days,omitempty"`
}

// SyncFinishedPayload is the data carried by sync.completed and sync.failed events.
type SyncFinishedPayload struct {
	UserID   string            `json:"user_id"`
	Provider string            `json:"provider"`
	SyncLog  string            `json:"sync_log_id"`
	Status   types.SyncStatus  `json:"status"`
	Result   *types.SyncResult `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// NewCloudEvent creates a standardized CloudEvent v1.0
func NewCloudEvent(source, eventType string, data interface{}) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetSpecVersion("1.0")
	e.SetType(eventType)
	e.SetSource(source)

	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return e, err
	}

	return e, nil
}
