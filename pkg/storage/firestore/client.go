package firestore

import (
	"cloud.google.com/go/firestore"

	shared "github.com/stridewell/healthsync/pkg"
	"github.com/stridewell/healthsync/pkg/types"
)

// Client exposes the typed collections of the sync engine's Firestore
// layout. Connection, sync-log, activity and goal documents all live under
// the owning user: users/{uid}/<collection>/{id}.
type Client struct {
	fs *firestore.Client
}

func NewClient(client *firestore.Client) *Client {
	return &Client{fs: client}
}

func (c *Client) Close() error {
	return c.fs.Close()
}

func (c *Client) Users() *Collection[types.UserRecord] {
	return &Collection[types.UserRecord]{
		Ref: c.fs.Collection(shared.CollectionUsers),
	}
}

// Connections are keyed by provider tag: users/{uid}/connections/{provider}.
// The document ID enforces "at most one connection per (user, provider)".
func (c *Client) Connections(userId string) *Collection[types.HealthConnection] {
	return &Collection[types.HealthConnection]{
		Ref: c.fs.Collection(shared.CollectionUsers).Doc(userId).Collection(shared.CollectionConnections),
	}
}

// SyncLogs: users/{uid}/synclogs/{id}.
func (c *Client) SyncLogs(userId string) *Collection[types.SyncLog] {
	return &Collection[types.SyncLog]{
		Ref: c.fs.Collection(shared.CollectionUsers).Doc(userId).Collection(shared.CollectionSyncLogs),
	}
}

// Activities are keyed by source_external_id:
// users/{uid}/activities/{source_external_id}. The document ID is the
// deduplication key: Create on an existing ID is how a duplicate upload is
// detected.
func (c *Client) Activities(userId string) *Collection[types.ActivityRecord] {
	return &Collection[types.ActivityRecord]{
		Ref: c.fs.Collection(shared.CollectionUsers).Doc(userId).Collection(shared.CollectionActivities),
	}
}

// Goals: users/{uid}/goals/{id}.
func (c *Client) Goals(userId string) *Collection[types.Goal] {
	return &Collection[types.Goal]{
		Ref: c.fs.Collection(shared.CollectionUsers).Doc(userId).Collection(shared.CollectionGoals),
	}
}
