package mocks

import (
	"context"
	"fmt"

	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/stridewell/healthsync/pkg"
	"github.com/stridewell/healthsync/pkg/types"
)

// --- Mock Backend ---

type MockBackend struct {
	ConnectProviderFunc       func(ctx context.Context, userID, provider string, granted []types.SampleCategory) (*types.HealthConnection, error)
	GetConnectionFunc         func(ctx context.Context, userID, provider string) (*types.HealthConnection, error)
	DisconnectProviderFunc    func(ctx context.Context, userID, provider string) error
	StartSyncFunc             func(ctx context.Context, userID, connectionID string, syncType types.SyncType) (*types.SyncLog, error)
	CompleteSyncFunc          func(ctx context.Context, userID, syncLogID string, terminal shared.TerminalSync) error
	UploadActivityBatchFunc   func(ctx context.Context, userID string, records []types.ActivityRecord) (*types.BatchUploadResult, error)
	GetActiveGoalsForSyncFunc func(ctx context.Context, userID string) ([]types.Goal, error)
	GetRecentActivitiesFunc   func(ctx context.Context, userID string, limit, offset int) ([]types.ActivityRecord, error)
	GetSyncHistoryFunc        func(ctx context.Context, userID string, limit int) ([]types.SyncLog, error)
}

func (m *MockBackend) ConnectProvider(ctx context.Context, userID, provider string, granted []types.SampleCategory) (*types.HealthConnection, error) {
	if m.ConnectProviderFunc != nil {
		return m.ConnectProviderFunc(ctx, userID, provider, granted)
	}
	return &types.HealthConnection{ID: "mock-conn", UserID: userID, Provider: provider, Active: true}, nil
}

func (m *MockBackend) GetConnection(ctx context.Context, userID, provider string) (*types.HealthConnection, error) {
	if m.GetConnectionFunc != nil {
		return m.GetConnectionFunc(ctx, userID, provider)
	}
	return nil, shared.ErrConnectionNotFound
}

func (m *MockBackend) DisconnectProvider(ctx context.Context, userID, provider string) error {
	if m.DisconnectProviderFunc != nil {
		return m.DisconnectProviderFunc(ctx, userID, provider)
	}
	return nil
}

func (m *MockBackend) StartSync(ctx context.Context, userID, connectionID string, syncType types.SyncType) (*types.SyncLog, error) {
	if m.StartSyncFunc != nil {
		return m.StartSyncFunc(ctx, userID, connectionID, syncType)
	}
	return &types.SyncLog{ID: "mock-log", ConnectionID: connectionID, SyncType: syncType, Status: types.SyncStatusSyncing}, nil
}

func (m *MockBackend) CompleteSync(ctx context.Context, userID, syncLogID string, terminal shared.TerminalSync) error {
	if m.CompleteSyncFunc != nil {
		return m.CompleteSyncFunc(ctx, userID, syncLogID, terminal)
	}
	return nil
}

func (m *MockBackend) UploadActivityBatch(ctx context.Context, userID string, records []types.ActivityRecord) (*types.BatchUploadResult, error) {
	if m.UploadActivityBatchFunc != nil {
		return m.UploadActivityBatchFunc(ctx, userID, records)
	}
	return &types.BatchUploadResult{TotalProcessed: len(records), Inserted: len(records)}, nil
}

func (m *MockBackend) GetActiveGoalsForSync(ctx context.Context, userID string) ([]types.Goal, error) {
	if m.GetActiveGoalsForSyncFunc != nil {
		return m.GetActiveGoalsForSyncFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockBackend) GetRecentActivities(ctx context.Context, userID string, limit, offset int) ([]types.ActivityRecord, error) {
	if m.GetRecentActivitiesFunc != nil {
		return m.GetRecentActivitiesFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *MockBackend) GetSyncHistory(ctx context.Context, userID string, limit int) ([]types.SyncLog, error) {
	if m.GetSyncHistoryFunc != nil {
		return m.GetSyncHistoryFunc(ctx, userID, limit)
	}
	return nil, nil
}

// --- Mock UserStore ---

type MockUserStore struct {
	GetUserFunc    func(ctx context.Context, id string) (*types.UserRecord, error)
	UpdateUserFunc func(ctx context.Context, id string, data map[string]interface{}) error
}

func (m *MockUserStore) GetUser(ctx context.Context, id string) (*types.UserRecord, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, fmt.Errorf("user not found")
}

func (m *MockUserStore) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, id, data)
	}
	return nil
}

// --- Mock Publisher ---

type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock Storage ---

type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
	ReadFunc  func(ctx context.Context, bucket, object string) ([]byte, error)
	ListFunc  func(ctx context.Context, bucket, prefix string) ([]string, error)
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}

func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return []byte("mock-data"), nil
}

func (m *MockBlobStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, bucket, prefix)
	}
	return nil, nil
}

// --- Mock Notifications ---

type MockNotificationService struct {
	SendPushNotificationFunc func(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
	Sent                     []string
}

func (m *MockNotificationService) SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
	m.Sent = append(m.Sent, title)
	if m.SendPushNotificationFunc != nil {
		return m.SendPushNotificationFunc(ctx, userID, title, body, tokens, data)
	}
	return nil
}
