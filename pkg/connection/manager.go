// Package connection owns the lifecycle of a user's provider connection:
// connect, disconnect, and status derivation. Status is always a fresh
// derivation over backend state. Nothing is cached here, so there is no
// staleness to manage, at the cost of a couple of extra reads per check.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	shared "github.com/stridewell/healthsync/pkg"
	"github.com/stridewell/healthsync/pkg/provider"
	syncengine "github.com/stridewell/healthsync/pkg/sync"
	"github.com/stridewell/healthsync/pkg/types"
)

// DisconnectError surfaces the backend's rejection of a deactivation,
// message carried verbatim.
type DisconnectError struct {
	Err error
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("disconnect failed: %v", e.Err)
}

func (e *DisconnectError) Unwrap() error {
	return e.Err
}

// Syncer runs one sync pass. Satisfied by *sync.Orchestrator.
type Syncer interface {
	Sync(ctx context.Context, userID string, opts syncengine.Options) (*types.SyncResult, error)
}

// StatusInfo is the derived connection state returned to the UI layer.
type StatusInfo struct {
	Status     types.ConnectionStatus  `json:"status"`
	Connection *types.HealthConnection `json:"connection,omitempty"`
	LastSync   *time.Time              `json:"last_sync,omitempty"`
}

// Manager wires one provider to the backend connection records.
type Manager struct {
	backend  shared.Backend
	provider provider.HealthProvider
	syncer   Syncer
	logger   *slog.Logger

	// syncHistoryDepth bounds how many recent logs the status derivation
	// inspects for an in-flight pass. A non-terminal log pushed past this
	// window by newer completed passes stops surfacing as syncing.
	syncHistoryDepth int

	// initialSyncTimeout bounds the detached initial sync after connect.
	initialSyncTimeout time.Duration
}

func NewManager(backend shared.Backend, p provider.HealthProvider, syncer Syncer, logger *slog.Logger) *Manager {
	return &Manager{
		backend:            backend,
		provider:           p,
		syncer:             syncer,
		logger:             logger.With("component", "connection"),
		syncHistoryDepth:   20,
		initialSyncTimeout: 5 * time.Minute,
	}
}

// Status derives the connection state from backend reads at call time.
// The syncing state is advisory for UI, not a lock.
func (m *Manager) Status(ctx context.Context, userID string) (*StatusInfo, error) {
	disconnected := &StatusInfo{Status: types.ConnectionStatusDisconnected}

	if userID == "" {
		return disconnected, nil
	}
	if !m.provider.IsAvailable(ctx) {
		return disconnected, nil
	}

	conn, err := m.backend.GetConnection(ctx, userID, m.provider.Name())
	if err != nil {
		if errors.Is(err, shared.ErrConnectionNotFound) {
			return disconnected, nil
		}
		return nil, fmt.Errorf("get connection: %w", err)
	}
	if !conn.Active {
		return disconnected, nil
	}

	info := &StatusInfo{
		Status:     types.ConnectionStatusConnected,
		Connection: conn,
		LastSync:   conn.LastSyncAt,
	}

	logs, err := m.backend.GetSyncHistory(ctx, userID, m.syncHistoryDepth)
	if err != nil {
		return nil, fmt.Errorf("get sync history: %w", err)
	}
	for _, l := range logs {
		if l.ConnectionID == conn.ID && !l.Status.Terminal() {
			info.Status = types.ConnectionStatusSyncing
			break
		}
	}

	return info, nil
}

// Connect establishes the connection: availability check, authorization for
// the full category set, idempotent backend registration, then a
// best-effort initial sync. The connection is established once registered;
// the initial sync runs detached and its failure is only logged.
func (m *Manager) Connect(ctx context.Context, userID string) (*types.HealthConnection, error) {
	if !m.provider.IsAvailable(ctx) {
		return nil, provider.ErrProviderUnavailable
	}

	granted, err := m.provider.RequestAuthorization(ctx, types.AllCategories())
	if err != nil {
		return nil, fmt.Errorf("request authorization: %w", err)
	}
	if len(granted) == 0 {
		return nil, provider.ErrNoPermissionsGranted
	}

	conn, err := m.backend.ConnectProvider(ctx, userID, m.provider.Name(), granted)
	if err != nil {
		return nil, fmt.Errorf("register connection: %w", err)
	}

	m.logger.Info("Connection established", "user_id", userID, "provider", m.provider.Name(), "granted", len(granted))

	if m.syncer != nil {
		go m.runInitialSync(userID)
	}

	return conn, nil
}

// runInitialSync is the detached best-effort first sync. It deliberately
// uses a fresh context: the caller of Connect has already returned.
func (m *Manager) runInitialSync(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.initialSyncTimeout)
	defer cancel()

	if _, err := m.syncer.Sync(ctx, userID, syncengine.Options{Type: types.SyncTypeInitial}); err != nil {
		m.logger.Warn("Initial sync after connect failed", "user_id", userID, "provider", m.provider.Name(), "error", err)
	}
}

// Disconnect deactivates the connection. The record survives as an inactive
// row; reconnecting later re-activates it.
func (m *Manager) Disconnect(ctx context.Context, userID string) error {
	if err := m.backend.DisconnectProvider(ctx, userID, m.provider.Name()); err != nil {
		return &DisconnectError{Err: err}
	}
	m.logger.Info("Connection deactivated", "user_id", userID, "provider", m.provider.Name())
	return nil
}
