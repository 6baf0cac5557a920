package syncrunner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/stridewell/healthsync/pkg"
	"github.com/stridewell/healthsync/pkg/bootstrap"
	"github.com/stridewell/healthsync/pkg/framework"
	infrapubsub "github.com/stridewell/healthsync/pkg/infrastructure/pubsub"
	"github.com/stridewell/healthsync/pkg/provider"
	syncengine "github.com/stridewell/healthsync/pkg/sync"
	"github.com/stridewell/healthsync/pkg/types"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.CloudEvent("RunSync", RunSync)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		baseSvc, err := bootstrap.NewService(ctx)
		if err != nil {
			slog.Error("Failed to initialize service", "error", err)
			svcErr = err
			return
		}
		svc = baseSvc
	})
	return svc, svcErr
}

// RunSync is the entry point
func RunSync(ctx context.Context, e event.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent("sync-runner", svc, syncHandler(nil))(ctx, e)
}

// syncHandler contains the business logic
// healthProvider can be injected for testing; if nil, resolved from the registry
func syncHandler(healthProvider provider.HealthProvider) framework.HandlerFunc {
	return func(ctx context.Context, e event.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
		// Parse Pub/Sub message
		var msg types.PubSubMessage
		if err := e.DataAs(&msg); err != nil {
			return nil, fmt.Errorf("event.DataAs: %v", err)
		}

		var payload infrapubsub.SyncRequestedPayload
		if err := json.Unmarshal(msg.Message.Data, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal sync request: %v", err)
		}
		if payload.UserID == "" || payload.Provider == "" {
			return nil, fmt.Errorf("sync request missing user_id or provider")
		}
		if payload.SyncType == "" {
			payload.SyncType = types.SyncTypeManual
		}

		fwCtx.Logger.Info("Starting sync", "provider", payload.Provider, "sync_type", payload.SyncType)

		if healthProvider == nil {
			var err error
			healthProvider, err = provider.New(payload.Provider, payload.UserID)
			if err != nil {
				return nil, err
			}
		}

		orchestrator := syncengine.NewOrchestrator(fwCtx.Service.DB, healthProvider, fwCtx.Logger)
		result, err := orchestrator.Sync(ctx, payload.UserID, syncengine.Options{
			Type:         payload.SyncType,
			LookbackDays: payload.LookbackDays,
		})
		if err != nil {
			publishOutcome(ctx, fwCtx, shared.TopicSyncFailed, infrapubsub.EventTypeSyncFailed, infrapubsub.SyncFinishedPayload{
				UserID:   payload.UserID,
				Provider: payload.Provider,
				Status:   types.SyncStatusFailed,
				Error:    err.Error(),
			})
			return nil, err
		}

		status := types.SyncStatusCompleted
		if !result.Success {
			status = types.SyncStatusPartial
		}
		publishOutcome(ctx, fwCtx, shared.TopicSyncCompleted, infrapubsub.EventTypeSyncCompleted, infrapubsub.SyncFinishedPayload{
			UserID:   payload.UserID,
			Provider: payload.Provider,
			Status:   status,
			Result:   result,
		})

		notifyUser(ctx, fwCtx, payload.UserID, payload.Provider, result)

		return map[string]interface{}{
			"status":       string(status),
			"provider":     payload.Provider,
			"processed":    result.RecordsProcessed,
			"inserted":     result.RecordsInserted,
			"deduplicated": result.RecordsDeduplicated,
			"batch_errors": len(result.Errors),
		}, nil
	}
}

// publishOutcome is best effort; a publish failure never changes the pass outcome.
func publishOutcome(ctx context.Context, fwCtx *framework.FrameworkContext, topic, eventType string, payload infrapubsub.SyncFinishedPayload) {
	outcome, err := infrapubsub.NewCloudEvent(infrapubsub.EventSourceSyncRunner, eventType, payload)
	if err != nil {
		fwCtx.Logger.Warn("Failed to build outcome event", "error", err)
		return
	}
	if _, err := fwCtx.Service.Pub.PublishCloudEvent(ctx, topic, outcome); err != nil {
		fwCtx.Logger.Warn("Failed to publish outcome event", "topic", topic, "error", err)
	}
}

// notifyUser pushes a summary when new activities landed.
func notifyUser(ctx context.Context, fwCtx *framework.FrameworkContext, userID, providerTag string, result *types.SyncResult) {
	if fwCtx.Service.Notify == nil || result.RecordsInserted == 0 {
		return
	}

	user, err := fwCtx.Service.Users.GetUser(ctx, userID)
	if err != nil {
		fwCtx.Logger.Warn("Failed to load user for notification", "error", err)
		return
	}

	title := "Sync complete"
	body := fmt.Sprintf("%d new activities from %s", result.RecordsInserted, providerTag)
	if err := fwCtx.Service.Notify.SendPushNotification(ctx, userID, title, body, user.DeviceTokens, map[string]string{
		"provider": providerTag,
	}); err != nil {
		fwCtx.Logger.Warn("Failed to send push notification", "error", err)
	}
}
