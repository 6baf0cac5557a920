package framework

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/google/uuid"

	"github.com/stridewell/healthsync/pkg/bootstrap"
	"github.com/stridewell/healthsync/pkg/infrastructure/sentry"
	"github.com/stridewell/healthsync/pkg/types"
)

// FrameworkContext contains dependencies injected by the framework
type FrameworkContext struct {
	Service      *bootstrap.Service
	Logger       *slog.Logger
	InvocationID string
}

// HandlerFunc is the signature for a cloud function handler
type HandlerFunc func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error)

// WrapCloudEvent wraps a handler with logger construction and error capture.
// Handles both HTTP and Pub/Sub triggers.
func WrapCloudEvent(serviceName string, svc *bootstrap.Service, handler HandlerFunc) func(context.Context, event.Event) error {
	return func(ctx context.Context, e event.Event) error {
		userID := extractEventMetadata(e)

		triggerType := "pubsub"
		if e.Type() == "google.cloud.functions.http" {
			triggerType = "http"
		}

		logLevelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
		var logLevel slog.Level
		switch logLevelStr {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}

		invocationID := uuid.New().String()

		opts := bootstrap.GetSlogHandlerOptions(logLevel)
		logger := slog.New(slog.NewJSONHandler(os.Stdout, opts)).With(
			"service", serviceName,
			"invocation_id", invocationID,
			"trigger", triggerType,
		)
		if userID != "" {
			logger = logger.With("user_id", userID)
		}

		logger.Info("Function started")

		fwCtx := &FrameworkContext{
			Service:      svc,
			Logger:       logger,
			InvocationID: invocationID,
		}

		defer sentry.RecoverAndCapture(logger)

		outputs, handlerErr := handler(ctx, e, fwCtx)

		if handlerErr != nil {
			logger.Error("Function failed", "error", handlerErr)
			sentry.CaptureException(handlerErr, map[string]interface{}{
				"service":       serviceName,
				"invocation_id": invocationID,
				"user_id":       userID,
				"outputs":       outputs,
			}, logger)
			sentry.Flush(2 * time.Second)
			return handlerErr
		}

		logger.Info("Function completed successfully")
		return nil
	}
}

// extractEventMetadata pulls the user_id out of a Pub/Sub message payload
// so every log line from the invocation carries it.
func extractEventMetadata(e event.Event) (userID string) {
	var msg types.PubSubMessage
	if err := e.DataAs(&msg); err != nil {
		return ""
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Message.Data, &payload); err != nil {
		return ""
	}
	if uid, ok := payload["user_id"].(string); ok {
		userID = uid
	}
	return userID
}
