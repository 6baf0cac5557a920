package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	shared "github.com/stridewell/healthsync/pkg"
	"github.com/stridewell/healthsync/pkg/bootstrap"
	"github.com/stridewell/healthsync/pkg/connection"
	infrapubsub "github.com/stridewell/healthsync/pkg/infrastructure/pubsub"
	"github.com/stridewell/healthsync/pkg/provider"
	syncengine "github.com/stridewell/healthsync/pkg/sync"
	"github.com/stridewell/healthsync/pkg/types"
)

// Server exposes the sync engine over REST. Connection lifecycle calls run
// inline; sync requests are published and executed by the sync-runner
// function.
type Server struct {
	svc    *bootstrap.Service
	logger *slog.Logger

	// newProvider is swappable in tests.
	newProvider func(tag, userID string) (provider.HealthProvider, error)
}

func NewServer(svc *bootstrap.Service, logger *slog.Logger) *Server {
	return &Server{
		svc:         svc,
		logger:      logger.With("component", "api"),
		newProvider: provider.New,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Route("/providers/{provider}", func(r chi.Router) {
			r.Post("/connect", s.handleConnect)
			r.Post("/disconnect", s.handleDisconnect)
			r.Get("/status", s.handleStatus)
			r.Post("/sync", s.handleRequestSync)
		})
		r.Get("/activities", s.handleActivities)
		r.Get("/syncs", s.handleSyncHistory)
	})

	return r
}

// manager builds a connection.Manager bound to the request's user and
// provider. The inline syncer covers the initial sync after connect.
func (s *Server) manager(tag, userID string) (*connection.Manager, error) {
	p, err := s.newProvider(tag, userID)
	if err != nil {
		return nil, err
	}
	syncer := syncengine.NewOrchestrator(s.svc.DB, p, s.logger)
	return connection.NewManager(s.svc.DB, p, syncer, s.logger), nil
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	tag := chi.URLParam(r, "provider")

	m, err := s.manager(tag, userID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	conn, err := m.Connect(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrProviderUnavailable):
			s.writeError(w, http.StatusServiceUnavailable, err)
		case errors.Is(err, provider.ErrNoPermissionsGranted):
			s.writeError(w, http.StatusForbidden, err)
		default:
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	s.writeJSON(w, http.StatusCreated, conn)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	tag := chi.URLParam(r, "provider")

	m, err := s.manager(tag, userID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	if err := m.Disconnect(r.Context(), userID); err != nil {
		if errors.Is(err, shared.ErrConnectionNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	tag := chi.URLParam(r, "provider")

	m, err := s.manager(tag, userID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	info, err := m.Status(r.Context(), userID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, info)
}

type syncRequest struct {
	SyncType     types.SyncType `json:"sync_type"`
	LookbackDays int            `json:"lookback_days"`
}

// handleRequestSync publishes a sync.requested event. The pass itself runs
// in the sync-runner function, so the API answers 202 immediately.
func (s *Server) handleRequestSync(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	tag := chi.URLParam(r, "provider")

	var req syncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.SyncType == "" {
		req.SyncType = types.SyncTypeManual
	}

	e, err := infrapubsub.NewCloudEvent(infrapubsub.EventSourceAPI, infrapubsub.EventTypeSyncRequested, infrapubsub.SyncRequestedPayload{
		UserID:       userID,
		Provider:     tag,
		SyncType:     req.SyncType,
		LookbackDays: req.LookbackDays,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	msgID, err := s.svc.Pub.PublishCloudEvent(r.Context(), shared.TopicSyncRequested, e)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"message_id": msgID,
		"status":     "requested",
	})
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	activities, err := s.svc.DB.GetRecentActivities(r.Context(), userID, limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if activities == nil {
		activities = []types.ActivityRecord{}
	}

	s.writeJSON(w, http.StatusOK, activities)
}

func (s *Server) handleSyncHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := queryInt(r, "limit", 10)

	logs, err := s.svc.DB.GetSyncHistory(r.Context(), userID, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if logs == nil {
		logs = []types.SyncLog{}
	}

	s.writeJSON(w, http.StatusOK, logs)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("Request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
