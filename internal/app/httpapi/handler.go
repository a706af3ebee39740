// Package httpapi exposes the REST API: notification inbox, preference and
// subscription management, the email queue, and the entity surfaces that
// feed the fan-out engine.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	svcerr "github.com/Integral-ind/integral-backend/internal/errors"

	"github.com/Integral-ind/integral-backend/internal/app/services/calendar"
	"github.com/Integral-ind/integral-backend/internal/app/services/chat"
	"github.com/Integral-ind/integral-backend/internal/app/services/notes"
	"github.com/Integral-ind/integral-backend/internal/app/services/notifications"
	"github.com/Integral-ind/integral-backend/internal/app/services/tasks"
	"github.com/Integral-ind/integral-backend/internal/app/services/teams"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
	"github.com/Integral-ind/integral-backend/internal/app/system"
	"github.com/Integral-ind/integral-backend/internal/httputil"
	"github.com/Integral-ind/integral-backend/internal/metrics"
	"github.com/Integral-ind/integral-backend/internal/middleware"
	platform "github.com/Integral-ind/integral-backend/internal/platform/supabase"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

// Services bundles everything the API serves.
type Services struct {
	Notifications *notifications.Service
	Tasks         *tasks.Service
	Teams         *teams.Service
	Chat          *chat.Service
	Calendar      *calendar.Service
	Notes         *notes.Service
	System        *system.Monitor
	Users         *platform.AuthClient
}

// Config tunes the router's middleware chain.
type Config struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerSec int
	RateLimitBurst  int
}

type handler struct {
	svc Services
	log *logger.Logger
}

// NewRouter builds the API router with the full middleware chain.
func NewRouter(svc Services, cfg Config, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{svc: svc, log: log}

	r := mux.NewRouter()
	r.Handle("/healthz", http.HandlerFunc(h.health)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	if svc.Users != nil {
		api.HandleFunc("/me", h.me).Methods(http.MethodGet)
	}

	// Notifications.
	api.HandleFunc("/notifications", h.listNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/unread-count", h.unreadCount).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", h.markAllRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}/read", h.markRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/preferences", h.getPreferences).Methods(http.MethodGet)
	api.HandleFunc("/notifications/preferences", h.putPreferences).Methods(http.MethodPut)
	api.HandleFunc("/notifications/subscriptions", h.registerSubscription).Methods(http.MethodPost)
	api.HandleFunc("/notifications/subscriptions", h.listSubscriptions).Methods(http.MethodGet)
	api.HandleFunc("/notifications/subscriptions/{id}", h.removeSubscription).Methods(http.MethodDelete)
	api.HandleFunc("/notifications/emails/{id}", h.getEmail).Methods(http.MethodGet)
	api.HandleFunc("/notifications/emails/{id}/cancel", h.cancelEmail).Methods(http.MethodPost)

	// Tasks.
	api.HandleFunc("/tasks", h.createTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks", h.listTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", h.getTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", h.updateTask).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id}", h.deleteTask).Methods(http.MethodDelete)

	// Teams and invites.
	api.HandleFunc("/teams", h.createTeam).Methods(http.MethodPost)
	api.HandleFunc("/teams", h.listTeams).Methods(http.MethodGet)
	api.HandleFunc("/teams/{id}", h.getTeam).Methods(http.MethodGet)
	api.HandleFunc("/teams/{id}/members", h.listMembers).Methods(http.MethodGet)
	api.HandleFunc("/teams/{id}/invites", h.createInvite).Methods(http.MethodPost)
	api.HandleFunc("/invites/{id}/accept", h.acceptInvite).Methods(http.MethodPost)
	api.HandleFunc("/invites/{id}/decline", h.declineInvite).Methods(http.MethodPost)

	// Chat and calls.
	api.HandleFunc("/conversations", h.createConversation).Methods(http.MethodPost)
	api.HandleFunc("/conversations", h.listConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/messages", h.sendMessage).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/messages", h.listMessages).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/calls", h.ringCall).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/calls/missed", h.missCall).Methods(http.MethodPost)

	// Calendar.
	api.HandleFunc("/events", h.createEvent).Methods(http.MethodPost)
	api.HandleFunc("/events", h.listEvents).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}", h.getEvent).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}", h.updateEvent).Methods(http.MethodPut)
	api.HandleFunc("/events/{id}", h.deleteEvent).Methods(http.MethodDelete)

	// Notes.
	api.HandleFunc("/notes", h.createNote).Methods(http.MethodPost)
	api.HandleFunc("/notes", h.listNotes).Methods(http.MethodGet)
	api.HandleFunc("/notes/{id}", h.getNote).Methods(http.MethodGet)
	api.HandleFunc("/notes/{id}", h.updateNote).Methods(http.MethodPut)
	api.HandleFunc("/notes/{id}", h.deleteNote).Methods(http.MethodDelete)
	api.HandleFunc("/notes/{id}/share", h.shareNote).Methods(http.MethodPost)

	auth := middleware.NewAuthMiddleware(cfg.JWTSecret, log, []string{"/healthz", "/metrics"})
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst, log)
	cors := middleware.NewCORSMiddleware(cfg.AllowedOrigins)
	reqID := middleware.NewRequestIDMiddleware(log)

	var chain http.Handler = r
	chain = limiter.Handler(chain)
	chain = auth.Handler(chain)
	chain = cors.Handler(chain)
	chain = metrics.InstrumentHandler(chain)
	chain = reqID.Handler(chain)
	return chain
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.svc.System == nil {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.svc.System.Health(r.Context()))
}

// me resolves the caller's platform account from the bearer token.
func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Users.GetUser(r.Context(), middleware.GetAccessToken(r.Context()))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// decodeJSON reads the body into v, rejecting oversized payloads.
func decodeJSON(body io.Reader, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (h *handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteErrorResponse(w, r, http.StatusNotFound, string(svcerr.CodeNotFound), "not found", nil)
		return
	}
	if se := svcerr.GetServiceError(err); se != nil {
		httputil.WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
		return
	}
	h.log.WithError(err).Error("request failed")
	httputil.WriteErrorResponse(w, r, http.StatusInternalServerError, string(svcerr.CodeInternal), "internal error", nil)
}

func userID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
