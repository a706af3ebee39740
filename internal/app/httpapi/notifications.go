package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/httputil"
)

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	rows, err := h.svc.Notifications.List(r.Context(), userID(r), unreadOnly, limit, offset)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": rows})
}

func (h *handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Notifications.UnreadCount(r.Context(), userID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.Notifications.MarkRead(r.Context(), userID(r), id); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Notifications.MarkAllRead(r.Context(), userID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"marked": n})
}

type preferencesPayload struct {
	InApp   map[notification.Type]bool `json:"in_app"`
	Push    map[notification.Type]bool `json:"push"`
	Email   map[notification.Type]bool `json:"email"`
	MuteAll bool                       `json:"mute_all"`
}

func (h *handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	pref, err := h.svc.Notifications.Preferences().Get(r.Context(), userID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, preferencesPayload{
		InApp:   pref.InApp,
		Push:    pref.Push,
		Email:   pref.Email,
		MuteAll: pref.MuteAll,
	})
}

func (h *handler) putPreferences(w http.ResponseWriter, r *http.Request) {
	var payload preferencesPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	pref, err := h.svc.Notifications.Preferences().Update(r.Context(), notification.Preference{
		UserID:  userID(r),
		InApp:   payload.InApp,
		Push:    payload.Push,
		Email:   payload.Email,
		MuteAll: payload.MuteAll,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, preferencesPayload{
		InApp:   pref.InApp,
		Push:    pref.Push,
		Email:   pref.Email,
		MuteAll: pref.MuteAll,
	})
}

type subscriptionPayload struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256DH string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	UserAgent string `json:"user_agent,omitempty"`
}

func (h *handler) registerSubscription(w http.ResponseWriter, r *http.Request) {
	var payload subscriptionPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	ua := payload.UserAgent
	if ua == "" {
		ua = r.UserAgent()
	}
	sub, err := h.svc.Notifications.RegisterSubscription(r.Context(), notification.PushSubscription{
		UserID:    userID(r),
		Endpoint:  payload.Endpoint,
		P256DH:    payload.Keys.P256DH,
		Auth:      payload.Keys.Auth,
		UserAgent: ua,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sub)
}

func (h *handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.Notifications.ListSubscriptions(r.Context(), userID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

func (h *handler) removeSubscription(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.Notifications.RemoveSubscription(r.Context(), userID(r), id); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) getEmail(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Notifications.Emails().Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func (h *handler) cancelEmail(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Notifications.Emails().Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}
