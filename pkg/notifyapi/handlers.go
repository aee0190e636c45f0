package notifyapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/windlogs/notifykit/pkg/logger"
	"github.com/windlogs/notifykit/pkg/notifications"
	"github.com/windlogs/notifykit/pkg/session"
)

// StatusView is the reply of GET /status.
type StatusView struct {
	Connected bool   `json:"connected"`
	State     string `json:"state"`
	Attempts  int    `json:"attempts"`
	Identity  string `json:"identity,omitempty"`
	Tenant    string `json:"tenant,omitempty"`
	Unread    int    `json:"unread"`
}

// SessionView is the reply of GET /session. The token is never echoed.
type SessionView struct {
	Email    string `json:"email,omitempty"`
	Tenant   string `json:"tenant,omitempty"`
	HasToken bool   `json:"hasToken"`
}

// PrivateRequest is the body of POST /notifications/private.
type PrivateRequest struct {
	Recipient    string               `json:"recipient"`
	Notification notifications.Record `json:"notification"`
}

type sentView struct {
	Sent bool `json:"sent"`
}

type changedView struct {
	Changed int `json:"changed"`
}

type unreadView struct {
	Unread int `json:"unread"`
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	cur := a.session.Current()
	state := ""
	if st := a.conn.State(); st != nil {
		state = st.Name()
	}
	writeJSON(w, r, http.StatusOK, StatusView{
		Connected: a.conn.Connected(),
		State:     state,
		Attempts:  a.conn.Attempts(),
		Identity:  cur.Email,
		Tenant:    cur.Tenant,
		Unread:    a.notifications.UnreadCount(),
	})
}

// connect starts over with a fresh retry budget, the way a reload would after
// the reconnect ceiling was reached.
func (a *API) connect(w http.ResponseWriter, r *http.Request) {
	email := a.session.Current().Email
	if email == "" {
		writeError(w, r, http.StatusConflict, "no_session", "no session context to connect with")
		return
	}
	a.conn.Disconnect()
	a.conn.Connect(email)
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) disconnect(w http.ResponseWriter, r *http.Request) {
	a.conn.Disconnect()
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	cur := a.session.Current()
	writeJSON(w, r, http.StatusOK, SessionView{
		Email:    cur.Email,
		Tenant:   cur.Tenant,
		HasToken: cur.Token != "",
	})
}

func (a *API) putSession(w http.ResponseWriter, r *http.Request) {
	var c session.Context
	if !decodeBody(w, r, &c) {
		return
	}
	if err := a.session.Set(r.Context(), c); err != nil {
		if errors.Is(err, session.ErrInvalidContext) {
			writeError(w, r, http.StatusUnprocessableEntity, "invalid_session", err.Error())
			return
		}
		a.logger.ErrorContext(r.Context(), "failed to store session context", logger.Error(err))
		writeError(w, r, http.StatusInternalServerError, "session_store", "failed to store session context")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.session.Clear(r.Context()); err != nil {
		a.logger.ErrorContext(r.Context(), "failed to clear session context", logger.Error(err))
		writeError(w, r, http.StatusInternalServerError, "session_store", "failed to clear session context")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, a.notifications.Records())
}

func (a *API) unread(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, a.notifications.FetchUnread(r.Context()))
}

func (a *API) unreadCount(w http.ResponseWriter, r *http.Request) {
	if strings.EqualFold(r.URL.Query().Get("source"), "remote") {
		writeJSON(w, r, http.StatusOK, unreadView{Unread: a.notifications.FetchUnreadCount(r.Context())})
		return
	}
	writeJSON(w, r, http.StatusOK, unreadView{Unread: a.notifications.UnreadCount()})
}

func (a *API) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_id", "notification id must be an integer")
		return
	}
	changed := 0
	if a.notifications.MarkRead(r.Context(), id) {
		changed = 1
	}
	writeJSON(w, r, http.StatusOK, changedView{Changed: changed})
}

func (a *API) markAllRead(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, changedView{Changed: a.notifications.MarkAllRead(r.Context())})
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, a.notifications.FetchAll(r.Context(), a.session.Current().Email))
}

func (a *API) send(w http.ResponseWriter, r *http.Request) {
	var rec notifications.Record
	if !decodeBody(w, r, &rec) {
		return
	}
	if !a.notifications.Send(r.Context(), rec) {
		writeError(w, r, http.StatusServiceUnavailable, "not_published", "broker connection is not available")
		return
	}
	writeJSON(w, r, http.StatusAccepted, sentView{Sent: true})
}

func (a *API) sendPrivate(w http.ResponseWriter, r *http.Request) {
	var req PrivateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid_recipient", "recipient is required")
		return
	}
	if !a.notifications.SendPrivate(r.Context(), req.Notification, recipient) {
		writeError(w, r, http.StatusServiceUnavailable, "not_published", "broker connection is not available")
		return
	}
	writeJSON(w, r, http.StatusAccepted, sentView{Sent: true})
}

func (a *API) persist(w http.ResponseWriter, r *http.Request) {
	var rec notifications.Record
	if !decodeBody(w, r, &rec) {
		return
	}
	created, err := a.notifications.Persist(r.Context(), rec)
	if err != nil {
		if errors.Is(err, notifications.ErrNoBackend) {
			writeError(w, r, http.StatusServiceUnavailable, "no_backend", err.Error())
			return
		}
		writeError(w, r, http.StatusBadGateway, "persist_failed", err.Error())
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}
