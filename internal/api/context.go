package api

import (
	"context"
	"net/http"

	"github.com/amterp/postdeck/internal/id"
	"github.com/amterp/postdeck/internal/session"
)

// SessionCookie holds the browser's session id.
const SessionCookie = "postdeck_session"

type ctxKey int

const (
	requestIDKey ctxKey = iota
)

func withRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

// RequestID returns the id the Logging middleware assigned to the request.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// currentSession resolves the request's session, starting a new one (and setting
// the cookie) when the request has none or an expired one.
func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) *session.Session {
	var sid string
	if c, err := r.Cookie(SessionCookie); err == nil && id.Valid(c.Value) {
		sid = c.Value
	}

	s, created := h.manager.GetOrCreate(sid)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    s.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		h.logger.Debug().Str("request_id", RequestID(r.Context())).Str("session", s.ID()).Msg("new session")
	}
	return s
}
