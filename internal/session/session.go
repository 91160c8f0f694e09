// Package session carries the authenticated caller explicitly through
// every service call instead of a process-wide "current user".
package session

import (
	"context"
	"crewfinder/backend/internal/config"
	"strings"
)

// Session is the verified identity behind a request. It is built from a
// signed token by the auth package and never from client-supplied fields.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
	Role        string
}

// Name returns the display name, then the email local part, then
// config.UnknownDisplayName.
func (s Session) Name() string {
	return DisplayName(s.DisplayName, s.Email)
}

func (s Session) IsAdmin() bool {
	return s.Role == config.RoleAdmin
}

func (s Session) Valid() bool {
	return s.UserID != ""
}

// DisplayName applies the shared fallback chain used for profiles and
// room name snapshots.
func DisplayName(displayName, email string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	if email != "" && !strings.Contains(email, "@") {
		return email
	}
	return config.UnknownDisplayName
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok && s.Valid()
}
