package middleware

import (
	"context"
	"crewfinder/backend/internal/api/response"
	"crewfinder/backend/internal/auth"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/session"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	// TokenQueryKey carries the token for websocket upgrades, where
	// browsers cannot set headers.
	TokenQueryKey = "token"

	sessionKey = "session"
)

// TokenParser verifies a token and returns the session it carries.
type TokenParser interface {
	ParseToken(token string) (session.Session, error)
}

// RequireAuth rejects requests without a valid token and stores the
// session in both the gin context and the request context.
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization token")
			return
		}

		sess, err := tokens.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}

		c.Set(sessionKey, sess)
		c.Set(logging.FieldUserID, sess.UserID)
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}

// AccountChecker reloads the account behind a verified session.
type AccountChecker interface {
	CurrentSession(ctx context.Context, sess session.Session) (session.Session, error)
}

// RequireAccount must run after RequireAuth. It rejects tokens of deleted
// accounts and replaces the token's role and name with the stored ones.
func RequireAccount(accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := GetSession(c)
		if !ok {
			response.Unauthorized(c, "missing session")
			return
		}

		current, err := accounts.CurrentSession(c.Request.Context(), sess)
		if errors.Is(err, auth.ErrAccountGone) {
			response.Unauthorized(c, err.Error())
			return
		}
		if err != nil {
			logging.Ctx(c.Request.Context()).Error().Err(err).Msg("account check failed")
			response.InternalError(c, "internal server error")
			return
		}

		c.Set(sessionKey, current)
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), current))
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := GetSession(c)
		if !ok || !sess.IsAdmin() {
			response.Forbidden(c, "admin role required")
			return
		}
		c.Next()
	}
}

// GetSession extracts the session set by RequireAuth.
func GetSession(c *gin.Context) (session.Session, bool) {
	if v, exists := c.Get(sessionKey); exists {
		sess, ok := v.(session.Session)
		return sess, ok && sess.Valid()
	}
	return session.Session{}, false
}

func extractToken(c *gin.Context) string {
	if h := c.GetHeader(AuthHeaderKey); strings.HasPrefix(h, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, BearerPrefix))
	}
	return c.Query(TokenQueryKey)
}
