package handler

import (
	"crewfinder/backend/internal/admin"
	"crewfinder/backend/internal/api/middleware"
	"crewfinder/backend/internal/api/response"
	"crewfinder/backend/internal/auth"
	"crewfinder/backend/internal/board"
	"crewfinder/backend/internal/chat"
	"crewfinder/backend/internal/chathub"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/profile"
	"crewfinder/backend/internal/session"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler містить посилання на сервіси та Chat Hub
type Handler struct {
	Auth    *auth.Service
	Profile *profile.Service
	Board   *board.Service
	Chat    *chat.Service
	Admin   *admin.Service
	Hub     *chathub.ManagerService
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.POST("/auth/register", h.RegisterAccount)
	api.POST("/auth/login", h.Login)

	authed := api.Group("", middleware.RequireAuth(h.Auth), middleware.RequireAccount(h.Auth))
	authed.POST("/auth/refresh", h.Refresh)

	authed.GET("/profile", h.GetProfile)
	authed.PUT("/profile", h.UpdateProfile)
	authed.DELETE("/profile", h.DeleteProfile)

	authed.GET("/games", h.ListGames)
	authed.POST("/games", h.SubmitGame)

	authed.GET("/posts", h.BrowsePosts)
	authed.POST("/posts", h.CreatePost)
	authed.GET("/posts/mine", h.MyPosts)
	authed.GET("/posts/outbox", h.PendingPosts)
	authed.PATCH("/posts/:id/active", h.SetPostActive)
	authed.DELETE("/posts/:id", h.DeletePost)

	authed.GET("/chats", h.ListChats)
	authed.POST("/chats", h.OpenChat)
	authed.GET("/chats/:id/messages", h.ListMessages)
	authed.POST("/chats/:id/messages", h.SendMessage)

	adm := authed.Group("/admin", middleware.RequireAdmin())
	adm.GET("/overview", h.AdminOverview)
	adm.GET("/users", h.AdminListUsers)
	adm.DELETE("/users/:id", h.AdminDeleteUser)
	adm.PUT("/users/:id/role", h.AdminSetRole)
	adm.GET("/posts", h.AdminListPosts)
	adm.PATCH("/posts/:id/active", h.AdminSetPostActive)
	adm.DELETE("/posts/:id", h.AdminDeletePost)
	adm.GET("/games", h.AdminListGames)
	adm.POST("/games/:id/verify", h.AdminVerifyGame)
	adm.POST("/games/:id/unverify", h.AdminUnverifyGame)
	adm.DELETE("/games/:id", h.AdminDeleteGame)
	adm.POST("/chats/clear", h.AdminClearChats)
	adm.POST("/clear", h.AdminClearAll)

	r.GET("/ws", middleware.RequireAuth(h.Auth), middleware.RequireAccount(h.Auth), h.ServeWebSocket)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// currentSession returns the caller's session; RequireAuth guarantees it.
func currentSession(c *gin.Context) session.Session {
	sess, _ := middleware.GetSession(c)
	return sess
}

// writeError maps service errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var verr *board.ValidationError
	if errors.As(err, &verr) {
		response.Validation(c, verr.Field, verr.Message)
		return
	}

	switch {
	case errors.Is(err, chat.ErrSelfChat),
		errors.Is(err, chat.ErrInvalidUser),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrMessageTooLong),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, profile.ErrDisplayNameRequired),
		errors.Is(err, profile.ErrUnknownPlatform):
		response.BadRequest(c, err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())

	case errors.Is(err, chat.ErrNotParticipant),
		errors.Is(err, board.ErrNotOwner):
		response.Forbidden(c, err.Error())

	case errors.Is(err, chat.ErrRoomNotFound),
		errors.Is(err, board.ErrPostNotFound),
		errors.Is(err, profile.ErrProfileNotFound),
		errors.Is(err, admin.ErrUserNotFound),
		errors.Is(err, admin.ErrPostNotFound),
		errors.Is(err, admin.ErrGameNotFound):
		response.NotFound(c, err.Error())

	case errors.Is(err, auth.ErrEmailTaken):
		response.Conflict(c, err.Error())

	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		response.InternalError(c, "internal server error")
	}
}
