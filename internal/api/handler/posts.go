package handler

import (
	"crewfinder/backend/internal/api/response"
	"crewfinder/backend/internal/board"
	"errors"

	"github.com/gin-gonic/gin"
)

type activeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type submitGameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) ListGames(c *gin.Context) {
	games, err := h.Board.VerifiedGames(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, games)
}

func (h *Handler) SubmitGame(c *gin.Context) {
	var req submitGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid game payload")
		return
	}

	game, created, err := h.Board.SubmitGame(c.Request.Context(), currentSession(c).UserID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	if created {
		response.Created(c, game)
		return
	}
	response.Success(c, game)
}

// BrowsePosts lists active posts. Query: q, game, platform.
func (h *Handler) BrowsePosts(c *gin.Context) {
	posts, err := h.Board.Browse(c.Request.Context(), board.Filter{
		Keyword:  c.Query("q"),
		Game:     c.Query("game"),
		Platform: c.Query("platform"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, posts)
}

// CreatePost answers 201 when stored and 202 when queued in the outbox.
func (h *Handler) CreatePost(c *gin.Context) {
	var draft board.PostDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.BadRequest(c, "invalid post payload")
		return
	}

	post, err := h.Board.CreatePost(c.Request.Context(), currentSession(c), draft)
	if errors.Is(err, board.ErrQueued) {
		response.Accepted(c, gin.H{"post": post, "queued": true})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, post)
}

func (h *Handler) MyPosts(c *gin.Context) {
	posts, err := h.Board.MyPosts(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, posts)
}

// PendingPosts lists the caller's posts still waiting in the outbox.
func (h *Handler) PendingPosts(c *gin.Context) {
	posts, err := h.Board.PendingPosts(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, posts)
}

func (h *Handler) SetPostActive(c *gin.Context) {
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "is_active is required")
		return
	}

	if err := h.Board.SetActive(c.Request.Context(), currentSession(c), c.Param("id"), *req.IsActive); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "is_active": *req.IsActive})
}

func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.Board.Delete(c.Request.Context(), currentSession(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}
