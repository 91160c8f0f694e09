package handler

import (
	"crewfinder/backend/internal/api/response"
	"crewfinder/backend/internal/config"

	"github.com/gin-gonic/gin"
)

type roleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

func (h *Handler) AdminOverview(c *gin.Context) {
	o, err := h.Admin.Overview(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, o)
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	users, err := h.Admin.Users(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, users)
}

// AdminDeleteUser removes the user with their posts, rooms and messages.
func (h *Handler) AdminDeleteUser(c *gin.Context) {
	res, err := h.Admin.DeleteUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *Handler) AdminSetRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "role must be user or admin")
		return
	}

	setRole := h.Admin.Demote
	if req.Role == config.RoleAdmin {
		setRole = h.Admin.Promote
	}
	user, err := setRole(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *Handler) AdminListPosts(c *gin.Context) {
	posts, err := h.Admin.Posts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, posts)
}

func (h *Handler) AdminSetPostActive(c *gin.Context) {
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "is_active is required")
		return
	}
	if err := h.Admin.SetPostActive(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "is_active": *req.IsActive})
}

func (h *Handler) AdminDeletePost(c *gin.Context) {
	if err := h.Admin.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

func (h *Handler) AdminListGames(c *gin.Context) {
	games, err := h.Admin.Games(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, games)
}

func (h *Handler) AdminVerifyGame(c *gin.Context) {
	if err := h.Admin.VerifyGame(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "is_verified": true})
}

func (h *Handler) AdminUnverifyGame(c *gin.Context) {
	if err := h.Admin.UnverifyGame(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "is_verified": false})
}

func (h *Handler) AdminDeleteGame(c *gin.Context) {
	if err := h.Admin.DeleteGame(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

func (h *Handler) AdminClearChats(c *gin.Context) {
	res, err := h.Admin.ClearChats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *Handler) AdminClearAll(c *gin.Context) {
	res, err := h.Admin.ClearAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}
