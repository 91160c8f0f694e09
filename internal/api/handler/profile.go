package handler

import (
	"crewfinder/backend/internal/api/response"
	"crewfinder/backend/internal/profile"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.Profile.Get(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, p)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profile.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid profile payload")
		return
	}

	p, err := h.Profile.Update(c.Request.Context(), currentSession(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, p)
}

func (h *Handler) DeleteProfile(c *gin.Context) {
	res, err := h.Profile.Delete(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}
