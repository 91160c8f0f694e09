package handler

import (
	"crewfinder/backend/internal/api/response"

	"github.com/gin-gonic/gin"
)

type openChatRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) ListChats(c *gin.Context) {
	rooms, err := h.Chat.ListRooms(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, rooms)
}

// OpenChat returns the room between the caller and user_id, creating it
// on first contact.
func (h *Handler) OpenChat(c *gin.Context) {
	var req openChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_id is required")
		return
	}

	roomID, err := h.Chat.EnsureRoom(c.Request.Context(), currentSession(c), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"room_id": roomID})
}

func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.Chat.ListMessages(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, msgs)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid message payload")
		return
	}

	msg, err := h.Chat.SendMessage(c.Request.Context(), currentSession(c), c.Param("id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, msg)
}
