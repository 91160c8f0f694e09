package handler

import (
	"crewfinder/backend/internal/api/response"
	"crewfinder/backend/internal/chathub"
	"crewfinder/backend/internal/logging"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Дозволяє з'єднання з будь-якого домену. У продакшені налаштувати!
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the HTTP connection to a websocket. The token
// and account were already checked by RequireAuth and RequireAccount.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	if h.Hub == nil {
		response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "realtime is disabled")
		return
	}
	sess := currentSession(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, sess)

	select {
	case h.Hub.RegisterCh <- client:
	case <-h.Hub.Done():
		conn.Close()
		return
	}
	client.Run()
}
