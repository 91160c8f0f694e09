package chathub

import (
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/session"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 32
)

// WebSocketClient реалізує інтерфейс chathub.Client
type WebSocketClient struct {
	Sess session.Session
	Conn *websocket.Conn
	Hub  *ManagerService
	Send chan Frame
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, sess session.Session) *WebSocketClient {
	return &WebSocketClient{
		Sess: sess,
		Conn: conn,
		Hub:  hub,
		Send: make(chan Frame, sendBuffer),
	}
}

func (c *WebSocketClient) GetUserID() string            { return c.Sess.UserID }
func (c *WebSocketClient) Session() session.Session     { return c.Sess }
func (c *WebSocketClient) GetSendChannel() chan<- Frame { return c.Send }

// Run запускає 'pumps' для WebSocket
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close закриває Send канал (що зупинить writePump)
func (c *WebSocketClient) Close() {
	close(c.Send)
}

func (c *WebSocketClient) readPump() {
	logger := logging.Component("ws").With().Str(logging.FieldUserID, c.Sess.UserID).Logger()

	defer func() {
		select {
		case c.Hub.UnregisterCh <- c:
		case <-c.Hub.Done():
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			logger.Debug().Err(err).Msg("ignoring malformed command")
			continue
		}

		select {
		case c.Hub.IncomingCh <- Request{Client: c, Command: cmd}:
		case <-c.Hub.Done():
			return
		}
	}
}

// writePump пише кадри з каналу Send у WebSocket, по одному на повідомлення.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрито хабом, закриваємо з'єднання WS
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
