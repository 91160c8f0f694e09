package chathub

import (
	"crewfinder/backend/internal/chat"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/session"
)

// Client is one realtime connection of an authenticated user. A user may
// hold several at once (tabs, devices).
type Client interface {
	// GetUserID returns the id of the connected user.
	GetUserID() string
	// Session returns the verified session the connection was opened with.
	Session() session.Session
	// GetSendChannel returns the channel the hub writes frames to.
	GetSendChannel() chan<- Frame
	// Run starts the client's pumps.
	Run()
	// Close stops the client. Called by the hub exactly once.
	Close()
}

// Command types sent by clients.
const (
	CmdOpen        = "open"
	CmdSubscribe   = "subscribe"
	CmdUnsubscribe = "unsubscribe"
	CmdSend        = "send"
)

// Frame types pushed to clients.
const (
	FrameRoomOpened = "room_opened"
	FrameMessages   = "messages"
	FrameRooms      = "rooms"
	FrameError      = "error"
)

// Command is a client request.
type Command struct {
	Type   string `json:"type"`
	UserID string `json:"user_id,omitempty"`
	RoomID string `json:"room_id,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Frame is a server push. Messages always carry the full, sorted message
// set of the room.
type Frame struct {
	Type     string           `json:"type"`
	RoomID   string           `json:"room_id,omitempty"`
	Messages []models.Message `json:"messages,omitempty"`
	Rooms    []chat.RoomView  `json:"rooms,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Request pairs a command with the client that sent it.
type Request struct {
	Client  Client
	Command Command
}
