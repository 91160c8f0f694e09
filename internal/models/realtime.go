package models

import "time"

// RoomEvent is published on the broker whenever a room changes.
type RoomEvent struct {
	Type         string    `json:"type"` // "room_created", "message"
	RoomID       string    `json:"room_id"`
	Participants []string  `json:"participants"`
	At           time.Time `json:"at"`
}

const (
	EventRoomCreated = "room_created"
	EventMessage     = "message"
)

// AllModels lists every table for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&ChatRoom{},
		&Message{},
		&Post{},
		&Game{},
	}
}
