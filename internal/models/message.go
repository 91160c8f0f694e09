package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is one chat line. Messages are append-only; they go away only
// when an administrator deletes their room.
type Message struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	RoomID     string    `gorm:"not null;index:idx_room_created" json:"room_id"`
	SenderID   string    `gorm:"not null" json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `gorm:"index:idx_room_created" json:"timestamp"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
