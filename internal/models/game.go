package models

import "time"

// Game is a catalogue entry. ID is the slug of Name.
type Game struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Category    string    `json:"category"`
	IsVerified  bool      `gorm:"not null;index" json:"is_verified"`
	SubmittedBy string    `json:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at"`
}
