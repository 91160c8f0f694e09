package models

import (
	"crewfinder/backend/internal/config"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq" // Необхідний для pq.StringArray
	"gorm.io/gorm"
)

// User is an account plus its public gaming profile.
type User struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string         `gorm:"not null" json:"-"`
	DisplayName    string         `json:"display_name"`
	Role           string         `gorm:"not null;default:user" json:"role"`
	Bio            string         `json:"bio"`
	Location       string         `json:"location"`
	DiscordID      string         `json:"discord_id"`
	ProfilePicture string         `json:"profile_picture"`
	Platforms      pq.StringArray `gorm:"type:text[]" json:"platforms"`
	LastActivity   time.Time      `json:"last_activity"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// BeforeCreate генерує UUID, якщо ID ще не встановлено, і виставляє роль за замовчуванням.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = config.RoleUser
	}
	return
}

func (u *User) IsAdmin() bool {
	return u.Role == config.RoleAdmin
}
