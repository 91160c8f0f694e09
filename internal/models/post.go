package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Post is a "looking for teammates" listing.
type Post struct {
	ID string `gorm:"primaryKey" json:"id"`
	// ClientID is generated by the author's client and makes creation
	// idempotent across retries and outbox replays. It is unique per author.
	ClientID    *string        `gorm:"uniqueIndex:idx_posts_author_client,priority:2" json:"client_id,omitempty"`
	Game        string         `gorm:"not null;index" json:"game"`
	Platform    string         `gorm:"not null;index" json:"platform"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	// IsActive has no gorm default so that an explicit false is written.
	IsActive    bool   `gorm:"not null;index" json:"is_active"`
	AuthorID    string `gorm:"not null;index;uniqueIndex:idx_posts_author_client,priority:1" json:"author_id"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	// AuthorPicture is filled on read from the author's profile.
	AuthorPicture string    `gorm:"-" json:"author_picture,omitempty"`
	Responses     int       `json:"responses"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}
