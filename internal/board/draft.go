// Package board is the "looking for group" bulletin board: posts, the
// game catalogue and the offline outbox for posts.
package board

import (
	"crewfinder/backend/internal/config"
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidationError is a user-facing problem with a draft.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrGameRequired        = &ValidationError{Field: "game", Message: "Please select a game"}
	ErrCustomGameRequired  = &ValidationError{Field: "custom_game", Message: "Please enter a custom game name"}
	ErrPlatformRequired    = &ValidationError{Field: "platform", Message: "Please select a platform"}
	ErrUnknownPlatform     = &ValidationError{Field: "platform", Message: "Please select a valid platform"}
	ErrDescriptionRequired = &ValidationError{Field: "description", Message: "Please provide a description"}
	ErrDescriptionTooShort = &ValidationError{Field: "description", Message: "Description must be at least 10 characters long"}
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotOwner     = errors.New("only the author can change this post")
	// ErrQueued means the post could not be stored now and waits in the
	// author's outbox.
	ErrQueued = errors.New("post queued for later delivery")
)

// PostDraft is what an author submits.
type PostDraft struct {
	// ClientID is generated by the client; resubmitting the same draft
	// never creates a second post.
	ClientID    string   `json:"client_id"`
	Game        string   `json:"game"`
	CustomGame  string   `json:"custom_game"`
	Platform    string   `json:"platform"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	// TagsInput is raw comma separated text, merged into Tags.
	TagsInput string `json:"tags_input"`
	IsActive  *bool  `json:"is_active"`
}

// Validate checks the draft in the order the form reports errors.
func (d PostDraft) Validate() error {
	if strings.TrimSpace(d.Game) == "" {
		return ErrGameRequired
	}
	if d.Game == config.OtherGame && strings.TrimSpace(d.CustomGame) == "" {
		return ErrCustomGameRequired
	}
	if strings.TrimSpace(d.Platform) == "" {
		return ErrPlatformRequired
	}
	if !config.IsKnownPlatform(d.Platform) {
		return ErrUnknownPlatform
	}
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		return ErrDescriptionRequired
	}
	if utf8.RuneCountInString(desc) < config.MinDescriptionLength {
		return ErrDescriptionTooShort
	}
	return nil
}

// GameTitle is the title stored on the post.
func (d PostDraft) GameTitle() string {
	if d.Game == config.OtherGame {
		return strings.TrimSpace(d.CustomGame)
	}
	return d.Game
}

func (d PostDraft) IsCustomGame() bool {
	return d.Game == config.OtherGame
}

// AllTags merges Tags and TagsInput.
func (d PostDraft) AllTags() []string {
	return MergeTags(d.Tags, ParseTags(d.TagsInput))
}

// ParseTags splits comma separated input, trims each tag and drops empty
// and repeated ones.
func ParseTags(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	return MergeTags(strings.Split(input, ","))
}

// MergeTags concatenates tag lists keeping the first occurrence of each
// trimmed, non-empty tag.
func MergeTags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, tag := range list {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// Slug turns a game name into its catalogue id: lower case, and every
// character outside a-z and 0-9 replaced by an underscore.
func Slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
