// Package profile serves the caller's own gaming profile.
package profile

import (
	"context"
	"crewfinder/backend/internal/config"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/session"
	"crewfinder/backend/internal/storage"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

var (
	ErrDisplayNameRequired = errors.New("display name cannot be empty")
	ErrUnknownPlatform     = errors.New("unknown platform")
	ErrProfileNotFound     = errors.New("profile not found")
)

type Store interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	CountPostsByAuthor(ctx context.Context, authorID string) (int64, error)
	DeleteUserCascade(ctx context.Context, userID string) (*storage.CascadeResult, error)
}

// Profile is the public view of a user plus derived fields.
type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name"`
	Role           string    `json:"role"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	DiscordID      string    `json:"discord_id"`
	ProfilePicture string    `json:"profile_picture"`
	Platforms      []string  `json:"platforms"`
	PostCount      int64     `json:"post_count"`
	LastActivity   time.Time `json:"last_activity"`
	CreatedAt      time.Time `json:"created_at"`
	// Stored is false when no profile row exists and the profile was
	// derived from the session.
	Stored bool `json:"stored"`
}

// Update holds the editable fields. Nil fields are left unchanged.
type Update struct {
	DisplayName    *string  `json:"display_name"`
	Bio            *string  `json:"bio"`
	Location       *string  `json:"location"`
	DiscordID      *string  `json:"discord_id"`
	ProfilePicture *string  `json:"profile_picture"`
	Platforms      []string `json:"platforms"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get loads the caller's profile and post count concurrently. A missing
// profile row yields a basic profile built from the session.
func (s *Service) Get(ctx context.Context, sess session.Session) (*Profile, error) {
	var (
		user  *models.User
		count int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.store.GetUserByID(gctx, sess.UserID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		user = u
		return nil
	})
	g.Go(func() error {
		n, err := s.store.CountPostsByAuthor(gctx, sess.UserID)
		if err != nil {
			// the count is decorative
			logging.Ctx(ctx).Warn().Err(err).Str(logging.FieldUserID, sess.UserID).Msg("could not count posts")
			return nil
		}
		count = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if user == nil {
		return &Profile{
			ID:          sess.UserID,
			Email:       sess.Email,
			DisplayName: sess.Name(),
			Role:        roleOrDefault(sess.Role),
			Platforms:   []string{},
			PostCount:   count,
		}, nil
	}

	p := fromUser(user)
	p.PostCount = count
	return p, nil
}

// Update applies u to the caller's profile and returns the result.
func (s *Service) Update(ctx context.Context, sess session.Session, u Update) (*Profile, error) {
	user, err := s.store.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	if u.DisplayName != nil {
		name := strings.TrimSpace(*u.DisplayName)
		if name == "" {
			return nil, ErrDisplayNameRequired
		}
		user.DisplayName = name
	}
	if u.Bio != nil {
		user.Bio = strings.TrimSpace(*u.Bio)
	}
	if u.Location != nil {
		user.Location = strings.TrimSpace(*u.Location)
	}
	if u.DiscordID != nil {
		user.DiscordID = strings.TrimSpace(*u.DiscordID)
	}
	if u.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*u.ProfilePicture)
	}
	if u.Platforms != nil {
		platforms := make(pq.StringArray, 0, len(u.Platforms))
		for _, p := range u.Platforms {
			if !config.IsKnownPlatform(p) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, p)
			}
			platforms = append(platforms, p)
		}
		user.Platforms = platforms
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	logging.Ctx(ctx).Info().Str(logging.FieldUserID, user.ID).Msg("profile updated")
	return s.Get(ctx, sess)
}

// Delete removes the caller's account with everything it owns.
func (s *Service) Delete(ctx context.Context, sess session.Session) (*storage.CascadeResult, error) {
	res, err := s.store.DeleteUserCascade(ctx, sess.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str(logging.FieldUserID, sess.UserID).Int64("posts", res.Posts).Int64("rooms", res.Rooms).Msg("account deleted")
	return res, nil
}

func fromUser(u *models.User) *Profile {
	platforms := []string(u.Platforms)
	if platforms == nil {
		platforms = []string{}
	}
	return &Profile{
		ID:             u.ID,
		Email:          u.Email,
		DisplayName:    session.DisplayName(u.DisplayName, u.Email),
		Role:           roleOrDefault(u.Role),
		Bio:            u.Bio,
		Location:       u.Location,
		DiscordID:      u.DiscordID,
		ProfilePicture: u.ProfilePicture,
		Platforms:      platforms,
		LastActivity:   u.LastActivity,
		CreatedAt:      u.CreatedAt,
		Stored:         true,
	}
}

func roleOrDefault(role string) string {
	if role == "" {
		return config.RoleUser
	}
	return role
}
