// Package admin holds moderation operations shared by the admin HTTP
// routes and the admin CLI. Callers are responsible for checking the
// admin role.
package admin

import (
	"context"
	"crewfinder/backend/internal/config"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/storage"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrPostNotFound = errors.New("post not found")
	ErrGameNotFound = errors.New("game not found")
)

type Store interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserRole(ctx context.Context, userID, role string) error
	DeleteUserCascade(ctx context.Context, userID string) (*storage.CascadeResult, error)

	ListPosts(ctx context.Context) ([]models.Post, error)
	SetPostActive(ctx context.Context, postID string, active bool) error
	DeletePost(ctx context.Context, postID string) error

	ListGames(ctx context.Context, verifiedOnly bool) ([]models.Game, error)
	SetGameVerified(ctx context.Context, gameID string, verified bool) error
	DeleteGame(ctx context.Context, gameID string) error

	ClearChats(ctx context.Context) (*storage.ClearResult, error)
	ClearAll(ctx context.Context) (*storage.ClearResult, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Overview is the moderation dashboard.
type Overview struct {
	Users        []models.User `json:"users"`
	Posts        []models.Post `json:"posts"`
	Games        []models.Game `json:"games"`
	ActivePosts  int           `json:"active_posts"`
	PendingGames int           `json:"pending_games"`
}

// Overview loads users, posts and games concurrently.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var out Overview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Users, err = s.store.ListUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Posts, err = s.store.ListPosts(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Games, err = s.store.ListGames(gctx, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range out.Posts {
		if p.IsActive {
			out.ActivePosts++
		}
	}
	for _, game := range out.Games {
		if !game.IsVerified {
			out.PendingGames++
		}
	}
	return &out, nil
}

func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// Posts returns every post, newest first.
func (s *Service) Posts(ctx context.Context) ([]models.Post, error) {
	return s.store.ListPosts(ctx)
}

// Games returns every game, verified or not, sorted by name.
func (s *Service) Games(ctx context.Context) ([]models.Game, error) {
	return s.store.ListGames(ctx, false)
}

// ResolveUser finds a user by id, or by email when ref contains "@".
func (s *Service) ResolveUser(ctx context.Context, ref string) (*models.User, error) {
	ref = strings.TrimSpace(ref)
	var (
		user *models.User
		err  error
	)
	if strings.Contains(ref, "@") {
		user, err = s.store.GetUserByEmail(ctx, strings.ToLower(ref))
	} else {
		user, err = s.store.GetUserByID(ctx, ref)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// DeleteUser removes a user with their posts, rooms and messages.
func (s *Service) DeleteUser(ctx context.Context, ref string) (*storage.CascadeResult, error) {
	user, err := s.ResolveUser(ctx, ref)
	if err != nil {
		return nil, err
	}
	res, err := s.store.DeleteUserCascade(ctx, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str(logging.FieldUserID, user.ID).
		Int64("posts", res.Posts).
		Int64("rooms", res.Rooms).
		Int64("messages", res.Messages).
		Msg("user deleted by admin")
	return res, nil
}

func (s *Service) Promote(ctx context.Context, ref string) (*models.User, error) {
	return s.setRole(ctx, ref, config.RoleAdmin)
}

func (s *Service) Demote(ctx context.Context, ref string) (*models.User, error) {
	return s.setRole(ctx, ref, config.RoleUser)
}

func (s *Service) setRole(ctx context.Context, ref, role string) (*models.User, error) {
	user, err := s.ResolveUser(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetUserRole(ctx, user.ID, role); err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	user.Role = role
	logging.Ctx(ctx).Info().Str(logging.FieldUserID, user.ID).Str("role", role).Msg("role changed")
	return user, nil
}

func (s *Service) SetPostActive(ctx context.Context, postID string, active bool) error {
	return mapNotFound(s.store.SetPostActive(ctx, postID, active), ErrPostNotFound)
}

func (s *Service) DeletePost(ctx context.Context, postID string) error {
	if err := s.store.DeletePost(ctx, postID); err != nil {
		return mapNotFound(err, ErrPostNotFound)
	}
	logging.Ctx(ctx).Info().Str(logging.FieldPostID, postID).Msg("post deleted by admin")
	return nil
}

func (s *Service) VerifyGame(ctx context.Context, gameID string) error {
	return mapNotFound(s.store.SetGameVerified(ctx, gameID, true), ErrGameNotFound)
}

func (s *Service) UnverifyGame(ctx context.Context, gameID string) error {
	return mapNotFound(s.store.SetGameVerified(ctx, gameID, false), ErrGameNotFound)
}

func (s *Service) DeleteGame(ctx context.Context, gameID string) error {
	return mapNotFound(s.store.DeleteGame(ctx, gameID), ErrGameNotFound)
}

// ClearChats deletes every room and message.
func (s *Service) ClearChats(ctx context.Context) (*storage.ClearResult, error) {
	res, err := s.store.ClearChats(ctx)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Warn().Int64("chats", res.Chats).Int64("messages", res.Messages).Msg("all chats cleared")
	return res, nil
}

// ClearAll deletes every post, room and message. Accounts and the game
// catalogue stay.
func (s *Service) ClearAll(ctx context.Context) (*storage.ClearResult, error) {
	res, err := s.store.ClearAll(ctx)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Warn().Int64("total", res.Total).Msg("all board data cleared")
	return res, nil
}

func mapNotFound(err, target error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return target
	}
	return err
}
