package board

import (
	"context"
	"crewfinder/backend/internal/config"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/outbox"
	"crewfinder/backend/internal/session"
	"crewfinder/backend/internal/storage"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Store interface {
	CreatePost(ctx context.Context, post *models.Post) (bool, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	ListActivePosts(ctx context.Context) ([]models.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	SetPostActive(ctx context.Context, postID string, active bool) error
	DeletePost(ctx context.Context, postID string) error
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	TouchUserActivity(ctx context.Context, userID string) error
	CreateGameIfAbsent(ctx context.Context, game *models.Game) (bool, error)
	ListGames(ctx context.Context, verifiedOnly bool) ([]models.Game, error)
}

// Outbox holds posts that could not be stored yet.
type Outbox interface {
	Enqueue(ctx context.Context, e outbox.Entry) (bool, error)
	Pending(ctx context.Context, userID string) ([]outbox.Entry, error)
	Replay(ctx context.Context, userID string, apply outbox.ApplyFunc) (int, error)
}

type Service struct {
	store  Store
	outbox Outbox
	now    func() time.Time
}

// NewService creates the board service. queue may be nil; failed writes
// are then returned to the caller instead of being queued.
func NewService(store Store, queue Outbox) *Service {
	return &Service{
		store:  store,
		outbox: queue,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// queuedPost is the outbox payload of a post.
type queuedPost struct {
	Post       models.Post `json:"post"`
	CustomGame bool        `json:"custom_game"`
}

// CreatePost validates draft and stores it as a post by the caller.
//
// When the store is unavailable the post is appended to the caller's
// outbox and returned together with ErrQueued; it is written by the next
// successful CreatePost of the same author or by the outbox worker,
// keeping its original creation time.
func (s *Service) CreatePost(ctx context.Context, sess session.Session, draft PostDraft) (*models.Post, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	clientID := strings.TrimSpace(draft.ClientID)
	if clientID == "" {
		clientID = uuid.NewString()
	}
	active := true
	if draft.IsActive != nil {
		active = *draft.IsActive
	}
	now := s.now()

	post := &models.Post{
		ClientID:    &clientID,
		Game:        draft.GameTitle(),
		Platform:    draft.Platform,
		Description: strings.TrimSpace(draft.Description),
		Tags:        pq.StringArray(draft.AllTags()),
		IsActive:    active,
		AuthorID:    sess.UserID,
		AuthorName:  sess.Name(),
		AuthorEmail: sess.Email,
		Responses:   0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.store.CreatePost(ctx, post)
	if err != nil {
		return s.queue(ctx, post, draft.IsCustomGame(), err)
	}

	logger := logging.Ctx(ctx)
	if created {
		logger.Info().Str(logging.FieldPostID, post.ID).Str("game", post.Game).Msg("post created")
		s.afterCreate(ctx, post, draft.IsCustomGame())
	}

	if s.outbox != nil {
		if n, err := s.ReplayOutbox(ctx, sess.UserID); err != nil {
			logger.Warn().Err(err).Int("applied", n).Msg("outbox replay stopped")
		} else if n > 0 {
			logger.Info().Int("applied", n).Msg("synced queued posts")
		}
	}
	return post, nil
}

func (s *Service) queue(ctx context.Context, post *models.Post, custom bool, cause error) (*models.Post, error) {
	if s.outbox == nil {
		return nil, fmt.Errorf("create post: %w", cause)
	}

	payload, err := json.Marshal(queuedPost{Post: *post, CustomGame: custom})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", cause)
	}

	entry := outbox.Entry{
		ID:       *post.ClientID,
		UserID:   post.AuthorID,
		Kind:     outbox.KindPost,
		Payload:  payload,
		QueuedAt: post.CreatedAt,
	}
	if _, err := s.outbox.Enqueue(ctx, entry); err != nil {
		return nil, fmt.Errorf("create post: %w (queueing failed: %v)", cause, err)
	}

	logging.Ctx(ctx).Warn().Err(cause).Str("client_id", entry.ID).Msg("post store unavailable, queued in outbox")
	return post, ErrQueued
}

// afterCreate records side effects of a new post. Failures are logged and
// never undo the post.
func (s *Service) afterCreate(ctx context.Context, post *models.Post, custom bool) {
	logger := logging.Ctx(ctx)

	if custom {
		if _, _, err := s.SubmitGame(ctx, post.AuthorID, post.Game); err != nil {
			logger.Warn().Err(err).Str("game", post.Game).Msg("could not save custom game")
		}
	}
	if err := s.store.TouchUserActivity(ctx, post.AuthorID); err != nil {
		logger.Warn().Err(err).Str(logging.FieldUserID, post.AuthorID).Msg("could not update user activity")
	}
}

// ApplyQueued writes one outbox entry. It is the outbox.ApplyFunc for
// posts and is idempotent through the post's client id.
func (s *Service) ApplyQueued(ctx context.Context, e outbox.Entry) error {
	if e.Kind != outbox.KindPost {
		logging.Ctx(ctx).Error().Str("kind", e.Kind).Str("entry", e.ID).Msg("dropping outbox entry of unknown kind")
		return nil
	}

	var q queuedPost
	if err := json.Unmarshal(e.Payload, &q); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("entry", e.ID).Msg("dropping unreadable outbox entry")
		return nil
	}

	post := q.Post
	created, err := s.store.CreatePost(ctx, &post)
	if err != nil {
		return err
	}
	if created {
		s.afterCreate(ctx, &post, q.CustomGame)
	}
	return nil
}

// ReplayOutbox writes the user's queued posts in order.
func (s *Service) ReplayOutbox(ctx context.Context, userID string) (int, error) {
	if s.outbox == nil {
		return 0, nil
	}
	return s.outbox.Replay(ctx, userID, s.ApplyQueued)
}

// PendingPosts lists the caller's queued posts, oldest first.
func (s *Service) PendingPosts(ctx context.Context, sess session.Session) ([]models.Post, error) {
	if s.outbox == nil {
		return []models.Post{}, nil
	}
	entries, err := s.outbox.Pending(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(entries))
	for _, e := range entries {
		var q queuedPost
		if e.Kind != outbox.KindPost || json.Unmarshal(e.Payload, &q) != nil {
			continue
		}
		posts = append(posts, q.Post)
	}
	return posts, nil
}

// Filter narrows Browse. Empty fields and the "All ..." choices match
// everything.
type Filter struct {
	Keyword  string
	Game     string
	Platform string
}

// Browse returns active posts, newest first, matching f, with author
// names and pictures taken from current profiles.
func (s *Service) Browse(ctx context.Context, f Filter) ([]models.Post, error) {
	posts, err := s.store.ListActivePosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts = FilterPosts(posts, f)
	s.enrichAuthors(ctx, posts)
	return posts, nil
}

// MyPosts returns every post of the caller, active or not.
func (s *Service) MyPosts(ctx context.Context, sess session.Session) ([]models.Post, error) {
	return s.store.ListPostsByAuthor(ctx, sess.UserID)
}

func (s *Service) enrichAuthors(ctx context.Context, posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; !ok {
			seen[p.AuthorID] = struct{}{}
			ids = append(ids, p.AuthorID)
		}
	}

	authors, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("could not load post authors")
		return
	}
	for i := range posts {
		if a, ok := authors[posts[i].AuthorID]; ok {
			posts[i].AuthorName = session.DisplayName(a.DisplayName, a.Email)
			posts[i].AuthorPicture = a.ProfilePicture
		}
	}
}

// FilterPosts keeps posts matching f, preserving order. The keyword is
// matched case-insensitively against game, platform, description and tags.
func FilterPosts(posts []models.Post, f Filter) []models.Post {
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))
	game := strings.TrimSpace(f.Game)
	platform := strings.TrimSpace(f.Platform)

	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if game != "" && game != config.AllGames && p.Game != game {
			continue
		}
		if platform != "" && platform != config.AllPlatforms && p.Platform != platform {
			continue
		}
		if keyword != "" && !matchesKeyword(p, keyword) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesKeyword(p models.Post, keyword string) bool {
	if strings.Contains(strings.ToLower(p.Game), keyword) ||
		strings.Contains(strings.ToLower(p.Platform), keyword) ||
		strings.Contains(strings.ToLower(p.Description), keyword) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), keyword) {
			return true
		}
	}
	return false
}

// SetActive opens or closes one of the caller's posts.
func (s *Service) SetActive(ctx context.Context, sess session.Session, postID string, active bool) error {
	if _, err := s.ownPost(ctx, sess, postID); err != nil {
		return err
	}
	return s.store.SetPostActive(ctx, postID, active)
}

// Delete removes one of the caller's posts.
func (s *Service) Delete(ctx context.Context, sess session.Session, postID string) error {
	if _, err := s.ownPost(ctx, sess, postID); err != nil {
		return err
	}
	return s.store.DeletePost(ctx, postID)
}

func (s *Service) ownPost(ctx context.Context, sess session.Session, postID string) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	if post.AuthorID != sess.UserID {
		return nil, ErrNotOwner
	}
	return post, nil
}
