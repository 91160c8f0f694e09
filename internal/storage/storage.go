// Package storage is the persistence layer: gorm for rows (PostgreSQL in
// production, SQLite for local runs and tests) and Redis for room events.
package storage

import (
	"context"
	"crewfinder/backend/internal/models"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("write conflict")
	ErrDuplicate = errors.New("duplicate record")
	// ErrNoBroker is returned by event methods when Redis is not configured.
	ErrNoBroker = errors.New("event broker not configured")
)

// RoomTx is the view of the store inside RunInTransaction. CreateRoom
// returns ErrConflict when another writer created the room first; the
// transaction is then retried and the retry observes the winner's row.
type RoomTx interface {
	GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
}

// Storage lists everything the services need from the persistence layer.
// Each service depends on the subset it uses.
type Storage interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	TouchUserActivity(ctx context.Context, userID string) error
	SetUserRole(ctx context.Context, userID, role string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUserCascade(ctx context.Context, userID string) (*CascadeResult, error)

	// Chats
	RunInTransaction(ctx context.Context, fn func(tx RoomTx) error) error
	GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	UpdateRoomSummary(ctx context.Context, roomID, text string, at time.Time) error
	ListMessages(ctx context.Context, roomID string) ([]models.Message, error)
	ClearChats(ctx context.Context) (*ClearResult, error)

	// Posts
	CreatePost(ctx context.Context, post *models.Post) (bool, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	ListActivePosts(ctx context.Context) ([]models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	CountPostsByAuthor(ctx context.Context, authorID string) (int64, error)
	SetPostActive(ctx context.Context, postID string, active bool) error
	DeletePost(ctx context.Context, postID string) error
	ClearAll(ctx context.Context) (*ClearResult, error)

	// Games
	CreateGameIfAbsent(ctx context.Context, game *models.Game) (bool, error)
	ListGames(ctx context.Context, verifiedOnly bool) ([]models.Game, error)
	SetGameVerified(ctx context.Context, gameID string, verified bool) error
	DeleteGame(ctx context.Context, gameID string) error

	// Events
	PublishRoomEvent(ctx context.Context, evt models.RoomEvent) error
	SubscribeRoomEvents(ctx context.Context) (<-chan models.RoomEvent, error)
}

// CascadeResult counts what DeleteUserCascade removed.
type CascadeResult struct {
	Rooms    int64 `json:"rooms"`
	Messages int64 `json:"messages"`
	Posts    int64 `json:"posts"`
}

// ClearResult counts what ClearChats / ClearAll removed.
type ClearResult struct {
	Posts    int64 `json:"posts"`
	Messages int64 `json:"messages"`
	Chats    int64 `json:"chats"`
	Total    int64 `json:"total"`
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client

	// TxAttempts bounds RunInTransaction retries.
	TxAttempts int
	TxBackoff  time.Duration

	now func() time.Time
}

var _ Storage = (*Service)(nil)

// NewStorageService Constructor. rdb may be nil (admin CLI, tests); event
// methods then return ErrNoBroker.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:         db,
		Redis:      rdb,
		TxAttempts: 5,
		TxBackoff:  20 * time.Millisecond,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source used for server-assigned times.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}

// notFound maps gorm's sentinel to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
