package board_test

import (
	"context"
	"crewfinder/backend/internal/board"
	"crewfinder/backend/internal/config"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/outbox"
	"crewfinder/backend/internal/session"
	"crewfinder/backend/internal/storage"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store unavailable")

// flakyStore fails post writes while down is set.
type flakyStore struct {
	*storage.Service
	down bool
}

func (f *flakyStore) CreatePost(ctx context.Context, post *models.Post) (bool, error) {
	if f.down {
		return false, errStoreDown
	}
	return f.Service.CreatePost(ctx, post)
}

type fixture struct {
	store *flakyStore
	queue *outbox.Queue
	svc   *board.Service
	alice session.Session
	bob   session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(config.DatabaseConfig{
		Driver:   "sqlite",
		FilePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := &flakyStore{Service: storage.NewStorageService(db, rdb)}
	queue := outbox.NewQueue(rdb)

	alice := &models.User{Email: "alice@example.com", DisplayName: "Alice", ProfilePicture: "https://cdn/alice.png"}
	bob := &models.User{Email: "bob@example.com"}
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))

	return &fixture{
		store: store,
		queue: queue,
		svc:   board.NewService(store, queue),
		alice: session.Session{UserID: alice.ID, Email: alice.Email, DisplayName: alice.DisplayName},
		bob:   session.Session{UserID: bob.ID, Email: bob.Email},
	}
}

func TestCreatePost_StoresValidatedPost(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	draft := validDraft()
	draft.Description = "  Need two more for ranked tonight  "
	draft.TagsInput = "ranked, mic, ranked"

	// Act
	post, err := f.svc.CreatePost(ctx, f.alice, draft)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	require.NotNil(t, post.ClientID)
	assert.NotEmpty(t, *post.ClientID)
	assert.Equal(t, "Need two more for ranked tonight", post.Description)
	assert.Equal(t, []string{"ranked", "mic"}, []string(post.Tags))
	assert.True(t, post.IsActive)
	assert.Equal(t, "Alice", post.AuthorName)

	stored, err := f.store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Valorant", stored.Game)

	author, err := f.store.GetUserByID(ctx, f.alice.UserID)
	require.NoError(t, err)
	assert.False(t, author.LastActivity.IsZero())
}

func TestCreatePost_RejectsInvalidDraft(t *testing.T) {
	f := newFixture(t)
	draft := validDraft()
	draft.Description = "short"

	post, err := f.svc.CreatePost(context.Background(), f.alice, draft)

	assert.Nil(t, post)
	assert.ErrorIs(t, err, board.ErrDescriptionTooShort)
	posts, _ := f.store.ListPosts(context.Background())
	assert.Empty(t, posts)
}

func TestCreatePost_SameClientIDCreatesOnePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := validDraft()
	draft.ClientID = "draft-1"

	first, err := f.svc.CreatePost(ctx, f.alice, draft)
	require.NoError(t, err)
	second, err := f.svc.CreatePost(ctx, f.alice, draft)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	posts, err := f.store.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestCreatePost_CustomGameIsSubmittedUnverified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := validDraft()
	draft.Game = config.OtherGame
	draft.CustomGame = "Deep Rock Galactic"

	post, err := f.svc.CreatePost(ctx, f.alice, draft)
	require.NoError(t, err)
	assert.Equal(t, "Deep Rock Galactic", post.Game)

	games, err := f.store.ListGames(ctx, false)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "deep_rock_galactic", games[0].ID)
	assert.False(t, games[0].IsVerified)
	assert.Equal(t, config.UserSubmittedCategory, games[0].Category)
	assert.Equal(t, f.alice.UserID, games[0].SubmittedBy)
}

func TestCreatePost_QueuesWhenStoreIsDown(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	f.store.down = true
	draft := validDraft()
	draft.ClientID = "offline-1"

	// Act
	post, err := f.svc.CreatePost(ctx, f.alice, draft)

	// Assert
	assert.ErrorIs(t, err, board.ErrQueued)
	require.NotNil(t, post)
	pending, err := f.svc.PendingPosts(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Valorant", pending[0].Game)
	posts, _ := f.store.ListPosts(ctx)
	assert.Empty(t, posts)
}

func TestCreatePost_ReplaysOutboxAfterSuccess(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	f.store.down = true
	queued := validDraft()
	queued.ClientID = "offline-1"
	queuedPost, err := f.svc.CreatePost(ctx, f.alice, queued)
	require.ErrorIs(t, err, board.ErrQueued)
	f.store.down = false

	// Act
	fresh := validDraft()
	fresh.Game = "Dota 2"
	_, err = f.svc.CreatePost(ctx, f.alice, fresh)

	// Assert
	require.NoError(t, err)
	posts, err := f.store.ListPostsByAuthor(ctx, f.alice.UserID)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	var synced *models.Post
	for i := range posts {
		if posts[i].ClientID != nil && *posts[i].ClientID == "offline-1" {
			synced = &posts[i]
		}
	}
	require.NotNil(t, synced)
	assert.WithinDuration(t, queuedPost.CreatedAt, synced.CreatedAt, time.Second)

	pending, err := f.queue.Pending(ctx, f.alice.UserID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApplyQueued_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.down = true
	draft := validDraft()
	draft.ClientID = "offline-2"
	_, err := f.svc.CreatePost(ctx, f.alice, draft)
	require.ErrorIs(t, err, board.ErrQueued)
	f.store.down = false

	entries, err := f.queue.Pending(ctx, f.alice.UserID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, f.svc.ApplyQueued(ctx, entries[0]))
	require.NoError(t, f.svc.ApplyQueued(ctx, entries[0]))

	posts, err := f.store.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestApplyQueued_DropsUnknownKind(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ApplyQueued(context.Background(), outbox.Entry{ID: "x", UserID: "u", Kind: "poll"})

	assert.NoError(t, err)
}

func TestBrowse_FiltersAndEnrichesAuthors(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()

	valorant := validDraft()
	valorant.TagsInput = "ranked"
	_, err := f.svc.CreatePost(ctx, f.alice, valorant)
	require.NoError(t, err)

	dota := validDraft()
	dota.Game = "Dota 2"
	dota.Platform = "Mobile"
	_, err = f.svc.CreatePost(ctx, f.bob, dota)
	require.NoError(t, err)

	closed := validDraft()
	closed.IsActive = new(bool)
	_, err = f.svc.CreatePost(ctx, f.bob, closed)
	require.NoError(t, err)

	// Act
	all, err := f.svc.Browse(ctx, board.Filter{Game: config.AllGames, Platform: config.AllPlatforms})
	require.NoError(t, err)
	byKeyword, err := f.svc.Browse(ctx, board.Filter{Keyword: "RANKED"})
	require.NoError(t, err)
	byPlatform, err := f.svc.Browse(ctx, board.Filter{Platform: "Mobile"})
	require.NoError(t, err)

	// Assert
	assert.Len(t, all, 2)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "Valorant", byKeyword[0].Game)
	assert.Equal(t, "Alice", byKeyword[0].AuthorName)
	assert.Equal(t, "https://cdn/alice.png", byKeyword[0].AuthorPicture)
	require.Len(t, byPlatform, 1)
	assert.Equal(t, "bob", byPlatform[0].AuthorName)
}

func TestFilterPosts_MatchesTagsAndDescription(t *testing.T) {
	posts := []models.Post{
		{ID: "1", Game: "Rust", Platform: "PC", Description: "Base building crew", Tags: []string{"EU"}},
		{ID: "2", Game: "Minecraft", Platform: "PC", Description: "Chill survival"},
	}

	assert.Len(t, board.FilterPosts(posts, board.Filter{Keyword: "eu"}), 1)
	assert.Len(t, board.FilterPosts(posts, board.Filter{Keyword: "survival"}), 1)
	assert.Len(t, board.FilterPosts(posts, board.Filter{Keyword: " "}), 2)
	assert.Empty(t, board.FilterPosts(posts, board.Filter{Game: "Rust", Keyword: "chill"}))
}

func TestSetActiveAndDelete_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post, err := f.svc.CreatePost(ctx, f.alice, validDraft())
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.SetActive(ctx, f.bob, post.ID, false), board.ErrNotOwner)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.bob, post.ID), board.ErrNotOwner)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.alice, "missing"), board.ErrPostNotFound)

	require.NoError(t, f.svc.SetActive(ctx, f.alice, post.ID, false))
	mine, err := f.svc.MyPosts(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.False(t, mine[0].IsActive)

	require.NoError(t, f.svc.Delete(ctx, f.alice, post.ID))
	mine, err = f.svc.MyPosts(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestSeedGames_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.svc.SeedGames(ctx)
	require.NoError(t, err)
	again, err := f.svc.SeedGames(ctx)
	require.NoError(t, err)

	assert.Equal(t, len(config.Games)-1, added)
	assert.Zero(t, again)

	games, err := f.svc.VerifiedGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, added)
	assert.Equal(t, "Among Us", games[0].Name)
	for _, g := range games {
		assert.NotEqual(t, config.OtherGame, g.Name)
		assert.Equal(t, config.SystemSubmitter, g.SubmittedBy)
	}
}

func TestSubmitGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.SubmitGame(ctx, f.alice.UserID, "  ")
	assert.ErrorIs(t, err, board.ErrGameNameRequired)

	game, created, err := f.svc.SubmitGame(ctx, f.alice.UserID, "Helldivers 2")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "helldivers_2", game.ID)

	_, created, err = f.svc.SubmitGame(ctx, f.bob.UserID, "Helldivers 2")
	require.NoError(t, err)
	assert.False(t, created)

	verified, err := f.svc.VerifiedGames(ctx)
	require.NoError(t, err)
	assert.Empty(t, verified)
}
