package storage_test

import (
	"context"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/storage"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPost(author, game string, clientID *string) *models.Post {
	return &models.Post{
		ClientID:    clientID,
		Game:        game,
		Platform:    "PC",
		Description: "Looking for a duo partner",
		Tags:        pq.StringArray{"ranked", "mic"},
		IsActive:    true,
		AuthorID:    author,
		AuthorName:  author,
	}
}

func TestCreatePost_IdempotentOnClientID(t *testing.T) {
	// Arrange
	svc, _ := newTestService(t)
	ctx := context.Background()
	clientID := "draft-1"

	// Act
	first := newPost("u1", "Valorant", &clientID)
	created, err := svc.CreatePost(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	replay := newPost("u1", "Valorant", &clientID)
	created, err = svc.CreatePost(ctx, replay)

	// Assert
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, replay.ID)

	posts, err := svc.ListPostsByAuthor(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, []string{"ranked", "mic"}, []string(posts[0].Tags))
}

func TestCreatePost_ClientIDIsScopedToAuthor(t *testing.T) {
	// Arrange
	svc, _ := newTestService(t)
	ctx := context.Background()
	clientID := "shared-client-id"
	alice := newPost("alice", "Valorant", &clientID)
	alice.AuthorEmail = "alice@example.com"
	_, err := svc.CreatePost(ctx, alice)
	require.NoError(t, err)

	// Act
	bob := newPost("bob", "Rust", &clientID)
	bob.AuthorEmail = "bob@example.com"
	created, err := svc.CreatePost(ctx, bob)

	// Assert
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, alice.ID, bob.ID)
	assert.Equal(t, "bob", bob.AuthorID)
	assert.Equal(t, "bob@example.com", bob.AuthorEmail)
	assert.Equal(t, "Rust", bob.Game)

	stored, err := svc.GetPost(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.AuthorID)
	assert.Equal(t, "Valorant", stored.Game)
}

func TestCreatePost_WithoutClientIDAlwaysInserts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, newPost("u1", "CS2", nil))
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, newPost("u1", "CS2", nil))
	require.NoError(t, err)

	n, err := svc.CountPostsByAuthor(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestListActivePosts_SkipsInactive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	active := newPost("u1", "Valorant", nil)
	inactive := newPost("u1", "Rust", nil)
	inactive.IsActive = false
	_, err := svc.CreatePost(ctx, active)
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, inactive)
	require.NoError(t, err)

	posts, err := svc.ListActivePosts(ctx)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, active.ID, posts[0].ID)
}

func TestSetPostActiveAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	post := newPost("u1", "Valorant", nil)
	_, err := svc.CreatePost(ctx, post)
	require.NoError(t, err)

	require.NoError(t, svc.SetPostActive(ctx, post.ID, false))
	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, svc.DeletePost(ctx, post.ID))
	_, err = svc.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, svc.DeletePost(ctx, post.ID), storage.ErrNotFound)
	assert.ErrorIs(t, svc.SetPostActive(ctx, "missing", true), storage.ErrNotFound)
}

func TestClearAll(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreatePost(ctx, newPost("u1", "Valorant", nil))
	require.NoError(t, err)
	require.NoError(t, svc.RunInTransaction(ctx, func(tx storage.RoomTx) error {
		return ensureRoom(ctx, tx, "u1_u2", "u1", "u2")
	}))
	require.NoError(t, svc.CreateMessage(ctx, &models.Message{RoomID: "u1_u2", SenderID: "u1", Text: "gg"}))

	res, err := svc.ClearAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, &storage.ClearResult{Posts: 1, Messages: 1, Chats: 1, Total: 3}, res)
}
