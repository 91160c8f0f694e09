package profile_test

import (
	"context"
	"crewfinder/backend/internal/config"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/profile"
	"crewfinder/backend/internal/session"
	"crewfinder/backend/internal/storage"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *storage.Service {
	t.Helper()
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
	return storage.NewStorageService(db, nil)
}

func strPtr(s string) *string { return &s }

func TestGet_StoredProfileWithPostCount(t *testing.T) {
	// Arrange
	store := newStore(t)
	ctx := context.Background()
	user := &models.User{Email: "kira@example.com", DisplayName: "Kira", Bio: "support main"}
	require.NoError(t, store.CreateUser(ctx, user))
	for i := 0; i < 2; i++ {
		_, err := store.CreatePost(ctx, &models.Post{Game: "Valorant", Platform: "PC", Description: "looking for duo", AuthorID: user.ID, IsActive: true})
		require.NoError(t, err)
	}
	svc := profile.NewService(store)

	// Act
	p, err := svc.Get(ctx, session.Session{UserID: user.ID, Email: user.Email})

	// Assert
	require.NoError(t, err)
	assert.True(t, p.Stored)
	assert.Equal(t, "Kira", p.DisplayName)
	assert.Equal(t, "support main", p.Bio)
	assert.Equal(t, config.RoleUser, p.Role)
	assert.Equal(t, int64(2), p.PostCount)
	assert.Equal(t, []string{}, p.Platforms)
}

func TestGet_MissingProfileFallsBackToSession(t *testing.T) {
	svc := profile.NewService(newStore(t))

	p, err := svc.Get(context.Background(), session.Session{UserID: "ghost", Email: "ghost@example.com"})

	require.NoError(t, err)
	assert.False(t, p.Stored)
	assert.Equal(t, "ghost", p.DisplayName)
	assert.Equal(t, "ghost@example.com", p.Email)
	assert.Zero(t, p.PostCount)
}

func TestUpdate(t *testing.T) {
	// Arrange
	store := newStore(t)
	ctx := context.Background()
	user := &models.User{Email: "kira@example.com", DisplayName: "Kira"}
	require.NoError(t, store.CreateUser(ctx, user))
	svc := profile.NewService(store)
	sess := session.Session{UserID: user.ID, Email: user.Email}

	// Act
	p, err := svc.Update(ctx, sess, profile.Update{
		DisplayName: strPtr("  Kira R  "),
		Location:    strPtr("Kyiv"),
		Platforms:   []string{"PC", "Nintendo Switch"},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Kira R", p.DisplayName)
	assert.Equal(t, "Kyiv", p.Location)
	assert.Equal(t, []string{"PC", "Nintendo Switch"}, p.Platforms)
}

func TestUpdate_Validation(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	user := &models.User{Email: "kira@example.com", DisplayName: "Kira"}
	require.NoError(t, store.CreateUser(ctx, user))
	svc := profile.NewService(store)
	sess := session.Session{UserID: user.ID}

	_, err := svc.Update(ctx, sess, profile.Update{DisplayName: strPtr("   ")})
	assert.ErrorIs(t, err, profile.ErrDisplayNameRequired)

	_, err = svc.Update(ctx, sess, profile.Update{Platforms: []string{"PC", "Amiga"}})
	assert.ErrorIs(t, err, profile.ErrUnknownPlatform)

	_, err = svc.Update(ctx, session.Session{UserID: "ghost"}, profile.Update{Bio: strPtr("hi")})
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)

	stored, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kira", stored.DisplayName)
}

func TestDelete_CascadesAndReportsMissing(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	user := &models.User{Email: "kira@example.com"}
	require.NoError(t, store.CreateUser(ctx, user))
	_, err := store.CreatePost(ctx, &models.Post{Game: "Rust", Platform: "PC", Description: "raid crew wanted", AuthorID: user.ID, IsActive: true})
	require.NoError(t, err)
	svc := profile.NewService(store)
	sess := session.Session{UserID: user.ID}

	res, err := svc.Delete(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Posts)

	_, err = store.GetUserByID(ctx, user.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = svc.Delete(ctx, sess)
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}
