package chat_test

import (
	"context"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/storage"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStore fails the test on any call that was not set up with On.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) RunInTransaction(ctx context.Context, fn func(tx storage.RoomTx) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *MockStore) GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStore) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.ChatRoom), args.Error(1)
}

func (m *MockStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*models.User), args.Error(1)
}

func (m *MockStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStore) UpdateRoomSummary(ctx context.Context, roomID, text string, at time.Time) error {
	args := m.Called(ctx, roomID, text, at)
	return args.Error(0)
}

func (m *MockStore) ListMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).([]models.Message), args.Error(1)
}

var mockAnyFn = mock.Anything
