package chathub_test

import (
	"context"
	"crewfinder/backend/internal/chat"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/session"

	"github.com/stretchr/testify/mock"
)

// MockChat implements chathub.ChatService with testify/mock.
type MockChat struct {
	mock.Mock
}

func (m *MockChat) EnsureRoom(ctx context.Context, sess session.Session, otherUserID string) (string, error) {
	args := m.Called(ctx, sess, otherUserID)
	return args.String(0), args.Error(1)
}

func (m *MockChat) SendMessage(ctx context.Context, sess session.Session, roomID, text string) (*models.Message, error) {
	args := m.Called(ctx, sess, roomID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockChat) Authorize(ctx context.Context, sess session.Session, roomID string) (*models.ChatRoom, error) {
	args := m.Called(ctx, sess, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockChat) RoomSnapshot(ctx context.Context, roomID string) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockChat) ListRooms(ctx context.Context, sess session.Session) ([]chat.RoomView, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]chat.RoomView), args.Error(1)
}

// chanEvents is an EventSource fed by the test.
type chanEvents struct {
	ch chan models.RoomEvent
}

func newChanEvents() *chanEvents {
	return &chanEvents{ch: make(chan models.RoomEvent, 10)}
}

func (e *chanEvents) SubscribeRoomEvents(ctx context.Context) (<-chan models.RoomEvent, error) {
	return e.ch, nil
}
