package chat_test

import (
	"context"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/storage"
	"sync"
	"time"
)

// fakeStore keeps rows in memory. Transactions stage their room writes and
// validate them at commit time: a room created by someone else since the
// transaction started turns the commit into storage.ErrConflict, and the
// transaction is retried, the way an optimistic store behaves.
type fakeStore struct {
	mu       sync.Mutex
	rooms    map[string]models.ChatRoom
	users    map[string]*models.User
	messages []models.Message
	clock    time.Time

	roomCreates   int
	txAttempts    int
	summaryErr    error
	afterFirstGet func() // test hook, runs once after a transaction's first read
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms: make(map[string]models.ChatRoom),
		users: make(map[string]*models.User),
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) now() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

type fakeTx struct {
	store  *fakeStore
	staged *models.ChatRoom
	reads  int
}

func (t *fakeTx) GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	t.store.mu.Lock()
	room, ok := t.store.rooms[roomID]
	hook := t.store.afterFirstGet
	t.store.mu.Unlock()

	t.reads++
	if t.reads == 1 && hook != nil {
		hook()
	}
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &room, nil
}

func (t *fakeTx) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	u, ok := t.store.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (t *fakeTx) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	t.staged = room
	return nil
}

func (f *fakeStore) RunInTransaction(ctx context.Context, fn func(tx storage.RoomTx) error) error {
	for attempt := 0; attempt < 5; attempt++ {
		f.mu.Lock()
		f.txAttempts++
		f.mu.Unlock()

		tx := &fakeTx{store: f}
		if err := fn(tx); err != nil {
			return err
		}
		if tx.staged == nil {
			return nil
		}

		f.mu.Lock()
		if _, exists := f.rooms[tx.staged.ID]; exists {
			f.mu.Unlock()
			continue // conflict, retry
		}
		now := f.now()
		tx.staged.CreatedAt = now
		tx.staged.LastMessageTime = now
		f.rooms[tx.staged.ID] = *tx.staged
		f.roomCreates++
		f.mu.Unlock()
		return nil
	}
	return storage.ErrConflict
}

func (f *fakeStore) GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &room, nil
}

func (f *fakeStore) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChatRoom
	for _, r := range f.rooms {
		if r.HasParticipant(userID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*models.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = msg.SenderID + "-" + msg.Text
	msg.CreatedAt = f.now()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeStore) UpdateRoomSummary(ctx context.Context, roomID, text string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summaryErr != nil {
		return f.summaryErr
	}
	room, ok := f.rooms[roomID]
	if !ok {
		return storage.ErrNotFound
	}
	room.LastMessage = text
	room.LastMessageTime = at
	f.rooms[roomID] = room
	return nil
}

func (f *fakeStore) ListMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	// newest first on purpose; callers must sort
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].RoomID == roomID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.RoomEvent
}

func (p *recordingPublisher) PublishRoomEvent(ctx context.Context, evt models.RoomEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
