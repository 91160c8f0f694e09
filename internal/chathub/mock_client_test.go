package chathub_test

import (
	"crewfinder/backend/internal/chathub"
	"crewfinder/backend/internal/session"
	"sync"
	"sync/atomic"
)

// MockClient closes its channel on Close, like WebSocketClient does.
type MockClient struct {
	sess        session.Session
	RecvChannel chan chathub.Frame
	closed      atomic.Bool
	closeOnce   sync.Once
}

func newMockClient(userID string) *MockClient {
	return newBufferedMockClient(userID, 10)
}

// newBufferedMockClient returns a client with the given send buffer; 0
// gives a client that never keeps up.
func newBufferedMockClient(userID string, size int) *MockClient {
	return &MockClient{
		sess:        session.Session{UserID: userID, Email: userID + "@example.com"},
		RecvChannel: make(chan chathub.Frame, size),
	}
}

func (c *MockClient) GetUserID() string {
	return c.sess.UserID
}

func (c *MockClient) Session() session.Session {
	return c.sess
}

func (c *MockClient) GetSendChannel() chan<- chathub.Frame {
	return c.RecvChannel
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.RecvChannel)
	})
}

func (c *MockClient) IsClosed() bool {
	return c.closed.Load()
}
