// Package chathub pushes chat updates to websocket clients. A single hub
// goroutine owns all connection state; room events arrive from Redis so
// that every server instance sees writes made by the others.
package chathub

import (
	"context"
	"crewfinder/backend/internal/chat"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/session"
	"errors"
)

// ChatService is the part of chat.Service the hub drives.
type ChatService interface {
	EnsureRoom(ctx context.Context, sess session.Session, otherUserID string) (string, error)
	SendMessage(ctx context.Context, sess session.Session, roomID, text string) (*models.Message, error)
	Authorize(ctx context.Context, sess session.Session, roomID string) (*models.ChatRoom, error)
	RoomSnapshot(ctx context.Context, roomID string) ([]models.Message, error)
	ListRooms(ctx context.Context, sess session.Session) ([]chat.RoomView, error)
}

type ManagerService struct {
	// Clients holds the live connections per user.
	Clients map[string]map[Client]struct{}
	// rooms holds the subscribers per room.
	rooms map[string]map[Client]struct{}

	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan Request

	Chat   ChatService
	Events EventSource

	done chan struct{}
}

// NewManagerService creates a hub. With a nil events source changes made
// through this hub are delivered locally only.
func NewManagerService(chatSvc ChatService, events EventSource) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]map[Client]struct{}),
		rooms:        make(map[string]map[Client]struct{}),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		IncomingCh:   make(chan Request),
		Chat:         chatSvc,
		Events:       events,
		done:         make(chan struct{}),
	}
}

// Done is closed when Run returns.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}

// Run processes registrations, commands and room events until ctx is done.
func (m *ManagerService) Run(ctx context.Context) error {
	defer close(m.done)
	logger := logging.Component("chathub")

	var events <-chan models.RoomEvent
	if m.Events != nil {
		ch, err := m.Events.SubscribeRoomEvents(ctx)
		if err != nil {
			return err
		}
		events = ch
	}

	logger.Info().Bool("broker", events != nil).Msg("chat hub started")
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			logger.Info().Msg("chat hub stopped")
			return nil

		case client := <-m.RegisterCh:
			m.register(client)

		case client := <-m.UnregisterCh:
			m.unregister(client)

		case req := <-m.IncomingCh:
			m.handleCommand(ctx, req)

		case evt, ok := <-events:
			if !ok {
				logger.Warn().Msg("room event stream closed, continuing with local delivery")
				m.Events = nil
				events = nil
				continue
			}
			m.handleEvent(ctx, evt)
		}
	}
}

func (m *ManagerService) register(c Client) {
	userID := c.GetUserID()
	if m.Clients[userID] == nil {
		m.Clients[userID] = make(map[Client]struct{})
	}
	m.Clients[userID][c] = struct{}{}
	logging.Component("chathub").Debug().Str(logging.FieldUserID, userID).Msg("client registered")
}

// unregister forgets c and closes it. Unknown clients are ignored, so a
// client dropped by the hub can still unregister itself safely.
func (m *ManagerService) unregister(c Client) {
	userID := c.GetUserID()
	conns, ok := m.Clients[userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}

	delete(conns, c)
	if len(conns) == 0 {
		delete(m.Clients, userID)
	}
	for roomID, subs := range m.rooms {
		delete(subs, c)
		if len(subs) == 0 {
			delete(m.rooms, roomID)
		}
	}
	c.Close()
	logging.Component("chathub").Debug().Str(logging.FieldUserID, userID).Msg("client unregistered")
}

// registered reports whether c is still connected to the hub. A dropped
// client's send channel is closed and must not be written to again.
func (m *ManagerService) registered(c Client) bool {
	_, ok := m.Clients[c.GetUserID()][c]
	return ok
}

func (m *ManagerService) closeAll() {
	for _, conns := range m.Clients {
		for c := range conns {
			c.Close()
		}
	}
	m.Clients = make(map[string]map[Client]struct{})
	m.rooms = make(map[string]map[Client]struct{})
}

func (m *ManagerService) handleCommand(ctx context.Context, req Request) {
	c := req.Client
	cmd := req.Command
	if !m.registered(c) {
		logging.Component("chathub").Debug().Str(logging.FieldUserID, c.GetUserID()).Str("command", cmd.Type).Msg("ignoring command from dropped client")
		return
	}
	sess := c.Session()

	switch cmd.Type {
	case CmdOpen:
		roomID, err := m.Chat.EnsureRoom(ctx, sess, cmd.UserID)
		if err != nil {
			m.sendError(ctx, c, cmd.Type, err)
			return
		}
		m.send(c, Frame{Type: FrameRoomOpened, RoomID: roomID})
		m.subscribe(ctx, c, roomID)
		if m.Events == nil {
			m.handleEvent(ctx, models.RoomEvent{Type: models.EventRoomCreated, RoomID: roomID, Participants: []string{sess.UserID, cmd.UserID}})
		}

	case CmdSubscribe:
		if _, err := m.Chat.Authorize(ctx, sess, cmd.RoomID); err != nil {
			m.sendError(ctx, c, cmd.Type, err)
			return
		}
		m.subscribe(ctx, c, cmd.RoomID)

	case CmdUnsubscribe:
		if subs, ok := m.rooms[cmd.RoomID]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(m.rooms, cmd.RoomID)
			}
		}

	case CmdSend:
		if _, err := m.Chat.SendMessage(ctx, sess, cmd.RoomID, cmd.Text); err != nil {
			m.sendError(ctx, c, cmd.Type, err)
			return
		}
		if m.Events == nil {
			room, err := m.Chat.Authorize(ctx, sess, cmd.RoomID)
			if err != nil {
				return
			}
			m.handleEvent(ctx, models.RoomEvent{Type: models.EventMessage, RoomID: room.ID, Participants: room.Participants()})
		}

	default:
		m.send(c, Frame{Type: FrameError, Error: "unknown command: " + cmd.Type})
	}
}

// subscribe adds c to roomID and pushes the current snapshot to it.
func (m *ManagerService) subscribe(ctx context.Context, c Client, roomID string) {
	if !m.registered(c) {
		return
	}
	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[Client]struct{})
	}
	m.rooms[roomID][c] = struct{}{}

	msgs, err := m.Chat.RoomSnapshot(ctx, roomID)
	if err != nil {
		m.sendError(ctx, c, CmdSubscribe, err)
		return
	}
	m.send(c, Frame{Type: FrameMessages, RoomID: roomID, Messages: msgs})
}

// send delivers f without blocking the hub. A client whose buffer is full
// is dropped; frames for dropped clients are discarded.
func (m *ManagerService) send(c Client, f Frame) {
	if !m.registered(c) {
		return
	}
	select {
	case c.GetSendChannel() <- f:
	default:
		logging.Component("chathub").Warn().Str(logging.FieldUserID, c.GetUserID()).Msg("client too slow, dropping connection")
		m.unregister(c)
	}
}

func (m *ManagerService) sendError(ctx context.Context, c Client, op string, err error) {
	msg := "internal error"
	switch {
	case errors.Is(err, chat.ErrSelfChat),
		errors.Is(err, chat.ErrInvalidUser),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrMessageTooLong),
		errors.Is(err, chat.ErrRoomNotFound),
		errors.Is(err, chat.ErrNotParticipant):
		msg = err.Error()
	default:
		logging.Ctx(ctx).Error().Err(err).Str("op", op).Str(logging.FieldUserID, c.GetUserID()).Msg("chat command failed")
	}
	m.send(c, Frame{Type: FrameError, Error: msg})
}
