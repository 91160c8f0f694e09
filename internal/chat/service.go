package chat

import (
	"context"
	"crewfinder/backend/internal/config"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/session"
	"crewfinder/backend/internal/storage"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Store is the part of storage.Storage the chat service needs.
type Store interface {
	RunInTransaction(ctx context.Context, fn func(tx storage.RoomTx) error) error
	GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	UpdateRoomSummary(ctx context.Context, roomID, text string, at time.Time) error
	ListMessages(ctx context.Context, roomID string) ([]models.Message, error)
}

// Publisher announces room changes to realtime subscribers.
type Publisher interface {
	PublishRoomEvent(ctx context.Context, evt models.RoomEvent) error
}

type Service struct {
	store            Store
	events           Publisher
	maxMessageLength int
}

// NewService creates the chat service. events may be nil, in which case
// no realtime notifications are sent.
func NewService(store Store, events Publisher) *Service {
	return &Service{
		store:            store,
		events:           events,
		maxMessageLength: config.MaxMessageLength,
	}
}

// RoomView is a room as seen by one of its participants.
type RoomView struct {
	ID               string    `json:"id"`
	Participants     []string  `json:"participants"`
	ParticipantNames []string  `json:"participant_names"`
	OtherUserID      string    `json:"other_user_id"`
	OtherUserName    string    `json:"other_user_name"`
	OtherUserEmail   string    `json:"other_user_email,omitempty"`
	OtherUserPicture string    `json:"other_user_picture,omitempty"`
	LastMessage      string    `json:"last_message"`
	LastMessageTime  time.Time `json:"last_message_time"`
	CreatedAt        time.Time `json:"created_at"`
}

// EnsureRoom returns the id of the room between the caller and
// otherUserID, creating it if needed. Self-chat is rejected before the
// store is touched. The read and the create run in one transaction, so
// concurrent calls for the same pair (in either order) create one room;
// the loser's retry finds the winner's row and returns it unchanged.
func (s *Service) EnsureRoom(ctx context.Context, sess session.Session, otherUserID string) (string, error) {
	if !sess.Valid() {
		return "", ErrInvalidUser
	}
	roomID, err := DeriveRoomID(sess.UserID, otherUserID)
	if err != nil {
		return "", err
	}

	var created *models.ChatRoom
	err = s.store.RunInTransaction(ctx, func(tx storage.RoomTx) error {
		created = nil

		if _, err := tx.GetRoom(ctx, roomID); err == nil {
			return nil
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		first, second := SortPair(sess.UserID, otherUserID)
		room := &models.ChatRoom{
			ID:               roomID,
			Participant1ID:   first,
			Participant2ID:   second,
			Participant1Name: s.participantName(ctx, tx, sess, first),
			Participant2Name: s.participantName(ctx, tx, sess, second),
			LastMessage:      "",
		}
		if err := tx.CreateRoom(ctx, room); err != nil {
			return err
		}
		created = room
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ensure room %s: %w", roomID, err)
	}

	if created != nil {
		logging.Ctx(ctx).Info().Str(logging.FieldRoomID, roomID).Msg("chat room created")
		s.publish(ctx, models.EventRoomCreated, created)
	}
	return roomID, nil
}

// participantName snapshots a display name. A missing or unreadable
// profile never aborts room creation.
func (s *Service) participantName(ctx context.Context, tx storage.RoomTx, sess session.Session, userID string) string {
	user, err := tx.GetUserByID(ctx, userID)
	if err == nil {
		return session.DisplayName(user.DisplayName, user.Email)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		logging.Ctx(ctx).Warn().Err(err).Str(logging.FieldUserID, userID).Msg("profile lookup failed, using placeholder name")
	}
	if userID == sess.UserID {
		return sess.Name()
	}
	return config.UnknownDisplayName
}

// SendMessage appends a message from the caller to roomID and then
// refreshes the room's last-message preview. The two writes are not
// atomic: the message is the source of truth and a failed preview update
// is only logged.
func (s *Service) SendMessage(ctx context.Context, sess session.Session, roomID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > s.maxMessageLength {
		return nil, ErrMessageTooLong
	}

	room, err := s.Authorize(ctx, sess, roomID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		RoomID:     room.ID,
		SenderID:   sess.UserID,
		SenderName: sess.Name(),
		Text:       text,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	if err := s.store.UpdateRoomSummary(ctx, room.ID, msg.Text, msg.CreatedAt); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str(logging.FieldRoomID, room.ID).Msg("failed to update room summary")
	}

	s.publish(ctx, models.EventMessage, room)
	return msg, nil
}

// Authorize loads roomID and checks that the caller participates in it.
func (s *Service) Authorize(ctx context.Context, sess session.Session, roomID string) (*models.ChatRoom, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	if !room.HasParticipant(sess.UserID) {
		return nil, ErrNotParticipant
	}
	return room, nil
}

// ListMessages returns the room's messages oldest first.
func (s *Service) ListMessages(ctx context.Context, sess session.Session, roomID string) ([]models.Message, error) {
	if _, err := s.Authorize(ctx, sess, roomID); err != nil {
		return nil, err
	}
	return s.RoomSnapshot(ctx, roomID)
}

// RoomSnapshot re-reads the full message set of roomID and sorts it. It
// does no authorization; callers check membership first.
func (s *Service) RoomSnapshot(ctx context.Context, roomID string) ([]models.Message, error) {
	msgs, err := s.store.ListMessages(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	SortMessages(msgs)
	return msgs, nil
}

// ListRooms returns the caller's rooms, most recent activity first, with
// the other participant's current profile data.
func (s *Service) ListRooms(ctx context.Context, sess session.Session) ([]RoomView, error) {
	rooms, err := s.store.ListRoomsForUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	others := make([]string, 0, len(rooms))
	for i := range rooms {
		other, _ := rooms[i].OtherParticipant(sess.UserID)
		others = append(others, other)
	}

	profiles, err := s.store.GetUsersByIDs(ctx, others)
	if err != nil {
		// Snapshots stored on the room are good enough.
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to load participant profiles")
		profiles = nil
	}

	views := make([]RoomView, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		if room.Participant1ID == room.Participant2ID {
			continue
		}

		otherID, otherName := room.OtherParticipant(sess.UserID)
		view := RoomView{
			ID:               room.ID,
			Participants:     room.Participants(),
			ParticipantNames: room.ParticipantNames(),
			OtherUserID:      otherID,
			OtherUserName:    otherName,
			LastMessage:      room.LastMessage,
			LastMessageTime:  room.LastMessageTime,
			CreatedAt:        room.CreatedAt,
		}
		if p, ok := profiles[otherID]; ok {
			view.OtherUserName = session.DisplayName(p.DisplayName, p.Email)
			view.OtherUserEmail = p.Email
			view.OtherUserPicture = p.ProfilePicture
		}
		if view.OtherUserName == "" {
			view.OtherUserName = config.UnknownDisplayName
		}
		views = append(views, view)
	}

	slices.SortStableFunc(views, func(a, b RoomView) int {
		return b.LastMessageTime.Compare(a.LastMessageTime)
	})
	return views, nil
}

func (s *Service) publish(ctx context.Context, kind string, room *models.ChatRoom) {
	if s.events == nil {
		return
	}
	evt := models.RoomEvent{
		Type:         kind,
		RoomID:       room.ID,
		Participants: room.Participants(),
	}
	if err := s.events.PublishRoomEvent(ctx, evt); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str(logging.FieldRoomID, room.ID).Msg("failed to publish room event")
	}
}
