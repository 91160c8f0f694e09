package chathub

import (
	"context"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/session"
)

// EventSource delivers room events published by any server instance.
type EventSource interface {
	SubscribeRoomEvents(ctx context.Context) (<-chan models.RoomEvent, error)
}

// handleEvent re-reads the room and pushes the full snapshot to its
// subscribers, then refreshes the room list of online participants.
func (m *ManagerService) handleEvent(ctx context.Context, evt models.RoomEvent) {
	logger := logging.Component("chathub")

	if subs := m.rooms[evt.RoomID]; len(subs) > 0 {
		msgs, err := m.Chat.RoomSnapshot(ctx, evt.RoomID)
		if err != nil {
			logger.Error().Err(err).Str(logging.FieldRoomID, evt.RoomID).Msg("failed to load room snapshot")
		} else {
			frame := Frame{Type: FrameMessages, RoomID: evt.RoomID, Messages: msgs}
			for c := range subs {
				m.send(c, frame)
			}
		}
	}

	for _, userID := range evt.Participants {
		conns := m.Clients[userID]
		if len(conns) == 0 {
			continue
		}
		var sess session.Session
		for c := range conns {
			sess = c.Session()
			break
		}
		rooms, err := m.Chat.ListRooms(ctx, sess)
		if err != nil {
			logger.Error().Err(err).Str(logging.FieldUserID, userID).Msg("failed to load room list")
			continue
		}
		frame := Frame{Type: FrameRooms, Rooms: rooms}
		for c := range conns {
			m.send(c, frame)
		}
	}
}
