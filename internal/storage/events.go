package storage

import (
	"context"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/models"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	roomChannelPrefix  = "chat:room:"
	roomChannelPattern = roomChannelPrefix + "*"
	eventBufferSize    = 100
)

// RoomChannel is the Redis channel carrying events of roomID.
func RoomChannel(roomID string) string {
	return roomChannelPrefix + roomID
}

// PublishRoomEvent публікує подію кімнати в Redis Pub/Sub.
func (s *Service) PublishRoomEvent(ctx context.Context, evt models.RoomEvent) error {
	if s.Redis == nil {
		return ErrNoBroker
	}
	if evt.At.IsZero() {
		evt.At = s.now()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal room event: %w", err)
	}
	return s.Redis.Publish(ctx, RoomChannel(evt.RoomID), payload).Err()
}

// SubscribeRoomEvents listens on every room channel until ctx is done.
// The returned channel is closed when the subscription ends.
func (s *Service) SubscribeRoomEvents(ctx context.Context) (<-chan models.RoomEvent, error) {
	if s.Redis == nil {
		return nil, ErrNoBroker
	}

	pubsub := s.Redis.PSubscribe(ctx, roomChannelPattern)
	// Wait for the subscription confirmation so no event published after
	// this call returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to room events: %w", err)
	}

	events := make(chan models.RoomEvent, eventBufferSize)
	go processRoomEvents(ctx, pubsub, events)
	return events, nil
}

func processRoomEvents(ctx context.Context, pubsub *redis.PubSub, out chan<- models.RoomEvent) {
	defer close(out)
	defer pubsub.Close()

	logger := logging.Component("room-events")
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var evt models.RoomEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				logger.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed room event")
				continue
			}

			select {
			case out <- evt:
			case <-ctx.Done():
				return
			default:
				logger.Warn().Str(logging.FieldRoomID, evt.RoomID).Msg("room event buffer full, dropping event")
			}
		}
	}
}
