// Package chat implements private rooms between two users: deterministic
// room ids, transactional room creation and message sending.
package chat

import (
	"crewfinder/backend/internal/config"
	"errors"
	"strings"
)

var (
	ErrSelfChat       = errors.New("cannot chat with yourself")
	ErrInvalidUser    = errors.New("invalid user id")
	ErrEmptyMessage   = errors.New("message text is empty")
	ErrMessageTooLong = errors.New("message text is too long")
	ErrRoomNotFound   = errors.New("chat room not found")
	ErrNotParticipant = errors.New("not a participant of this room")
)

// DeriveRoomID returns the canonical room id for a pair of users: the two
// ids sorted lexicographically and joined with config.RoomIDSeparator.
// The result does not depend on argument order. Ids must be non-empty,
// distinct and free of the separator, otherwise two different pairs could
// map to the same room.
func DeriveRoomID(userA, userB string) (string, error) {
	if err := validateUserID(userA); err != nil {
		return "", err
	}
	if err := validateUserID(userB); err != nil {
		return "", err
	}
	if userA == userB {
		return "", ErrSelfChat
	}

	first, second := SortPair(userA, userB)
	return first + config.RoomIDSeparator + second, nil
}

// SortPair orders two ids the way DeriveRoomID does.
func SortPair(userA, userB string) (string, string) {
	if userB < userA {
		return userB, userA
	}
	return userA, userB
}

func validateUserID(id string) error {
	if strings.TrimSpace(id) == "" || strings.Contains(id, config.RoomIDSeparator) {
		return ErrInvalidUser
	}
	return nil
}
