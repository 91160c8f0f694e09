package chat

import (
	"crewfinder/backend/internal/models"
	"slices"
)

// SortMessages orders msgs by timestamp, oldest first, in place. Messages
// without a timestamp yet go last. Equal timestamps keep their order.
func SortMessages(msgs []models.Message) {
	slices.SortStableFunc(msgs, func(a, b models.Message) int {
		switch {
		case a.CreatedAt.IsZero() && b.CreatedAt.IsZero():
			return 0
		case a.CreatedAt.IsZero():
			return 1
		case b.CreatedAt.IsZero():
			return -1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
