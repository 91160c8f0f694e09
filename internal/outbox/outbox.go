// Package outbox is a durable per-user queue of writes that could not be
// applied when they were made. Entries are replayed in order later; each
// entry carries a client-generated id so replays are idempotent.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "outbox:"
	usersKey  = keyPrefix + "users"
	lockTTL   = 30 * time.Second
	KindPost  = "post"
)

var ErrInvalidEntry = errors.New("outbox entry needs an id and a user")

// Entry is one queued write.
type Entry struct {
	ID       string          `json:"id"`
	UserID   string          `json:"user_id"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
	QueuedAt time.Time       `json:"queued_at"`
}

// ApplyFunc performs a queued write. It must be idempotent on Entry.ID.
type ApplyFunc func(ctx context.Context, e Entry) error

// enqueueScript appends the entry unless its id is already queued.
var enqueueScript = redis.NewScript(`
if redis.call('SADD', KEYS[2], ARGV[1]) == 0 then
  return 0
end
redis.call('RPUSH', KEYS[1], ARGV[2])
redis.call('SADD', KEYS[3], ARGV[3])
return 1
`)

// ackScript removes an applied entry and forgets the user once drained.
var ackScript = redis.NewScript(`
redis.call('LREM', KEYS[1], 1, ARGV[1])
redis.call('SREM', KEYS[2], ARGV[2])
if redis.call('LLEN', KEYS[1]) == 0 then
  redis.call('SREM', KEYS[3], ARGV[3])
end
return 1
`)

type Queue struct {
	rdb *redis.Client
	now func() time.Time
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb, now: func() time.Time { return time.Now().UTC() }}
}

func listKey(userID string) string { return keyPrefix + userID }
func idsKey(userID string) string  { return keyPrefix + "ids:" + userID }
func lockKey(userID string) string { return keyPrefix + "lock:" + userID }

// Enqueue appends e to its user's queue. It reports false when an entry
// with the same id is already waiting.
func (q *Queue) Enqueue(ctx context.Context, e Entry) (bool, error) {
	if e.ID == "" || e.UserID == "" {
		return false, ErrInvalidEntry
	}
	if e.QueuedAt.IsZero() {
		e.QueuedAt = q.now()
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("failed to marshal outbox entry: %w", err)
	}

	added, err := enqueueScript.Run(ctx, q.rdb,
		[]string{listKey(e.UserID), idsKey(e.UserID), usersKey},
		e.ID, string(raw), e.UserID,
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to enqueue outbox entry: %w", err)
	}
	return added == 1, nil
}

// Pending returns the user's queued entries, oldest first.
func (q *Queue) Pending(ctx context.Context, userID string) ([]Entry, error) {
	raws, err := q.rdb.LRange(ctx, listKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("corrupt outbox entry for %s: %w", userID, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Users returns every user with pending entries.
func (q *Queue) Users(ctx context.Context) ([]string, error) {
	return q.rdb.SMembers(ctx, usersKey).Result()
}

// Replay applies the user's entries in order and removes each one once
// applied. It stops at the first failure and leaves that entry and the
// ones after it queued. A replay already running for the same user makes
// this call a no-op.
func (q *Queue) Replay(ctx context.Context, userID string, apply ApplyFunc) (int, error) {
	locked, err := q.rdb.SetNX(ctx, lockKey(userID), "1", lockTTL).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to lock outbox: %w", err)
	}
	if !locked {
		return 0, nil
	}
	defer q.rdb.Del(context.WithoutCancel(ctx), lockKey(userID))

	raws, err := q.rdb.LRange(ctx, listKey(userID), 0, -1).Result()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return applied, fmt.Errorf("corrupt outbox entry for %s: %w", userID, err)
		}
		if err := apply(ctx, e); err != nil {
			return applied, fmt.Errorf("replay entry %s: %w", e.ID, err)
		}
		if err := ackScript.Run(ctx, q.rdb,
			[]string{listKey(userID), idsKey(userID), usersKey},
			raw, e.ID, userID,
		).Err(); err != nil {
			return applied, fmt.Errorf("failed to ack outbox entry: %w", err)
		}
		applied++
	}
	return applied, nil
}
