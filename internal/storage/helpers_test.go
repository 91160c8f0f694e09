package storage_test

import (
	"crewfinder/backend/internal/config"
	"crewfinder/backend/internal/storage"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// newTestService returns a Service on a private in-memory SQLite database
// and a miniredis broker.
func newTestService(t *testing.T) (*storage.Service, *miniredis.Miniredis) {
	t.Helper()

	db, err := storage.Open(config.DatabaseConfig{
		Driver:   "sqlite",
		FilePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	svc := storage.NewStorageService(db, rdb)
	svc.TxBackoff = time.Millisecond
	svc.SetClock(steppingClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)))
	return svc, mr
}

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}
