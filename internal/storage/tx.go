package storage

import (
	"context"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/models"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// RunInTransaction runs fn in one database transaction and retries it
// when the commit loses a race: ErrConflict from fn, a unique-key
// violation, or a PostgreSQL serialization failure. Any other error rolls
// back and is returned unchanged. fn must be safe to run more than once.
func (s *Service) RunInTransaction(ctx context.Context, fn func(tx RoomTx) error) error {
	attempts := s.TxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var opts []*sql.TxOptions
	if s.DB.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = s.db(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormTx{db: tx, now: s.now})
		}, opts...)
		if err == nil || !retryable(err) {
			return err
		}

		logging.Ctx(ctx).Debug().Err(err).Int("attempt", attempt).Msg("transaction conflict, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.TxBackoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", attempts, err)
}

func retryable(err error) bool {
	if errors.Is(err, ErrConflict) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
			return true
		}
	}
	return false
}

type gormTx struct {
	db  *gorm.DB
	now func() time.Time
}

func (t *gormTx) GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := t.db.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (t *gormTx) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := t.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateRoom inserts room with server-assigned timestamps. An existing row
// with the same id is left untouched and reported as ErrConflict.
func (t *gormTx) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	now := t.now()
	room.CreatedAt = now
	room.LastMessageTime = now

	res := t.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(room)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
