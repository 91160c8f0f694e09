package storage

import (
	"context"
	"crewfinder/backend/internal/models"
	"time"

	"gorm.io/gorm"
)

func (s *Service) GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.db(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

// ListRoomsForUser returns the rooms userID participates in, most recent
// activity first.
func (s *Service) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.db(ctx).
		Where("participant1_id = ? OR participant2_id = ?", userID, userID).
		Order("last_message_time desc").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateMessage appends msg with a server-assigned timestamp.
func (s *Service) CreateMessage(ctx context.Context, msg *models.Message) error {
	msg.CreatedAt = s.now()
	return s.db(ctx).Create(msg).Error
}

// UpdateRoomSummary overwrites the room's last-message preview.
func (s *Service) UpdateRoomSummary(ctx context.Context, roomID, text string, at time.Time) error {
	res := s.db(ctx).Model(&models.ChatRoom{}).Where("id = ?", roomID).Updates(map[string]interface{}{
		"last_message":      text,
		"last_message_time": at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMessages returns every message of roomID in timestamp order.
func (s *Service) ListMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.db(ctx).Where("room_id = ?", roomID).Order("created_at asc").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// ClearChats deletes every message and room.
func (s *Service) ClearChats(ctx context.Context) (*ClearResult, error) {
	result := &ClearResult{}
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		return clearChats(tx, result)
	})
	if err != nil {
		return nil, err
	}
	result.Total = result.Messages + result.Chats
	return result, nil
}

func clearChats(tx *gorm.DB, result *ClearResult) error {
	res := tx.Where("1 = 1").Delete(&models.Message{})
	if res.Error != nil {
		return res.Error
	}
	result.Messages = res.RowsAffected

	res = tx.Where("1 = 1").Delete(&models.ChatRoom{})
	if res.Error != nil {
		return res.Error
	}
	result.Chats = res.RowsAffected
	return nil
}
