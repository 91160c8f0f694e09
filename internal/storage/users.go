package storage

import (
	"context"
	"crewfinder/backend/internal/models"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// CreateUser inserts a new account. A taken email yields ErrDuplicate.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Service) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUsersByIDs loads users keyed by id. Unknown ids are simply absent.
func (s *Service) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := s.db(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// UpdateUser saves the editable profile columns.
func (s *Service) UpdateUser(ctx context.Context, user *models.User) error {
	res := s.db(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"display_name":    user.DisplayName,
		"bio":             user.Bio,
		"location":        user.Location,
		"discord_id":      user.DiscordID,
		"profile_picture": user.ProfilePicture,
		"platforms":       user.Platforms,
		"updated_at":      s.now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) TouchUserActivity(ctx context.Context, userID string) error {
	return s.db(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("last_activity", s.now()).Error
}

func (s *Service) SetUserRole(ctx context.Context, userID, role string) error {
	res := s.db(ctx).Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUserCascade removes the user, their posts, every room they take
// part in and the messages of those rooms, in one transaction.
func (s *Service) DeleteUserCascade(ctx context.Context, userID string) (*CascadeResult, error) {
	result := &CascadeResult{}

	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return notFound(err)
		}

		var roomIDs []string
		if err := tx.Model(&models.ChatRoom{}).
			Where("participant1_id = ? OR participant2_id = ?", userID, userID).
			Pluck("id", &roomIDs).Error; err != nil {
			return fmt.Errorf("list rooms: %w", err)
		}

		if len(roomIDs) > 0 {
			res := tx.Where("room_id IN ?", roomIDs).Delete(&models.Message{})
			if res.Error != nil {
				return fmt.Errorf("delete messages: %w", res.Error)
			}
			result.Messages = res.RowsAffected

			res = tx.Where("id IN ?", roomIDs).Delete(&models.ChatRoom{})
			if res.Error != nil {
				return fmt.Errorf("delete rooms: %w", res.Error)
			}
			result.Rooms = res.RowsAffected
		}

		res := tx.Where("author_id = ?", userID).Delete(&models.Post{})
		if res.Error != nil {
			return fmt.Errorf("delete posts: %w", res.Error)
		}
		result.Posts = res.RowsAffected

		return tx.Where("id = ?", userID).Delete(&models.User{}).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
