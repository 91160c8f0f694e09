package storage

import (
	"context"
	"crewfinder/backend/internal/models"
	"errors"

	"gorm.io/gorm"
)

// CreatePost inserts post. When the author already has a row with
// post.ClientID the insert is skipped, post is overwritten with that row
// and false is returned, so replays of the same draft are harmless. Client
// ids of other authors never match.
func (s *Service) CreatePost(ctx context.Context, post *models.Post) (bool, error) {
	if post.ClientID != nil {
		existing, err := s.postByClientID(ctx, post.AuthorID, *post.ClientID)
		if err == nil {
			*post = *existing
			return false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return false, err
		}
	}

	err := s.db(ctx).Create(post).Error
	if err == nil {
		return true, nil
	}

	// Lost a race with a concurrent replay of the same draft.
	if errors.Is(err, gorm.ErrDuplicatedKey) && post.ClientID != nil {
		existing, findErr := s.postByClientID(ctx, post.AuthorID, *post.ClientID)
		if findErr == nil {
			*post = *existing
			return false, nil
		}
	}
	return false, err
}

func (s *Service) postByClientID(ctx context.Context, authorID, clientID string) (*models.Post, error) {
	var post models.Post
	if err := s.db(ctx).Where("author_id = ? AND client_id = ?", authorID, clientID).First(&post).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

func (s *Service) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	if err := s.db(ctx).Where("id = ?", postID).First(&post).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// ListActivePosts returns active posts, newest first.
func (s *Service) ListActivePosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db(ctx).Where("is_active = ?", true).Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Service) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db(ctx).Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Service) ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db(ctx).Where("author_id = ?", authorID).Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Service) CountPostsByAuthor(ctx context.Context, authorID string) (int64, error) {
	var n int64
	err := s.db(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, err
}

func (s *Service) SetPostActive(ctx context.Context, postID string, active bool) error {
	res := s.db(ctx).Model(&models.Post{}).Where("id = ?", postID).Updates(map[string]interface{}{
		"is_active":  active,
		"updated_at": s.now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeletePost(ctx context.Context, postID string) error {
	res := s.db(ctx).Where("id = ?", postID).Delete(&models.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearAll deletes every post, message and room. Users and games stay.
func (s *Service) ClearAll(ctx context.Context) (*ClearResult, error) {
	result := &ClearResult{}
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("1 = 1").Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		result.Posts = res.RowsAffected
		return clearChats(tx, result)
	})
	if err != nil {
		return nil, err
	}
	result.Total = result.Posts + result.Messages + result.Chats
	return result, nil
}
