package storage

import (
	"context"
	"crewfinder/backend/internal/models"

	"gorm.io/gorm/clause"
)

// CreateGameIfAbsent inserts game unless a game with the same id exists.
// It reports whether a row was written.
func (s *Service) CreateGameIfAbsent(ctx context.Context, game *models.Game) (bool, error) {
	if game.SubmittedAt.IsZero() {
		game.SubmittedAt = s.now()
	}
	res := s.db(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(game)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListGames returns games sorted by name.
func (s *Service) ListGames(ctx context.Context, verifiedOnly bool) ([]models.Game, error) {
	q := s.db(ctx).Order("name asc")
	if verifiedOnly {
		q = q.Where("is_verified = ?", true)
	}
	var games []models.Game
	if err := q.Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (s *Service) SetGameVerified(ctx context.Context, gameID string, verified bool) error {
	res := s.db(ctx).Model(&models.Game{}).Where("id = ?", gameID).Update("is_verified", verified)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteGame(ctx context.Context, gameID string) error {
	res := s.db(ctx).Where("id = ?", gameID).Delete(&models.Game{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
