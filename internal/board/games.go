package board

import (
	"context"
	"crewfinder/backend/internal/config"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/models"
	"errors"
	"strings"
)

var ErrGameNameRequired = &ValidationError{Field: "name", Message: "Please enter a game name"}

// SeedGames writes the predefined catalogue as verified games. Existing
// entries are left untouched; the number of new games is returned.
func (s *Service) SeedGames(ctx context.Context) (int, error) {
	added := 0
	for _, name := range config.Games {
		if name == config.OtherGame {
			continue
		}
		game := &models.Game{
			ID:          Slug(name),
			Name:        name,
			Category:    config.PopularGamesCategory,
			IsVerified:  true,
			SubmittedBy: config.SystemSubmitter,
			SubmittedAt: s.now(),
		}
		created, err := s.store.CreateGameIfAbsent(ctx, game)
		if err != nil {
			return added, err
		}
		if created {
			added++
		}
	}
	if added > 0 {
		logging.Ctx(ctx).Info().Int("added", added).Msg("game catalogue seeded")
	}
	return added, nil
}

// VerifiedGames returns the verified catalogue sorted by name.
func (s *Service) VerifiedGames(ctx context.Context) ([]models.Game, error) {
	return s.store.ListGames(ctx, true)
}

// SubmitGame records a user-submitted title for moderation. It reports
// whether the title was new.
func (s *Service) SubmitGame(ctx context.Context, userID, name string) (*models.Game, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == config.OtherGame {
		return nil, false, ErrGameNameRequired
	}
	if userID == "" {
		return nil, false, errors.New("submitter is required")
	}

	game := &models.Game{
		ID:          Slug(name),
		Name:        name,
		Category:    config.UserSubmittedCategory,
		IsVerified:  false,
		SubmittedBy: userID,
		SubmittedAt: s.now(),
	}
	created, err := s.store.CreateGameIfAbsent(ctx, game)
	if err != nil {
		return nil, false, err
	}
	return game, created, nil
}
