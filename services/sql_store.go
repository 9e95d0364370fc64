package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"quizboard/models"
)

// Migrate creates or updates the games and players tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Game{}, &models.Player{})
}

// SQLProvider runs each unit of work in its own database transaction.
type SQLProvider struct {
	db *gorm.DB
}

func NewSQLProvider(db *gorm.DB) *SQLProvider {
	return &SQLProvider{db: db}
}

func (p *SQLProvider) Run(ctx context.Context, fn func(Store) error) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&sqlStore{tx: tx})
	})
}

type sqlStore struct {
	tx *gorm.DB
}

func (s *sqlStore) CreateGame(game *models.Game) error {
	if err := s.tx.Create(game).Error; err != nil {
		return fmt.Errorf("insert game %s: %w", game.ID, err)
	}
	return nil
}

func (s *sqlStore) GameByCode(code string) (*models.Game, error) {
	var game models.Game
	err := s.tx.Where("code = ?", code).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find game by code: %w", err)
	}
	return &game, nil
}

func (s *sqlStore) AddPlayer(player *models.Player) error {
	if err := s.tx.Create(player).Error; err != nil {
		return fmt.Errorf("insert player %s: %w", player.ID, err)
	}
	return nil
}

func (s *sqlStore) AdjustScore(playerID string, delta int) (int, error) {
	var score int
	res := s.tx.Raw("UPDATE players SET score = score + ? WHERE id = ? RETURNING score", delta, playerID).
		Scan(&score)
	if res.Error != nil {
		return 0, fmt.Errorf("update score for %s: %w", playerID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrPlayerNotFound
	}
	return score, nil
}

func (s *sqlStore) Leaderboard(gameID string) ([]models.Player, error) {
	var players []models.Player
	err := s.tx.Select("id", "name", "score").
		Where("game_id = ?", gameID).
		Order("score DESC").
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("list players for %s: %w", gameID, err)
	}
	return players, nil
}
