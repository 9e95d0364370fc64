package services

import (
	"context"
	"errors"

	"quizboard/models"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrDuplicateKey   = errors.New("duplicate key")
)

// Store is the set of data operations available inside one unit of work.
type Store interface {
	CreateGame(game *models.Game) error
	GameByCode(code string) (*models.Game, error)
	AddPlayer(player *models.Player) error
	// AdjustScore applies delta and returns the stored score in one atomic step.
	AdjustScore(playerID string, delta int) (int, error)
	// Leaderboard lists a game's players by score, highest first.
	Leaderboard(gameID string) ([]models.Player, error)
}

// Provider hands out a Store scoped to a single unit of work. The Store must
// not be used after fn returns; the underlying connection is released on every
// exit path and the work is committed only when fn returns nil.
type Provider interface {
	Run(ctx context.Context, fn func(Store) error) error
}
