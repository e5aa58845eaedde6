// internal/store/store.go
//
// Storage for in-progress games.
// A user owns at most one live game: creating a new one discards the previous,
// and logging out discards it too. Update is the only way to mutate a game and
// is atomic per game, so two requests can never both apply to the same state.

package store

import (
	"context"
	"errors"

	"github.com/robalobadob/hangman/internal/game"
)

var (
	ErrNotFound = errors.New("store: game not found")
	// ErrConflict is returned when an optimistic update keeps losing races.
	ErrConflict = errors.New("store: concurrent update, retry")
)

// Store defines the persistence interface for game sessions.
// Implementations are backed by memory (default) or Redis.
type Store interface {
	// Create saves g and makes it its owner's only game.
	Create(ctx context.Context, g *game.Game) error

	// Get returns a copy of the game, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Game, error)

	// Update applies fn to the game atomically and returns the committed copy.
	// If fn returns an error nothing is written and the error is returned as is.
	Update(ctx context.Context, id string, fn func(*game.Game) error) (*game.Game, error)

	// Active returns the id of the user's live game, or ErrNotFound.
	Active(ctx context.Context, userID int64) (string, error)

	// Discard drops the user's game, if any.
	Discard(ctx context.Context, userID int64) error
}
