// internal/game/types.go
//
// Core type definitions for the Hangman game engine.
// Defines:
//   - State: playing / won / lost.
//   - Game: state for a single in-progress or finished game.
//   - Result: what a single guess did.
//   - Outcome + Reporter: the terminal event handed to the stats layer.

package game

import (
	"context"
	"time"
)

// State is the coarse lifecycle of a game. Won and lost are terminal.
type State string

const (
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateLost    State = "lost"
)

// Terminal reports whether no further guesses are accepted.
func (s State) Terminal() bool { return s == StateWon || s == StateLost }

// MaxMistakes is the number of wrong letters a player may survive;
// the next one loses the game.
const MaxMistakes = 6

// Placeholder marks an unrevealed letter in the masked word.
const Placeholder = '_'

// Game holds the state of a single Hangman game.
// Guessed and Incorrect are rune sequences kept as strings so the whole
// value round-trips through JSON (Redis store).
type Game struct {
	ID        string    `json:"id"`        // uuid
	Word      string    `json:"word"`      // target word, uppercased, immutable
	Custom    bool      `json:"custom"`    // user-supplied word, never reported
	UserID    int64     `json:"userId"`    // owner
	Guessed   string    `json:"guessed"`   // distinct guessed runes, in guess order
	Incorrect string    `json:"incorrect"` // distinct wrong runes, in guess order
	Mistakes  int       `json:"mistakes"`  // == rune count of Incorrect
	State     State     `json:"state"`
	Forfeited bool      `json:"forfeited"`
	Reported  bool      `json:"reported"` // outcome already taken
	StartedAt time.Time `json:"startedAt"`
}

// Result describes the effect of one accepted guess.
type Result struct {
	Letter    string `json:"letter"`
	Correct   bool   `json:"correct"`
	Repeated  bool   `json:"repeated"`
	Remaining int    `json:"remaining"`
	Mistakes  int    `json:"mistakes"`
	State     State  `json:"state"`
}

// Outcome is emitted once when a non-custom game ends.
type Outcome struct {
	Word   string `json:"word"`
	Won    bool   `json:"won"`
	UserID int64  `json:"userId"`
}

// Reporter records outcomes (implemented by the stats store).
//
//go:generate mockgen -destination=mocks/mock_reporter.go -package=mocks . Reporter
type Reporter interface {
	RecordOutcome(ctx context.Context, o Outcome) error
}
