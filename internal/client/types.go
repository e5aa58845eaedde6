// internal/client/types.go
//
// Response payloads of the Hangman API.

package client

import (
	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/stats"
)

// GameView is the server's view of a game. Word is set once the game is over.
type GameView struct {
	ID          string     `json:"id"`
	Masked      string     `json:"masked"`
	Length      int        `json:"length"`
	State       game.State `json:"state"`
	Guessed     []string   `json:"guessed"`
	Incorrect   []string   `json:"incorrect"`
	Mistakes    int        `json:"mistakes"`
	MaxMistakes int        `json:"maxMistakes"`
	Remaining   int        `json:"remaining"`
	Custom      bool       `json:"custom"`
	Forfeited   bool       `json:"forfeited"`
	Word        string     `json:"word,omitempty"`
}

// GuessResult is the response to a guess.
type GuessResult struct {
	Result game.Result `json:"result"`
	Game   GameView    `json:"game"`
}

// NewGame selects what to play: a difficulty, or a custom word.
type NewGame struct {
	Difficulty string `json:"difficulty,omitempty"`
	Custom     string `json:"custom,omitempty"`
}

// Stats is the signed-in player's record.
type Stats struct {
	Username string           `json:"username"`
	Words    []stats.WordStat `json:"words"`
	Totals   stats.Totals     `json:"totals"`
}

type authResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}
