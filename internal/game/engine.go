// internal/game/engine.go
//
// Core game engine for a single Hangman session.
// Responsibilities:
//   - Create games for a committed word.
//   - Apply guesses: truncate to one letter, track guessed / incorrect letters.
//   - Track state transitions: playing → won/lost (win checked first).
//   - Derive the masked word and the remaining-letter count from Word + Guessed.
//   - Hand out the terminal outcome exactly once.

package game

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrGameOver   = errors.New("game over")
	ErrEmptyGuess = errors.New("empty guess")
)

// Options configure a new game.
type Options struct {
	Custom bool
	UserID int64
}

// New constructs a game for word. The word is used as given (callers draw or
// normalise it through the words package).
func New(word string, opts Options) *Game {
	return &Game{
		ID:        uuid.NewString(),
		Word:      word,
		Custom:    opts.Custom,
		UserID:    opts.UserID,
		State:     StatePlaying,
		StartedAt: time.Now().UTC(),
	}
}

// TruncateGuess reduces raw input to the single letter that will be guessed:
// surrounding whitespace is dropped, only the first rune is kept, uppercased.
// Returns "" when nothing is left.
func TruncateGuess(input string) string {
	input = strings.TrimSpace(input)
	r, size := utf8.DecodeRuneInString(input)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// Guess applies one guess and returns what it did.
//
// Rules:
//   - Terminal games reject guesses with ErrGameOver.
//   - Multi-character input is truncated to its first letter.
//   - A letter absent from the word counts as a mistake the first time only.
//   - Remaining == 0 wins; otherwise Mistakes > MaxMistakes loses.
func (g *Game) Guess(input string) (Result, error) {
	if g.State.Terminal() {
		return Result{}, ErrGameOver
	}
	letter := TruncateGuess(input)
	if letter == "" {
		return Result{}, ErrEmptyGuess
	}

	res := Result{Letter: letter}
	if strings.Contains(g.Guessed, letter) {
		res.Repeated = true
	} else {
		g.Guessed += letter
	}

	res.Correct = strings.Contains(g.Word, letter)
	if !res.Correct && !strings.Contains(g.Incorrect, letter) {
		g.Incorrect += letter
		g.Mistakes++
	}

	res.Remaining = g.Remaining()
	switch {
	case res.Remaining == 0:
		g.State = StateWon
	case g.Mistakes > MaxMistakes:
		g.State = StateLost
	}
	res.Mistakes = g.Mistakes
	res.State = g.State
	return res, nil
}

// Forfeit gives up the game; it is lost regardless of counters.
func (g *Game) Forfeit() error {
	if g.State.Terminal() {
		return ErrGameOver
	}
	g.State = StateLost
	g.Forfeited = true
	return nil
}

// Remaining counts letter positions (spaces excluded) not yet guessed.
func (g *Game) Remaining() int {
	n := 0
	for _, r := range g.Word {
		if r != ' ' && !strings.ContainsRune(g.Guessed, r) {
			n++
		}
	}
	return n
}

// Masked renders the word with unguessed letters replaced by Placeholder.
// Spaces are always shown.
func (g *Game) Masked() string {
	var b strings.Builder
	b.Grow(len(g.Word))
	for _, r := range g.Word {
		if r == ' ' || strings.ContainsRune(g.Guessed, r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(Placeholder)
		}
	}
	return b.String()
}

// TakeOutcome returns the terminal outcome the first time it is called after
// the game ends. Custom games never produce one.
func (g *Game) TakeOutcome() (Outcome, bool) {
	if !g.OutcomePending() {
		return Outcome{}, false
	}
	g.Reported = true
	return Outcome{Word: g.Word, Won: g.State == StateWon, UserID: g.UserID}, true
}

// OutcomePending reports whether the game ended with an outcome nobody has
// taken yet.
func (g *Game) OutcomePending() bool {
	return g.State.Terminal() && !g.Custom && !g.Reported
}

// ReleaseOutcome hands a taken outcome back after recording it failed, so the
// next TakeOutcome returns it again.
func (g *Game) ReleaseOutcome() {
	if g.State.Terminal() && !g.Custom {
		g.Reported = false
	}
}
