// internal/httpserver/routes_game.go
//
// HTTP routes for playing Hangman. All require auth.
//   - POST /game/new           → start a game from a difficulty or a custom word
//   - GET  /game/{id}          → current view of the caller's game
//   - POST /game/{id}/guess    → guess one letter
//   - POST /game/{id}/forfeit  → give up
//
// Games live in the session store. A user has one game at a time; starting a
// new one discards the previous. The outcome of a finished game is taken inside
// the store's atomic update and reported to the stats store after it commits,
// so it is counted at most once however many requests race. A report that
// fails hands the outcome back to the game, and the next request that sees the
// finished game records it.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/hangman/internal/account"
	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/store"
	"github.com/robalobadob/hangman/internal/words"
)

// drawAttempts bounds how many corrupt list entries a new game tolerates.
const drawAttempts = 3

// reportTimeout bounds recording an outcome. It runs detached from the request
// so a client that hangs up after the final guess still gets counted.
const reportTimeout = 5 * time.Second

var (
	// errNotOwner hides other users' games behind a 404.
	errNotOwner = errors.New("game belongs to another user")

	errNothingPending = errors.New("no pending outcome")
)

// mountGame registers all /game routes.
func (s *Server) mountGame() {
	s.r.Route("/game", func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Post("/new", s.handleNewGame)
		r.Get("/{id}", s.handleGetGame)
		r.Post("/{id}/guess", s.handleGuess)
		r.Post("/{id}/forfeit", s.handleForfeit)
	})
}

// gameView is what clients see of a game. The word is only revealed once the
// game is over.
type gameView struct {
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

func viewOf(g *game.Game) gameView {
	v := gameView{
		ID:          g.ID,
		Masked:      g.Masked(),
		Length:      len([]rune(g.Word)),
		State:       g.State,
		Guessed:     letters(g.Guessed),
		Incorrect:   letters(g.Incorrect),
		Mistakes:    g.Mistakes,
		MaxMistakes: game.MaxMistakes,
		Remaining:   g.Remaining(),
		Custom:      g.Custom,
		Forfeited:   g.Forfeited,
	}
	if g.State.Terminal() {
		v.Word = g.Word
	}
	return v
}

func letters(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// -----------------------------------------------------------------------------
// /game/new

// newGameReq selects a drawn word by difficulty or supplies a custom word.
type newGameReq struct {
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=medium long normal hard"`
	Custom     string `json:"custom"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	me := identityFrom(r.Context())
	var req newGameReq
	if !s.decode(w, r, &req) {
		return
	}

	var (
		word  string
		opts  = game.Options{UserID: me.UserID}
		label string
	)
	if req.Custom != "" {
		custom, err := words.NormalizeCustom(req.Custom)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_custom_word", nil)
			return
		}
		word, opts.Custom, label = custom, true, "custom"
	} else {
		d := words.Medium
		if req.Difficulty != "" {
			var err error
			if d, err = words.ParseDifficulty(req.Difficulty); err != nil {
				writeError(w, r, http.StatusBadRequest, "unknown_difficulty", nil)
				return
			}
		}
		drawn, err := s.draw(r, d)
		if err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "no_valid_word", err)
			return
		}
		word, label = drawn, string(d)
	}

	s.settleActive(r, me.UserID)
	g := game.New(word, opts)
	if err := s.deps.Games.Create(r.Context(), g); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "save_failed", err)
		return
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.GameStarted(r.Context(), label)
	}
	hlog.FromRequest(r).Debug().Str("gameId", g.ID).Int64("user", me.UserID).Str("mode", label).Msg("game started")
	writeJSON(w, http.StatusCreated, viewOf(g))
}

// draw asks the word source a few times before giving up on a corrupt list.
func (s *Server) draw(r *http.Request, d words.Difficulty) (string, error) {
	var err error
	for i := 0; i < drawAttempts; i++ {
		var w string
		if w, err = s.deps.Words.Draw(d); err == nil {
			return w, nil
		}
		if !errors.Is(err, words.ErrNoValidWord) {
			return "", err
		}
		hlog.FromRequest(r).Warn().Err(err).Str("difficulty", string(d)).Msg("invalid word drawn, retrying")
	}
	return "", err
}

// -----------------------------------------------------------------------------
// /game/{id}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	me := identityFrom(r.Context())
	g, err := s.deps.Games.Get(r.Context(), chi.URLParam(r, "id"))
	if err == nil && g.UserID != me.UserID {
		err = errNotOwner
	}
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	if g.OutcomePending() {
		s.settle(r, g.ID, me.UserID)
	}
	writeJSON(w, http.StatusOK, viewOf(g))
}

// -----------------------------------------------------------------------------
// /game/{id}/guess and /game/{id}/forfeit

type guessReq struct {
	Guess string `json:"guess"`
}

type guessRes struct {
	Result game.Result `json:"result"`
	Game   gameView    `json:"game"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if !s.decode(w, r, &req) {
		return
	}
	var res game.Result
	g, ok := s.mutate(w, r, func(g *game.Game) error {
		var err error
		res, err = g.Guess(req.Guess)
		return err
	})
	if !ok {
		return
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.Guess(r.Context(), res.Correct)
	}
	writeJSON(w, http.StatusOK, guessRes{Result: res, Game: viewOf(g)})
}

func (s *Server) handleForfeit(w http.ResponseWriter, r *http.Request) {
	g, ok := s.mutate(w, r, func(g *game.Game) error { return g.Forfeit() })
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g))
}

// mutate applies fn to the caller's game through the store and, when this call
// ended the game, reports the outcome. Writes the error response itself.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*game.Game) error) (*game.Game, bool) {
	me := identityFrom(r.Context())
	var (
		outcome game.Outcome
		took    bool
	)
	g, err := s.deps.Games.Update(r.Context(), chi.URLParam(r, "id"), func(g *game.Game) error {
		if g.UserID != me.UserID {
			return errNotOwner
		}
		if err := fn(g); err != nil {
			return err
		}
		outcome, took = g.TakeOutcome()
		return nil
	})
	if err != nil {
		if errors.Is(err, game.ErrGameOver) {
			s.settle(r, chi.URLParam(r, "id"), me.UserID)
		}
		s.writeGameError(w, r, err)
		return nil, false
	}

	// Terminal games reject every mutation, so a terminal result means this
	// call ended the game.
	if g.State.Terminal() && s.deps.Metrics != nil {
		s.deps.Metrics.GameFinished(r.Context(), string(g.State))
	}
	if took {
		s.report(r, g.ID, outcome)
	}
	return g, true
}

// report records a taken outcome. On failure the outcome is released back to
// the game so settle can retry it.
func (s *Server) report(r *http.Request, gameID string, o game.Outcome) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), reportTimeout)
	defer cancel()

	err := s.deps.Stats.RecordOutcome(ctx, o)
	if err == nil {
		return
	}
	log := hlog.FromRequest(r)
	log.Warn().Err(err).Str("gameId", gameID).Int64("user", o.UserID).Msg("record outcome failed, keeping it pending")
	_, err = s.deps.Games.Update(ctx, gameID, func(g *game.Game) error {
		g.ReleaseOutcome()
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Int64("user", o.UserID).Msg("release outcome")
	}
}

// settle takes an outcome left pending by an earlier failed report and
// records it.
func (s *Server) settle(r *http.Request, gameID string, userID int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), reportTimeout)
	defer cancel()

	var outcome game.Outcome
	_, err := s.deps.Games.Update(ctx, gameID, func(g *game.Game) error {
		if g.UserID != userID {
			return errNotOwner
		}
		var ok bool
		if outcome, ok = g.TakeOutcome(); !ok {
			return errNothingPending
		}
		return nil
	})
	switch {
	case err == nil:
		s.report(r, gameID, outcome)
	case errors.Is(err, errNothingPending), errors.Is(err, store.ErrNotFound), errors.Is(err, errNotOwner):
	default:
		hlog.FromRequest(r).Warn().Err(err).Str("gameId", gameID).Msg("settle outcome")
	}
}

// settleActive settles the user's live game before it is replaced or dropped.
func (s *Server) settleActive(r *http.Request, userID int64) {
	id, err := s.deps.Games.Active(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			hlog.FromRequest(r).Warn().Err(err).Int64("user", userID).Msg("look up active game")
		}
		return
	}
	s.settle(r, id, userID)
}

func (s *Server) writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, errNotOwner):
		writeError(w, r, http.StatusNotFound, "game_not_found", nil)
	case errors.Is(err, game.ErrGameOver):
		writeError(w, r, http.StatusConflict, "game_over", nil)
	case errors.Is(err, game.ErrEmptyGuess):
		writeError(w, r, http.StatusBadRequest, "empty_guess", nil)
	case errors.Is(err, store.ErrConflict):
		writeError(w, r, http.StatusServiceUnavailable, "busy", err)
	default:
		writeError(w, r, http.StatusServiceUnavailable, string(account.KindTransport), err)
	}
}
