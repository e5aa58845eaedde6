// internal/client/session.go
//
// Stateful player session on top of Client.

package client

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/robalobadob/hangman/internal/account"
	"github.com/robalobadob/hangman/internal/stats"
)

type lane int

const (
	laneAccount lane = iota
	laneGame
	laneCount
)

type laneState struct {
	busy   bool
	epoch  uint64
	cancel context.CancelFunc
}

// Session is one player's connection state. Its methods are safe for
// concurrent use.
type Session struct {
	c *Client

	mu       sync.Mutex
	identity *account.Identity
	token    string
	game     *GameView
	lanes    [laneCount]laneState
}

// NewSession starts a signed-out session on c.
func (c *Client) NewSession() *Session {
	return &Session{c: c}
}

var (
	_ account.UsernameChecker = (*Session)(nil)
	_ account.Registrar       = (*Session)(nil)
)

// Identity returns the signed-in identity.
func (s *Session) Identity() (account.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return account.Identity{}, false
	}
	return *s.identity, true
}

// Game returns the last known state of the current game.
func (s *Session) Game() (GameView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return GameView{}, false
	}
	return *s.game, true
}

// begin claims a lane for one request. The returned context carries the
// session timeout; done must be called when the request is over.
func (s *Session) begin(ctx context.Context, l lane) (context.Context, uint64, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls := &s.lanes[l]
	if ls.busy {
		return nil, 0, nil, ErrBusy
	}
	ctx, cancel := context.WithTimeout(ctx, s.c.timeout)
	ls.busy = true
	ls.cancel = cancel
	epoch := ls.epoch
	done := func() {
		s.mu.Lock()
		if ls.epoch == epoch {
			ls.busy = false
			ls.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}
	return ctx, epoch, done, nil
}

// reset cancels whatever is in flight on l and makes its response stale.
// Must be called with mu held.
func (s *Session) reset(l lane) {
	ls := &s.lanes[l]
	if ls.cancel != nil {
		ls.cancel()
	}
	ls.epoch++
	ls.busy = false
	ls.cancel = nil
}

// commit applies fn if l is still on epoch, else reports ErrStale. A request
// error is only surfaced for current requests: a cancelled stale call reports
// ErrStale, not the cancellation.
func (s *Session) commit(l lane, epoch uint64, reqErr error, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lanes[l].epoch != epoch {
		return ErrStale
	}
	if reqErr != nil {
		return reqErr
	}
	if fn != nil {
		fn()
	}
	return nil
}

func (s *Session) currentToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNotAuthenticated
	}
	return s.token, nil
}

// ------------------------------- account -----------------------------------

// CheckUsername validates locally, then asks the server whether the name is free.
func (s *Session) CheckUsername(ctx context.Context, username string) error {
	if !account.ValidUsername(username) {
		return account.ErrBlankUsername
	}
	ctx, epoch, done, err := s.begin(ctx, laneAccount)
	if err != nil {
		return err
	}
	defer done()
	reqErr := s.c.do(ctx, http.MethodPost, "/auth/username", "", map[string]string{"username": username}, nil)
	return s.commit(laneAccount, epoch, accountErr(reqErr), nil)
}

// EvaluatePassword asks the server for the requirement report. account.Evaluate
// gives the same answer locally.
func (s *Session) EvaluatePassword(ctx context.Context, password string) (account.PasswordReport, error) {
	ctx, epoch, done, err := s.begin(ctx, laneAccount)
	if err != nil {
		return account.PasswordReport{}, err
	}
	defer done()
	var out struct {
		Report account.PasswordReport `json:"report"`
	}
	reqErr := s.c.do(ctx, http.MethodPost, "/auth/password/evaluate", "", map[string]string{"password": password}, &out)
	if err := s.commit(laneAccount, epoch, reqErr, nil); err != nil {
		return account.PasswordReport{}, err
	}
	return out.Report, nil
}

// Register creates the account and signs the session in. Validation failures
// never reach the network.
func (s *Session) Register(ctx context.Context, username, password, confirmation string) (account.Identity, error) {
	if !account.ValidUsername(username) {
		return account.Identity{}, account.ErrBlankUsername
	}
	if err := account.ValidatePassword(password, confirmation); err != nil {
		return account.Identity{}, err
	}
	return s.authenticate(ctx, "/auth/register", map[string]string{
		"username": username, "password": password, "confirmation": confirmation,
	})
}

// Login signs the session in.
func (s *Session) Login(ctx context.Context, username, password string) (account.Identity, error) {
	if username == "" || password == "" {
		return account.Identity{}, account.ErrBlankFields
	}
	return s.authenticate(ctx, "/auth/login", map[string]string{"username": username, "password": password})
}

func (s *Session) authenticate(ctx context.Context, path string, body any) (account.Identity, error) {
	ctx, epoch, done, err := s.begin(ctx, laneAccount)
	if err != nil {
		return account.Identity{}, err
	}
	defer done()

	var res authResponse
	reqErr := accountErr(s.c.do(ctx, http.MethodPost, path, "", body, &res))
	ident := account.Identity{UserID: res.ID, Username: res.Username}
	err = s.commit(laneAccount, epoch, reqErr, func() {
		s.identity = &ident
		s.token = res.Token
		s.game = nil
		// Game calls from the previous sign-in must not land in this one.
		s.reset(laneGame)
	})
	if err != nil {
		return account.Identity{}, err
	}
	return ident, nil
}

// Logout signs the session out immediately, dropping any in-flight responses,
// then tells the server. The session is cleared even if that call fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.reset(laneAccount)
	s.reset(laneGame)
	s.identity = nil
	s.token = ""
	s.game = nil
	s.mu.Unlock()

	if token == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.c.timeout)
	defer cancel()
	return s.c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// --------------------------------- game ------------------------------------

// NewGame starts a game, replacing the current one.
func (s *Session) NewGame(ctx context.Context, req NewGame) (GameView, error) {
	return s.gameCall(ctx, http.MethodPost, func(string) string { return "/game/new" }, false, req)
}

// Refresh reloads the current game.
func (s *Session) Refresh(ctx context.Context) (GameView, error) {
	return s.gameCall(ctx, http.MethodGet, func(id string) string { return "/game/" + url.PathEscape(id) }, true, nil)
}

// Forfeit gives up the current game.
func (s *Session) Forfeit(ctx context.Context) (GameView, error) {
	return s.gameCall(ctx, http.MethodPost, func(id string) string { return "/game/" + url.PathEscape(id) + "/forfeit" }, true, nil)
}

// Guess submits one letter. A second Guess while one is in flight fails with
// ErrBusy rather than queueing.
func (s *Session) Guess(ctx context.Context, letter string) (GuessResult, error) {
	token, err := s.currentToken()
	if err != nil {
		return GuessResult{}, err
	}
	id, err := s.currentGameID()
	if err != nil {
		return GuessResult{}, err
	}
	ctx, epoch, done, err := s.begin(ctx, laneGame)
	if err != nil {
		return GuessResult{}, err
	}
	defer done()

	var res GuessResult
	reqErr := s.c.do(ctx, http.MethodPost, "/game/"+url.PathEscape(id)+"/guess", token, map[string]string{"guess": letter}, &res)
	err = s.commit(laneGame, epoch, reqErr, func() { s.game = &res.Game })
	if err != nil {
		return GuessResult{}, err
	}
	return res, nil
}

// Abandon drops the current game locally and discards any in-flight game response.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(laneGame)
	s.game = nil
}

func (s *Session) currentGameID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return "", ErrNoGame
	}
	return s.game.ID, nil
}

func (s *Session) gameCall(ctx context.Context, method string, path func(id string) string, needGame bool, body any) (GameView, error) {
	token, err := s.currentToken()
	if err != nil {
		return GameView{}, err
	}
	var id string
	if needGame {
		if id, err = s.currentGameID(); err != nil {
			return GameView{}, err
		}
	}
	ctx, epoch, done, err := s.begin(ctx, laneGame)
	if err != nil {
		return GameView{}, err
	}
	defer done()

	var v GameView
	reqErr := s.c.do(ctx, method, path(id), token, body, &v)
	if err := s.commit(laneGame, epoch, reqErr, func() { s.game = &v }); err != nil {
		return GameView{}, err
	}
	return v, nil
}

// -------------------------------- stats ------------------------------------

// Stats fetches the player's per-word record. It shares the game lane, as the
// stats screen follows a finished game.
func (s *Session) Stats(ctx context.Context) (Stats, error) {
	token, err := s.currentToken()
	if err != nil {
		return Stats{}, err
	}
	ctx, epoch, done, err := s.begin(ctx, laneGame)
	if err != nil {
		return Stats{}, err
	}
	defer done()

	var out Stats
	reqErr := s.c.do(ctx, http.MethodGet, "/stats/me", token, nil, &out)
	if err := s.commit(laneGame, epoch, reqErr, nil); err != nil {
		return Stats{}, err
	}
	return out, nil
}

// WordTally fetches the all-players record for word. It needs no session.
func (c *Client) WordTally(ctx context.Context, word string) (stats.Tally, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	var t stats.Tally
	err := c.do(ctx, http.MethodGet, "/stats/words/"+url.PathEscape(word), "", nil, &t)
	return t, err
}
