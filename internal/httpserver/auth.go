// internal/httpserver/auth.go
//
// Account endpoints and JWT session handling.
//   - POST /auth/username           → is the username valid and free?
//   - POST /auth/password/evaluate  → per-requirement password report
//   - POST /auth/register           → register, log in, set cookie
//   - POST /auth/login              → log in, set cookie
//   - POST /auth/logout             → clear cookie, discard the active game
//   - GET  /auth/me                 → current identity (requires auth)
//
// The session identity travels as an HS256 JWT, either in the auth cookie or
// as "Authorization: Bearer <token>".

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/hangman/internal/account"
)

// Request payloads. Field contents are validated by the account package so
// every failure carries its account error kind.
type usernameReq struct {
	Username string `json:"username"`
}
type evaluateReq struct {
	Password string `json:"password"`
}
type registerReq struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authRes is returned by register and login.
type authRes struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// mountAuthRoutes registers /auth/*.
func (s *Server) mountAuthRoutes() {
	s.r.Route("/auth", func(r chi.Router) {
		r.Post("/username", s.handleCheckUsername)
		r.Post("/password/evaluate", s.handleEvaluatePassword)
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(s.withOptionalAuth()).Post("/logout", s.handleLogout)
		r.With(s.requireAuth()).Get("/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, identityFrom(r.Context()))
		})
	})
}

func (s *Server) handleCheckUsername(w http.ResponseWriter, r *http.Request) {
	var body usernameReq
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.deps.Accounts.CheckUsername(r.Context(), body.Username); err != nil {
		writeAccountError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": true})
}

func (s *Server) handleEvaluatePassword(w http.ResponseWriter, r *http.Request) {
	var body evaluateReq
	if !s.decode(w, r, &body) {
		return
	}
	rep := account.Evaluate(body.Password)
	unmet := rep.Unmet()
	if unmet == nil {
		unmet = []account.Requirement{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": rep, "unmet": unmet})
}

// handleRegister creates the user, signs a JWT and sets the auth cookie.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerReq
	if !s.decode(w, r, &body) {
		return
	}
	ident, err := s.deps.Accounts.Register(r.Context(), body.Username, body.Password, body.Confirmation)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}
	s.issueSession(w, r, ident, http.StatusCreated)
}

// handleLogin authenticates the user and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if !s.decode(w, r, &body) {
		return
	}
	ident, err := s.deps.Accounts.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}
	s.issueSession(w, r, ident, http.StatusOK)
}

// handleLogout clears the auth cookie and drops the caller's game, if any.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if me := identityFrom(r.Context()); me != nil {
		s.settleActive(r, me.UserID)
		if err := s.deps.Games.Discard(r.Context(), me.UserID); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Int64("user", me.UserID).Msg("discard game on logout")
		}
	}
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, ident account.Identity, status int) {
	tok, exp, err := s.signJWT(ident)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "sign_failed", err)
		return
	}
	s.setAuthCookie(w, tok, exp)
	writeJSON(w, status, authRes{ID: ident.UserID, Username: ident.Username, Token: tok})
}

// ------------------------------ JWT & cookies ------------------------------

// sessionClaims is the JWT payload.
type sessionClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// signJWT creates an HS256 JWT for ident expiring after JWTExpiresDays.
func (s *Server) signJWT(ident account.Identity) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(time.Duration(s.cfg.JWTExpiresDays) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		UserID:   ident.UserID,
		Username: ident.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

// parseJWT validates tok and returns the identity it carries.
func (s *Server) parseJWT(tok string) (*account.Identity, error) {
	var c sessionClaims
	_, err := jwt.ParseWithClaims(tok, &c, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if c.UserID == 0 || c.Username == "" {
		return nil, errors.New("token missing identity")
	}
	return &account.Identity{UserID: c.UserID, Username: c.Username}, nil
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	c := s.authCookie()
	c.Value = token
	c.Expires = exp
	http.SetCookie(w, c)
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	c := s.authCookie()
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func (s *Server) authCookie() *http.Cookie {
	secure := s.cfg.Production()
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for cross-site use when Secure
	}
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ---------------------------- auth middleware ------------------------------

// ctxUserKey is the context key type for storing the identity.
type ctxUserKey struct{}

func identityFrom(ctx context.Context) *account.Identity {
	me, _ := ctx.Value(ctxUserKey{}).(*account.Identity)
	return me
}

// requireAuth enforces a valid JWT and injects the identity into the request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := s.bearerOrCookie(r)
			if tok == "" {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			me, err := s.parseJWT(tok)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "invalid_token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me)))
		})
	}
}

// withOptionalAuth decorates requests with the identity if a valid JWT is present.
// It never 401s.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := s.bearerOrCookie(r); tok != "" {
				if me, err := s.parseJWT(tok); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
