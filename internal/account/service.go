// internal/account/service.go
//
// Register / Login / CheckUsername over a CredentialStore.

// Package account implements registration, login and the password policy.
//
// The Service talks to a CredentialStore; it never sees SQL. Registration is
// also modelled as an explicit step machine (Registration) that both the
// server-side Service and the HTTP client SDK can drive.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Identity is the authenticated session identity.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}

// Credential is a stored username / password-hash pair.
type Credential struct {
	UserID       int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

// CredentialStore persists credentials. Implementations must enforce username
// uniqueness in storage and report a violation as ErrDuplicateUsername.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks . CredentialStore
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (Credential, error)
	InsertUser(ctx context.Context, username, passwordHash string) (int64, error)
}

// Service runs the account flow against a CredentialStore.
type Service struct {
	store     CredentialStore
	cost      int
	dummyHash []byte
}

// Option customises a Service.
type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost (tests use bcrypt.MinCost).
// Costs outside bcrypt's range keep the default.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// NewService constructs a Service.
func NewService(store CredentialStore, opts ...Option) *Service {
	s := &Service{store: store, cost: bcrypt.DefaultCost}
	for _, o := range opts {
		o(s)
	}
	// Compared against when the user does not exist so both failure paths cost
	// one bcrypt verification.
	hash, err := bcrypt.GenerateFromPassword([]byte("unused-Passw0rd!"), s.cost)
	if err != nil {
		// Only reachable if the system random source fails.
		panic(fmt.Sprintf("account: generate dummy hash: %v", err))
	}
	s.dummyHash = hash
	return s
}

// CheckUsername is the first registration step: the username must be valid and
// not yet taken.
func (s *Service) CheckUsername(ctx context.Context, username string) error {
	if !ValidUsername(username) {
		return ErrBlankUsername
	}
	_, err := s.store.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return ErrUsernameTaken
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return transportErr(fmt.Errorf("find user: %w", err))
	}
}

// Register validates the candidate, stores it and logs the new user in.
//
// The availability check and the insert are not atomic; a concurrent duplicate
// is caught by the store's uniqueness constraint and still reported as
// ErrUsernameTaken. If the insert succeeds but the follow-up login fails the
// user stays registered and KindPostRegistrationLogin is returned.
func (s *Service) Register(ctx context.Context, username, password, confirmation string) (Identity, error) {
	if err := s.CheckUsername(ctx, username); err != nil {
		return Identity{}, err
	}
	if err := ValidatePassword(password, confirmation); err != nil {
		return Identity{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.store.InsertUser(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return Identity{}, ErrUsernameTaken
		}
		return Identity{}, transportErr(fmt.Errorf("insert user: %w", err))
	}
	log.Info().Int64("user", id).Str("username", username).Msg("user registered")

	ident, err := s.Login(ctx, username, password)
	if err != nil {
		return Identity{}, &Error{Kind: KindPostRegistrationLogin, Err: err}
	}
	return ident, nil
}

// Login verifies the credentials. Unknown users and wrong passwords both
// return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (Identity, error) {
	if username == "" || password == "" {
		return Identity{}, ErrBlankFields
	}
	cred, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, transportErr(fmt.Errorf("find user: %w", err))
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{UserID: cred.UserID, Username: cred.Username}, nil
}
