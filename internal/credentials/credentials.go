// internal/credentials/credentials.go
//
// Users table access for the account service.
// Lookups are exact (case-sensitive); uniqueness is enforced by the table.

// Package credentials is the SQL-backed account.CredentialStore.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"

	"github.com/robalobadob/hangman/internal/account"
	"github.com/robalobadob/hangman/internal/database"
)

var tracer = otel.Tracer("credentials")

// Store persists users in the users table. Username uniqueness comes from the
// table's UNIQUE constraint, not from a read-before-write.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a Store on db (any driver opened by database.Open).
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

var _ account.CredentialStore = (*Store)(nil)

// FindByUsername returns account.ErrNotFound when no row matches exactly.
func (s *Store) FindByUsername(ctx context.Context, username string) (account.Credential, error) {
	ctx, span := tracer.Start(ctx, "CredentialStore.FindByUsername")
	defer span.End()

	var c account.Credential
	err := s.db.GetContext(ctx, &c,
		s.db.Rebind(`SELECT id, username, password_hash FROM users WHERE username = ?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return account.Credential{}, account.ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return account.Credential{}, fmt.Errorf("get user by username: %w", err)
	}
	return c, nil
}

// InsertUser stores a new user and returns its id. A concurrent or repeated
// username yields account.ErrDuplicateUsername.
func (s *Store) InsertUser(ctx context.Context, username, passwordHash string) (int64, error) {
	ctx, span := tracer.Start(ctx, "CredentialStore.InsertUser")
	defer span.End()

	var (
		id  int64
		err error
	)
	if s.db.DriverName() == database.Postgres {
		err = s.db.GetContext(ctx, &id,
			`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`, username, passwordHash)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, `INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, passwordHash)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, account.ErrDuplicateUsername
		}
		span.RecordError(err)
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}
