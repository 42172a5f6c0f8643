package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/shopx-dev/shopx/internal/session"
)

type User struct {
	ID    int          `json:"id"`
	Email string       `json:"email"`
	Name  *string      `json:"name"`
	Role  session.Role `json:"role"`
}

// GetUser returns the user or nil when no row exists.
func (s *Store) GetUser(ctx context.Context, id int) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Authenticate verifies email+password against the stored bcrypt hash.
// Unknown emails and wrong passwords both return nil so callers cannot tell
// them apart.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, password FROM users WHERE lower(email) = $1`, email)

	var (
		user User
		hash string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: query user by email: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, nil
	}
	return &user, nil
}

// UpdateProfile applies the non-nil fields and returns the updated user, or
// nil when the user does not exist.
func (s *Store) UpdateProfile(ctx context.Context, id int, email, name *string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE users
		    SET email = COALESCE($2, email),
		        name  = COALESCE($3, name)
		  WHERE id = $1
		RETURNING id, email, name, role`, id, email, name)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	return &user, nil
}
