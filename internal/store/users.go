package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// User is an account row. PasswordHash is a bcrypt hash.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser inserts a user and returns it with its id. A duplicate email or
// username yields ErrEmailTaken or ErrUsernameTaken.
func (s *Store) CreateUser(ctx context.Context, email, username, passwordHash string) (User, error) {
	u := User{Email: email, Username: username, PasswordHash: passwordHash}
	created := s.unixNow()
	err := s.queryRow(ctx, `
		INSERT INTO users (email, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`,
		email, username, passwordHash, created,
	).Scan(&u.ID)
	if err != nil {
		if conflict := userConflict(err); conflict != nil {
			return User{}, conflict
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	u.CreatedAt = fromUnix(created)
	return u, nil
}

const userColumns = `id, email, username, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var (
		u       User
		created int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &created); err != nil {
		return User{}, err
	}
	u.CreatedAt = fromUnix(created)
	return u, nil
}

// UserByEmail looks a user up by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("user by email: %w", err)
	}
	return u, nil
}

// UserByID looks a user up by id.
func (s *Store) UserByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("user by id: %w", err)
	}
	return u, nil
}

// DeleteUser removes a user together with their profile, blocks, reports
// and matches.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Reset deletes every row from every table.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"matches", "reports", "blocks", "profiles", "users"} {
		if _, err := s.exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}
