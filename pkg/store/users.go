package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// User is a stored account. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserStore persists user accounts
type UserStore struct {
	db *sql.DB
}

// Create inserts a new user. The very first registration with username
// "admin" (an empty users table) is created as an administrator; every
// other registration starts as a regular user. Duplicate username/email is
// reported as a FieldError naming the offending field; uniqueness is
// enforced by the database constraints, so concurrent registrations cannot
// both succeed.
func (s *UserStore) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	isAdmin := count == 0 && username == "admin"

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, username, email, passwordHash, isAdmin).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_username_key") {
			return nil, &FieldError{Field: "username", Message: "already registered"}
		}
		if isUniqueViolation(err, "users_email_key") {
			return nil, &FieldError{Field: "email", Message: "already registered"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by id
func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.get(ctx, "id = $1", id)
}

// GetByUsername retrieves a user by username, including the password hash
// for credential checks
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.get(ctx, "username = $1", username)
}

func (s *UserStore) get(ctx context.Context, where string, arg interface{}) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, is_admin, created_at, updated_at
		FROM users WHERE `+where,
		arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsAdmin, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List returns all users in creation order
func (s *UserStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, email, password_hash, is_admin, created_at, updated_at
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*User, 0)
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.IsAdmin, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetAdmin sets the is_admin flag and returns the updated user. Setting the
// flag to its current value is a no-op success, so promote/demote are
// idempotent. Demoting the last admin is permitted; there is no recovery
// endpoint, which is a documented operational hazard.
func (s *UserStore) SetAdmin(ctx context.Context, id int64, isAdmin bool) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx, `
		UPDATE users SET is_admin = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, username, email, password_hash, is_admin, created_at, updated_at
	`, isAdmin, id).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsAdmin, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete removes a user and everything they own in a single transaction:
// playlist tracks, playlists, albums, artists, then the user row. Albums go
// before artists so the artist foreign key never blocks the cascade.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []string{
		`DELETE FROM playlist_tracks WHERE playlist_id IN (SELECT id FROM playlists WHERE owner_id = $1)`,
		`DELETE FROM playlists WHERE owner_id = $1`,
		`DELETE FROM albums WHERE owner_id = $1`,
		`DELETE FROM artists WHERE owner_id = $1`,
	}
	for _, query := range steps {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
