package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Artist is a stored artist row, always tagged with its owning user
type Artist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Genre     *string   `json:"genre"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArtistStore persists artists with ownership scoping
type ArtistStore struct {
	db *sql.DB
}

// Create inserts an artist owned by the scope's user
func (s *ArtistStore) Create(ctx context.Context, scope Scope, name string, genre *string) (*Artist, error) {
	artist := &Artist{
		Name:    name,
		Genre:   genre,
		OwnerID: scope.UserID,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO artists (name, genre, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, name, genre, scope.UserID).Scan(&artist.ID, &artist.CreatedAt, &artist.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create artist: %w", err)
	}
	return artist, nil
}

// List returns the scope owner's artists in creation order
func (s *ArtistStore) List(ctx context.Context, scope Scope) ([]*Artist, error) {
	return s.list(ctx, "WHERE owner_id = $1", scope.UserID)
}

// ListAll returns every artist regardless of owner (admin console)
func (s *ArtistStore) ListAll(ctx context.Context) ([]*Artist, error) {
	return s.list(ctx, "")
}

func (s *ArtistStore) list(ctx context.Context, where string, args ...interface{}) ([]*Artist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, genre, owner_id, created_at, updated_at
		FROM artists `+where+`
		ORDER BY id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	defer rows.Close()

	artists := make([]*Artist, 0)
	for rows.Next() {
		artist := &Artist{}
		if err := rows.Scan(&artist.ID, &artist.Name, &artist.Genre, &artist.OwnerID,
			&artist.CreatedAt, &artist.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, artist)
	}
	return artists, rows.Err()
}

// Get returns the artist if it exists and is visible to the scope.
// A row owned by someone else is ErrNotFound for non-admin scopes.
func (s *ArtistStore) Get(ctx context.Context, scope Scope, id int64) (*Artist, error) {
	artist := &Artist{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, genre, owner_id, created_at, updated_at
		FROM artists
		WHERE id = $1 AND (owner_id = $2 OR $3)
	`, id, scope.UserID, scope.Admin).Scan(&artist.ID, &artist.Name, &artist.Genre,
		&artist.OwnerID, &artist.CreatedAt, &artist.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	return artist, nil
}

// Update replaces the artist's fields, subject to the same visibility rule
// as Get
func (s *ArtistStore) Update(ctx context.Context, scope Scope, id int64, name string, genre *string) (*Artist, error) {
	artist := &Artist{}
	err := s.db.QueryRowContext(ctx, `
		UPDATE artists SET name = $1, genre = $2, updated_at = NOW()
		WHERE id = $3 AND (owner_id = $4 OR $5)
		RETURNING id, name, genre, owner_id, created_at, updated_at
	`, name, genre, id, scope.UserID, scope.Admin).Scan(&artist.ID, &artist.Name,
		&artist.Genre, &artist.OwnerID, &artist.CreatedAt, &artist.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update artist: %w", err)
	}
	return artist, nil
}

// Delete removes the artist. An artist that still has albums is not
// deleted; the foreign key violation is reported as ErrConflict.
func (s *ArtistStore) Delete(ctx context.Context, scope Scope, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM artists
		WHERE id = $1 AND (owner_id = $2 OR $3)
	`, id, scope.UserID, scope.Admin)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to delete artist: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
