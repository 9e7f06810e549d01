package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Album is a stored album row. ArtistID optionally references an artist
// visible to the owner.
type Album struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	ArtistID    *int64    `json:"artist_id"`
	ReleaseYear *int      `json:"release_year"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AlbumStore persists albums with ownership scoping
type AlbumStore struct {
	db *sql.DB
}

// Create inserts an album owned by the scope's user. A non-nil artistID
// must reference one of the owner's own artists.
func (s *AlbumStore) Create(ctx context.Context, scope Scope, title string, artistID *int64, releaseYear *int) (*Album, error) {
	if err := s.checkArtistRef(ctx, scope.UserID, artistID); err != nil {
		return nil, err
	}

	album := &Album{
		Title:       title,
		ArtistID:    artistID,
		ReleaseYear: releaseYear,
		OwnerID:     scope.UserID,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO albums (title, artist_id, release_year, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, title, artistID, releaseYear, scope.UserID).Scan(&album.ID, &album.CreatedAt, &album.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, &FieldError{Field: "artist_id", Message: "artist not found"}
		}
		return nil, fmt.Errorf("failed to create album: %w", err)
	}
	return album, nil
}

// List returns the scope owner's albums in creation order
func (s *AlbumStore) List(ctx context.Context, scope Scope) ([]*Album, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, artist_id, release_year, owner_id, created_at, updated_at
		FROM albums
		WHERE owner_id = $1
		ORDER BY id
	`, scope.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	albums := make([]*Album, 0)
	for rows.Next() {
		album := &Album{}
		if err := rows.Scan(&album.ID, &album.Title, &album.ArtistID, &album.ReleaseYear,
			&album.OwnerID, &album.CreatedAt, &album.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

// Get returns the album if it exists and is visible to the scope
func (s *AlbumStore) Get(ctx context.Context, scope Scope, id int64) (*Album, error) {
	album := &Album{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, artist_id, release_year, owner_id, created_at, updated_at
		FROM albums
		WHERE id = $1 AND (owner_id = $2 OR $3)
	`, id, scope.UserID, scope.Admin).Scan(&album.ID, &album.Title, &album.ArtistID,
		&album.ReleaseYear, &album.OwnerID, &album.CreatedAt, &album.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get album: %w", err)
	}
	return album, nil
}

// Update replaces the album's fields, revalidating the artist reference
// against the album's owner (who may differ from an admin caller)
func (s *AlbumStore) Update(ctx context.Context, scope Scope, id int64, title string, artistID *int64, releaseYear *int) (*Album, error) {
	if artistID != nil {
		var ownerID int64
		err := s.db.QueryRowContext(ctx, `
			SELECT owner_id FROM albums
			WHERE id = $1 AND (owner_id = $2 OR $3)
		`, id, scope.UserID, scope.Admin).Scan(&ownerID)
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get album owner: %w", err)
		}
		if err := s.checkArtistRef(ctx, ownerID, artistID); err != nil {
			return nil, err
		}
	}

	album := &Album{}
	err := s.db.QueryRowContext(ctx, `
		UPDATE albums SET title = $1, artist_id = $2, release_year = $3, updated_at = NOW()
		WHERE id = $4 AND (owner_id = $5 OR $6)
		RETURNING id, title, artist_id, release_year, owner_id, created_at, updated_at
	`, title, artistID, releaseYear, id, scope.UserID, scope.Admin).Scan(&album.ID,
		&album.Title, &album.ArtistID, &album.ReleaseYear, &album.OwnerID,
		&album.CreatedAt, &album.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update album: %w", err)
	}
	return album, nil
}

// Delete removes the album. Playlist tracks referencing it keep their title
// and lose the reference (ON DELETE SET NULL).
func (s *AlbumStore) Delete(ctx context.Context, scope Scope, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM albums
		WHERE id = $1 AND (owner_id = $2 OR $3)
	`, id, scope.UserID, scope.Admin)
	if err != nil {
		return fmt.Errorf("failed to delete album: %w", err)
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

// checkArtistRef validates that artistID, when set, names an artist owned by
// ownerID. Artist references never cross owners, admin scopes included;
// otherwise deleting a user's artists could be blocked by another owner's
// albums. The database foreign key backstops existence; this check adds the
// ownership rule and a field-level error message.
func (s *AlbumStore) checkArtistRef(ctx context.Context, ownerID int64, artistID *int64) error {
	if artistID == nil {
		return nil
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM artists WHERE id = $1 AND owner_id = $2)
	`, *artistID, ownerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check artist reference: %w", err)
	}
	if !exists {
		return &FieldError{Field: "artist_id", Message: "artist not found"}
	}
	return nil
}
