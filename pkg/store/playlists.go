package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Playlist is a stored playlist with its tracks in display order
type Playlist struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	OwnerID     int64           `json:"owner_id"`
	Tracks      []PlaylistTrack `json:"tracks"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PlaylistTrack is a single entry in a playlist. AlbumID is a soft
// reference: it becomes nil if the referenced album is deleted.
type PlaylistTrack struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	AlbumID  *int64 `json:"album_id"`
}

// TrackInput is the track payload accepted by Create and Update
type TrackInput struct {
	Title   string `json:"title"`
	AlbumID *int64 `json:"album_id"`
}

// PlaylistStore persists playlists with ownership scoping
type PlaylistStore struct {
	db *sql.DB
}

// Create inserts a playlist and its tracks in one transaction. Track album
// references must name albums visible to the scope.
func (s *PlaylistStore) Create(ctx context.Context, scope Scope, name string, description *string, tracks []TrackInput) (*Playlist, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	playlist := &Playlist{
		Name:        name,
		Description: description,
		OwnerID:     scope.UserID,
		Tracks:      make([]PlaylistTrack, 0, len(tracks)),
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO playlists (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, name, description, scope.UserID).Scan(&playlist.ID, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	inserted, err := insertTracks(ctx, tx, scope, playlist.ID, tracks)
	if err != nil {
		return nil, err
	}
	playlist.Tracks = inserted

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return playlist, nil
}

// List returns the scope owner's playlists with tracks, in creation order
func (s *PlaylistStore) List(ctx context.Context, scope Scope) ([]*Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM playlists
		WHERE owner_id = $1
		ORDER BY id
	`, scope.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]*Playlist, 0)
	byID := make(map[int64]*Playlist)
	for rows.Next() {
		playlist := &Playlist{Tracks: make([]PlaylistTrack, 0)}
		if err := rows.Scan(&playlist.ID, &playlist.Name, &playlist.Description,
			&playlist.OwnerID, &playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
		byID[playlist.ID] = playlist
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trackRows, err := s.db.QueryContext(ctx, `
		SELECT pt.playlist_id, pt.position, pt.title, pt.album_id
		FROM playlist_tracks pt
		JOIN playlists p ON pt.playlist_id = p.id
		WHERE p.owner_id = $1
		ORDER BY pt.playlist_id, pt.position
	`, scope.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist tracks: %w", err)
	}
	defer trackRows.Close()

	for trackRows.Next() {
		var playlistID int64
		var track PlaylistTrack
		if err := trackRows.Scan(&playlistID, &track.Position, &track.Title, &track.AlbumID); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		if playlist, ok := byID[playlistID]; ok {
			playlist.Tracks = append(playlist.Tracks, track)
		}
	}
	return playlists, trackRows.Err()
}

// Get returns the playlist with its tracks if visible to the scope
func (s *PlaylistStore) Get(ctx context.Context, scope Scope, id int64) (*Playlist, error) {
	playlist := &Playlist{Tracks: make([]PlaylistTrack, 0)}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM playlists
		WHERE id = $1 AND (owner_id = $2 OR $3)
	`, id, scope.UserID, scope.Admin).Scan(&playlist.ID, &playlist.Name,
		&playlist.Description, &playlist.OwnerID, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT position, title, album_id
		FROM playlist_tracks
		WHERE playlist_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var track PlaylistTrack
		if err := rows.Scan(&track.Position, &track.Title, &track.AlbumID); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		playlist.Tracks = append(playlist.Tracks, track)
	}
	return playlist, rows.Err()
}

// Update replaces the playlist's fields and its full track list in one
// transaction
func (s *PlaylistStore) Update(ctx context.Context, scope Scope, id int64, name string, description *string, tracks []TrackInput) (*Playlist, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	playlist := &Playlist{Tracks: make([]PlaylistTrack, 0, len(tracks))}
	err = tx.QueryRowContext(ctx, `
		UPDATE playlists SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND (owner_id = $4 OR $5)
		RETURNING id, name, description, owner_id, created_at, updated_at
	`, name, description, id, scope.UserID, scope.Admin).Scan(&playlist.ID,
		&playlist.Name, &playlist.Description, &playlist.OwnerID,
		&playlist.CreatedAt, &playlist.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update playlist: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to clear playlist tracks: %w", err)
	}

	inserted, err := insertTracks(ctx, tx, scope, id, tracks)
	if err != nil {
		return nil, err
	}
	playlist.Tracks = inserted

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return playlist, nil
}

// Delete removes the playlist; its tracks go with it (ON DELETE CASCADE)
func (s *PlaylistStore) Delete(ctx context.Context, scope Scope, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM playlists
		WHERE id = $1 AND (owner_id = $2 OR $3)
	`, id, scope.UserID, scope.Admin)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
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

// insertTracks validates album references and inserts the tracks with
// positions taken from input order
func insertTracks(ctx context.Context, tx *sql.Tx, scope Scope, playlistID int64, tracks []TrackInput) ([]PlaylistTrack, error) {
	inserted := make([]PlaylistTrack, 0, len(tracks))
	for i, track := range tracks {
		if track.AlbumID != nil {
			var exists bool
			err := tx.QueryRowContext(ctx, `
				SELECT EXISTS(SELECT 1 FROM albums WHERE id = $1 AND (owner_id = $2 OR $3))
			`, *track.AlbumID, scope.UserID, scope.Admin).Scan(&exists)
			if err != nil {
				return nil, fmt.Errorf("failed to check album reference: %w", err)
			}
			if !exists {
				return nil, &FieldError{Field: "tracks", Message: fmt.Sprintf("track %d: album not found", i)}
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO playlist_tracks (playlist_id, position, title, album_id)
			VALUES ($1, $2, $3, $4)
		`, playlistID, i, track.Title, track.AlbumID); err != nil {
			return nil, fmt.Errorf("failed to insert playlist track: %w", err)
		}
		inserted = append(inserted, PlaylistTrack{Position: i, Title: track.Title, AlbumID: track.AlbumID})
	}
	return inserted, nil
}
