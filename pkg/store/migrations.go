package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations returns the schema migrations in order.
//
// Referential policies:
//   - albums.artist_id has no cascade: deleting an artist that still has
//     albums fails (mapped to ErrConflict by the repositories).
//   - playlist_tracks.album_id is ON DELETE SET NULL: a track keeps its
//     title when the referenced album is removed.
//   - playlist_tracks.playlist_id cascades with its playlist.
//   - owner_id edges are cleaned up explicitly in UserStore.Delete, in one
//     transaction, so admin user deletion cascades deterministically.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					username VARCHAR(50) NOT NULL,
					email VARCHAR(255) NOT NULL,
					password_hash TEXT NOT NULL,
					is_admin BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					CONSTRAINT users_username_key UNIQUE (username),
					CONSTRAINT users_email_key UNIQUE (email)
				);
			`,
		},
		{
			Version:     2,
			Description: "Create artists table",
			SQL: `
				CREATE TABLE IF NOT EXISTS artists (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(200) NOT NULL,
					genre VARCHAR(100),
					owner_id BIGINT NOT NULL REFERENCES users(id),
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_artists_owner_id ON artists(owner_id);
			`,
		},
		{
			Version:     3,
			Description: "Create albums table",
			SQL: `
				CREATE TABLE IF NOT EXISTS albums (
					id BIGSERIAL PRIMARY KEY,
					title VARCHAR(200) NOT NULL,
					artist_id BIGINT REFERENCES artists(id),
					release_year INT,
					owner_id BIGINT NOT NULL REFERENCES users(id),
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_albums_owner_id ON albums(owner_id);
				CREATE INDEX idx_albums_artist_id ON albums(artist_id);
			`,
		},
		{
			Version:     4,
			Description: "Create playlists and playlist_tracks tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS playlists (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(200) NOT NULL,
					description VARCHAR(1000),
					owner_id BIGINT NOT NULL REFERENCES users(id),
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_playlists_owner_id ON playlists(owner_id);

				CREATE TABLE IF NOT EXISTS playlist_tracks (
					id BIGSERIAL PRIMARY KEY,
					playlist_id BIGINT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
					position INT NOT NULL,
					title VARCHAR(200) NOT NULL,
					album_id BIGINT REFERENCES albums(id) ON DELETE SET NULL
				);

				CREATE INDEX idx_playlist_tracks_playlist_id ON playlist_tracks(playlist_id);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to read migration versions: %w", err)
	}
	rows.Close()

	for _, migration := range Migrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
