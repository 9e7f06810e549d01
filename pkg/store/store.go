// Package store implements the relational persistence layer: users plus the
// ownership-scoped artist, album and playlist repositories.
//
// Every read and mutation of an owned entity is filtered by the caller's
// Scope; a row owned by someone else is reported as ErrNotFound so callers
// cannot probe for other users' data. Uniqueness (username, email) is
// enforced by database constraints, never by check-then-insert.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/platinummonkey/crate/pkg/config"
)

// Scope identifies the caller for ownership filtering. Admin scopes see
// every row; regular scopes see only rows they own.
type Scope struct {
	UserID int64
	Admin  bool
}

// Store bundles the per-entity repositories over a shared connection pool
type Store struct {
	DB        *sql.DB
	Users     *UserStore
	Artists   *ArtistStore
	Albums    *AlbumStore
	Playlists *PlaylistStore
}

// New creates a Store over an existing database handle
func New(db *sql.DB) *Store {
	return &Store{
		DB:        db,
		Users:     &UserStore{db: db},
		Artists:   &ArtistStore{db: db},
		Albums:    &AlbumStore{db: db},
		Playlists: &PlaylistStore{db: db},
	}
}

// Open connects to PostgreSQL, configures the pool and verifies the
// connection
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
