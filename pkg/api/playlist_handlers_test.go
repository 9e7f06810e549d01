package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/crate/pkg/store"
)

func TestPlaylistCreate(t *testing.T) {
	t.Run("success with tracks", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.expectAuth(t, 1, "alice", false)

		now := time.Now()
		ts.mock.ExpectBegin()
		ts.mock.ExpectQuery(`INSERT INTO playlists`).
			WithArgs("Late Night", nil, int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(30, now, now))
		ts.mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(20), int64(1), false).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		ts.mock.ExpectExec(`INSERT INTO playlist_tracks`).
			WithArgs(int64(30), 0, "So What", int64(20)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		ts.mock.ExpectExec(`INSERT INTO playlist_tracks`).
			WithArgs(int64(30), 1, "Freddie Freeloader", nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		ts.mock.ExpectCommit()

		req := jsonRequest("POST", "/playlists",
			`{"name":"Late Night","tracks":[{"title":"So What","album_id":20},{"title":"Freddie Freeloader"}]}`)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := ts.do(req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var playlist store.Playlist
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&playlist))
		require.Len(t, playlist.Tracks, 2)
		assert.Equal(t, 0, playlist.Tracks[0].Position)
		assert.Equal(t, 1, playlist.Tracks[1].Position)
	})

	t.Run("track without title", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.expectAuth(t, 1, "alice", false)

		req := jsonRequest("POST", "/playlists", `{"name":"Late Night","tracks":[{"album_id":20}]}`)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := ts.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "title is required")
	})

	t.Run("description too long", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.expectAuth(t, 1, "alice", false)

		req := jsonRequest("POST", "/playlists",
			`{"name":"Late Night","description":"`+strings.Repeat("x", 1001)+`"}`)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := ts.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "description")
	})

	t.Run("track referencing invisible album", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.expectAuth(t, 2, "bob", false)

		now := time.Now()
		ts.mock.ExpectBegin()
		ts.mock.ExpectQuery(`INSERT INTO playlists`).
			WithArgs("Stolen", nil, int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(31, now, now))
		ts.mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(20), int64(2), false).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		ts.mock.ExpectRollback()

		req := jsonRequest("POST", "/playlists", `{"name":"Stolen","tracks":[{"title":"So What","album_id":20}]}`)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := ts.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "album not found")
	})
}

func TestPlaylistGet_NotVisible(t *testing.T) {
	ts := newTestServer(t)
	token := ts.expectAuth(t, 2, "bob", false)

	ts.mock.ExpectQuery(`SELECT id, name, description, owner_id`).
		WithArgs(int64(30), int64(2), false).
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest("GET", "/playlists/30", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := ts.do(req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaylistUpdate_ReplacesTracks(t *testing.T) {
	ts := newTestServer(t)
	token := ts.expectAuth(t, 1, "alice", false)

	now := time.Now()
	ts.mock.ExpectBegin()
	ts.mock.ExpectQuery(`UPDATE playlists SET`).
		WithArgs("Late Night v2", nil, int64(30), int64(1), false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "owner_id", "created_at", "updated_at"}).
			AddRow(30, "Late Night v2", nil, 1, now, now))
	ts.mock.ExpectExec(`DELETE FROM playlist_tracks`).
		WithArgs(int64(30)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	ts.mock.ExpectExec(`INSERT INTO playlist_tracks`).
		WithArgs(int64(30), 0, "Blue in Green", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.mock.ExpectCommit()

	req := jsonRequest("PUT", "/playlists/30", `{"name":"Late Night v2","tracks":[{"title":"Blue in Green"}]}`)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestPlaylistDelete(t *testing.T) {
	ts := newTestServer(t)
	token := ts.expectAuth(t, 1, "alice", false)

	ts.mock.ExpectExec(`DELETE FROM playlists`).
		WithArgs(int64(30), int64(1), false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest("DELETE", "/playlists/30", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := ts.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
