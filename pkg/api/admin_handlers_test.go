package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminListUsers(t *testing.T) {
	ts := newTestServer(t)
	token := ts.expectAuth(t, 1, "admin", true)

	now := time.Now()
	ts.mock.ExpectQuery(`SELECT id, username, email, password_hash`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "is_admin", "created_at", "updated_at",
		}).
			AddRow(1, "admin", "admin@example.com", "hash", true, now, now).
			AddRow(2, "bob", "bob@example.com", "hash", false, now, now))

	req := httptest.NewRequest("GET", "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var users []map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&users))
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[1]["username"])
	assert.NotContains(t, users[0], "password_hash")
}

func TestAdminPromoteDemote(t *testing.T) {
	now := time.Now()
	userRow := func(isAdmin bool) *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "is_admin", "created_at", "updated_at",
		}).AddRow(2, "bob", "bob@example.com", "hash", isAdmin, now, now)
	}

	t.Run("promote", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.expectAuth(t, 1, "admin", true)

		ts.mock.ExpectQuery(`UPDATE users SET is_admin`).
			WithArgs(true, int64(2)).
			WillReturnRows(userRow(true))

		req := httptest.NewRequest("PUT", "/admin/users/2/promote", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := ts.do(req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var user map[string]interface{}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
		assert.Equal(t, true, user["is_admin"])
	})

	t.Run("demote", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.expectAuth(t, 1, "admin", true)

		ts.mock.ExpectQuery(`UPDATE users SET is_admin`).
			WithArgs(false, int64(2)).
			WillReturnRows(userRow(false))

		req := httptest.NewRequest("PUT", "/admin/users/2/demote", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := ts.do(req)

		require.Equal(t, http.StatusOK, rec.Code)

		var user map[string]interface{}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
		assert.Equal(t, false, user["is_admin"])
	})

	t.Run("unknown user", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.expectAuth(t, 1, "admin", true)

		ts.mock.ExpectQuery(`UPDATE users SET is_admin`).
			WithArgs(true, int64(99)).
			WillReturnError(sql.ErrNoRows)

		req := httptest.NewRequest("PUT", "/admin/users/99/promote", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := ts.do(req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAdminDeleteUser(t *testing.T) {
	ts := newTestServer(t)
	token := ts.expectAuth(t, 1, "admin", true)

	ts.mock.ExpectBegin()
	for _, table := range []string{"playlist_tracks", "playlists", "albums", "artists", "users"} {
		ts.mock.ExpectExec(`DELETE FROM ` + table).
			WithArgs(int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	ts.mock.ExpectCommit()

	req := httptest.NewRequest("DELETE", "/admin/users/2", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := ts.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestAdminListArtists(t *testing.T) {
	ts := newTestServer(t)
	token := ts.expectAuth(t, 1, "admin", true)

	now := time.Now()
	ts.mock.ExpectQuery(`SELECT id, name, genre, owner_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "genre", "owner_id", "created_at", "updated_at"}).
			AddRow(10, "Miles Davis", nil, 2, now, now).
			AddRow(11, "Nina Simone", nil, 3, now, now))

	req := httptest.NewRequest("GET", "/admin/artists", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nina Simone")
}

func TestAdminDeleteArtist_AnyOwner(t *testing.T) {
	ts := newTestServer(t)
	token := ts.expectAuth(t, 1, "admin", true)

	ts.mock.ExpectExec(`DELETE FROM artists`).
		WithArgs(int64(10), int64(1), true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest("DELETE", "/admin/artists/10", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := ts.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
