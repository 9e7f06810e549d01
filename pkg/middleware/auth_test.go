package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/crate/pkg/auth"
	"github.com/platinummonkey/crate/pkg/contextkeys"
	"github.com/platinummonkey/crate/pkg/store"
)

func newTestAuthenticator(t *testing.T) (*Authenticator, *auth.TokenIssuer, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	issuer := auth.NewTokenIssuer([]byte("test-secret"), 30*time.Minute)
	return NewAuthenticator(issuer, store.New(db).Users), issuer, mock, db
}

func expectUserLookup(mock sqlmock.Sqlmock, id int64, username string, isAdmin bool) {
	now := time.Now()
	mock.ExpectQuery(`SELECT id, username, email, password_hash`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "is_admin", "created_at", "updated_at",
		}).AddRow(id, username, username+"@example.com", "hash", isAdmin, now, now))
}

func TestAuthenticator_Handler(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r)
		require.NotNil(t, identity)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token", func(t *testing.T) {
		a, issuer, mock, db := newTestAuthenticator(t)
		defer db.Close()

		token, err := issuer.Issue(1)
		require.NoError(t, err)
		expectUserLookup(mock, 1, "alice", false)

		req := httptest.NewRequest("GET", "/artists", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		a.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		a, _, _, db := newTestAuthenticator(t)
		defer db.Close()

		req := httptest.NewRequest("GET", "/artists", nil)
		rec := httptest.NewRecorder()
		a.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		a, _, _, db := newTestAuthenticator(t)
		defer db.Close()

		req := httptest.NewRequest("GET", "/artists", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		a.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		a, _, _, db := newTestAuthenticator(t)
		defer db.Close()

		req := httptest.NewRequest("GET", "/artists", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		a.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token for deleted user", func(t *testing.T) {
		a, issuer, mock, db := newTestAuthenticator(t)
		defer db.Close()

		token, err := issuer.Issue(99)
		require.NoError(t, err)
		mock.ExpectQuery(`SELECT id, username, email, password_hash`).
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		req := httptest.NewRequest("GET", "/artists", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		a.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("lowercase bearer scheme accepted", func(t *testing.T) {
		a, issuer, mock, db := newTestAuthenticator(t)
		defer db.Close()

		token, err := issuer.Issue(1)
		require.NoError(t, err)
		expectUserLookup(mock, 1, "alice", false)

		req := httptest.NewRequest("GET", "/artists", nil)
		req.Header.Set("Authorization", "bearer "+token)
		rec := httptest.NewRecorder()
		a.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/admin/users", nil)
		ctx := contextkeys.WithIdentity(req.Context(), &auth.Identity{ID: 1, IsAdmin: true})
		rec := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("regular user forbidden", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/admin/users", nil)
		ctx := contextkeys.WithIdentity(req.Context(), &auth.Identity{ID: 2})
		rec := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unauthenticated rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/admin/users", nil)
		rec := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
