package api

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/crate/pkg/auth"
	"github.com/platinummonkey/crate/pkg/observability"
	"github.com/platinummonkey/crate/pkg/store"
)

// testServer wires a full Server over a mocked database so requests run the
// real routing and middleware chain.
type testServer struct {
	server *Server
	issuer *auth.TokenIssuer
	mock   sqlmock.Sqlmock
	db     *sql.DB
}

func newTestServer(t *testing.T) *testServer {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	issuer := auth.NewTokenIssuer([]byte("test-secret"), 30*time.Minute)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return &testServer{
		server: NewServer(store.New(db), issuer, logger, nil),
		issuer: issuer,
		mock:   mock,
		db:     db,
	}
}

// expectAuth queues the user lookup the authentication middleware performs
// and returns a token for the user
func (ts *testServer) expectAuth(t *testing.T, id int64, username string, isAdmin bool) string {
	token, err := ts.issuer.Issue(id)
	require.NoError(t, err)

	now := time.Now()
	ts.mock.ExpectQuery(`SELECT id, username, email, password_hash`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "is_admin", "created_at", "updated_at",
		}).AddRow(id, username, username+"@example.com", "hash", isAdmin, now, now))
	return token
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/artists", "/albums", "/playlists", "/admin/users"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := ts.do(req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "GET %s", path)
	}
}

func TestServer_AdminRoutesRejectRegularUsers(t *testing.T) {
	ts := newTestServer(t)

	token := ts.expectAuth(t, 2, "bob", false)
	req := httptest.NewRequest("GET", "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := ts.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin privileges required")
}

func TestServer_RequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("GET", "/artists", nil)
	rec := ts.do(req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
