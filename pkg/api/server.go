// Package api wires the HTTP surface: registration/login, ownership-scoped
// CRUD for artists, albums and playlists, and the admin console.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/crate/pkg/auth"
	"github.com/platinummonkey/crate/pkg/httputil"
	"github.com/platinummonkey/crate/pkg/middleware"
	"github.com/platinummonkey/crate/pkg/observability"
	"github.com/platinummonkey/crate/pkg/store"
)

// maxBodyBytes caps request bodies; payloads here are small JSON documents
const maxBodyBytes = 1 << 20

// Server is the API server. It implements http.Handler.
type Server struct {
	store  *store.Store
	issuer *auth.TokenIssuer
	logger *observability.Logger
	router *mux.Router
}

// NewServer creates the API server and registers all routes
func NewServer(st *store.Store, issuer *auth.TokenIssuer, logger *observability.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		store:  st,
		issuer: issuer,
		logger: logger,
		router: mux.NewRouter(),
	}

	s.router.Use(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		httputil.MaxBytesMiddleware(maxBodyBytes),
	)
	if metrics != nil {
		s.router.Use(metrics.Middleware)
	}

	// Public routes
	NewAuthHandlers(st, issuer).RegisterRoutes(s.router)

	// Protected routes: authentication runs before any handler touches the
	// database
	authenticator := middleware.NewAuthenticator(issuer, st.Users)
	protected := s.router.PathPrefix("/").Subrouter()
	protected.Use(authenticator.Handler)

	NewArtistHandlers(st.Artists).RegisterRoutes(protected)
	NewAlbumHandlers(st.Albums).RegisterRoutes(protected)
	NewPlaylistHandlers(st.Playlists).RegisterRoutes(protected)

	// Admin console
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	NewAdminHandlers(st.Users, st.Artists).RegisterRoutes(admin)

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// scopeOf converts an authenticated identity into a store scope
func scopeOf(identity *auth.Identity) store.Scope {
	return store.Scope{UserID: identity.ID, Admin: identity.IsAdmin}
}
