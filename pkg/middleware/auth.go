// Package middleware provides the bearer-token authentication guard and the
// admin role guard applied to protected routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/platinummonkey/crate/pkg/auth"
	"github.com/platinummonkey/crate/pkg/contextkeys"
	"github.com/platinummonkey/crate/pkg/httputil"
	"github.com/platinummonkey/crate/pkg/store"
)

// Authenticator resolves bearer tokens to user identities. Every protected
// route passes through Handler before touching any other state; a missing,
// invalid or expired token, or a token whose user no longer exists, is
// rejected with 401 before the handler runs.
type Authenticator struct {
	issuer *auth.TokenIssuer
	users  *store.UserStore
}

// NewAuthenticator creates the authentication middleware
func NewAuthenticator(issuer *auth.TokenIssuer, users *store.UserStore) *Authenticator {
	return &Authenticator{
		issuer: issuer,
		users:  users,
	}
}

// Handler wraps an HTTP handler with bearer-token authentication
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := a.issuer.Verify(parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		// The token subject must still exist. A deleted user's token
		// verifies cryptographically but no longer resolves.
		user, err := a.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		identity := &auth.Identity{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			IsAdmin:  user.IsAdmin,
		}
		ctx := contextkeys.WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the authenticated identity from the request, or nil
func GetIdentity(r *http.Request) *auth.Identity {
	value := r.Context().Value(contextkeys.IdentityKey)
	if value == nil {
		return nil
	}
	identity, ok := value.(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}

// RequireAdmin rejects authenticated non-admin callers with 403. It must be
// chained after Authenticator.Handler.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r)
		if identity == nil {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		if !identity.IsAdmin {
			httputil.WriteForbidden(w, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
