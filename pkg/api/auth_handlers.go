package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/crate/pkg/auth"
	"github.com/platinummonkey/crate/pkg/httputil"
	"github.com/platinummonkey/crate/pkg/store"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
)

// AuthHandlers handles registration and login
type AuthHandlers struct {
	store  *store.Store
	issuer *auth.TokenIssuer
}

// NewAuthHandlers creates the auth handlers
func NewAuthHandlers(st *store.Store, issuer *auth.TokenIssuer) *AuthHandlers {
	return &AuthHandlers{store: st, issuer: issuer}
}

// RegisterRoutes registers the public authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/register", h.register).Methods("POST")
	router.HandleFunc("/login", h.login).Methods("POST")
}

// register handles POST /register
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if n := utf8.RuneCountInString(req.Username); n < minUsernameLength || n > maxUsernameLength {
		httputil.WriteValidationError(w,
			fmt.Sprintf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength))
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		httputil.WriteValidationError(w, "email is not a valid address")
		return
	}

	// HashPassword enforces the minimum length; the plaintext never goes
	// anywhere else.
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	user, err := h.store.Users.Create(r.Context(), req.Username, req.Email, hash)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	httputil.WriteCreated(w, user)
}

// login handles POST /login. Credentials arrive form-encoded; unknown
// username and wrong password are indistinguishable.
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.WriteValidationError(w, "invalid form data")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.store.Users.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteUnauthorized(w, "incorrect username or password")
		} else {
			writeStoreError(w, r, err)
		}
		return
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		httputil.WriteUnauthorized(w, "incorrect username or password")
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, auth.TokenResponse{
		AccessToken: token,
		TokenType:   auth.TokenType,
	})
}
