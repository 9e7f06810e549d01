package auth

import "time"

// Identity is the resolved caller of an authenticated request.
// It is loaded fresh from the users table on every request; a token whose
// subject no longer exists does not produce an Identity.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

// TokenResponse is the login response body.
// TokenType is always "bearer".
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Claims are the JWT claims embedded in an access token
type Claims struct {
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}
