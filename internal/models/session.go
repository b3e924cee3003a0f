package models

import "time"

// Credentials are submitted at sign-in.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is issued by /auth/jwt/create/.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Session is the locally persisted sign-in state.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Tokens    TokenPair `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionRecord is the persisted row; tokens are sealed before storage.
type SessionRecord struct {
	ID           string    `db:"id"`
	UserPayload  string    `db:"user_payload"`
	SealedTokens string    `db:"sealed_tokens"`
	ExpiresAt    time.Time `db:"expires_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
