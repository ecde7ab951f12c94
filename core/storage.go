package core

import "time"

// Storage ports. Adapters translate their backend's "no rows" and
// unique-constraint conditions into the sentinel errors documented on each
// method; the managers rely on that mapping.

type UserStore interface {
	// CreateUser persists a new user. Returns ErrUserExists when the email
	// is already taken.
	CreateUser(u *User) error

	// GetUserByID returns ErrUserNotFound when no row matches.
	GetUserByID(id string) (*User, error)
	// GetUserByEmail returns ErrUserNotFound when no row matches.
	GetUserByEmail(email string) (*User, error)

	UpdateUser(u *User) error
}

type SessionStore interface {
	CreateSession(s *Session) error

	// GetSessionByHash returns ErrSessionNotFound when no row matches.
	GetSessionByHash(tokenHash string) (*Session, error)

	UpdateSession(s *Session) error

	DeleteSessionByID(id string) error

	// DeleteExpiredSessions removes sessions past their expiry and reports
	// how many were removed.
	DeleteExpiredSessions() (int, error)
}

type TokenStore interface {
	CreateToken(t *AccessToken) error

	// GetTokenByID returns ErrTokenNotFound when no row matches.
	GetTokenByID(id string) (*AccessToken, error)

	ListUserTokens(userID string) ([]*AccessToken, error)

	// TouchToken records when a token was last presented. Best effort; a
	// failure here must not fail the request.
	TouchToken(id string, at time.Time) error

	// DeleteToken removes one token owned by userID. Returns
	// ErrTokenNotFound when no such row exists.
	DeleteToken(userID, id string) error
}

// Storage is the union adapters implement.
type Storage interface {
	UserStore
	SessionStore
	TokenStore
}
