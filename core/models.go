package core

import "time"

// User represents an identity record
//
// Email is the natural key: it uniquely identifies exactly one user and is
// what the OAuth flow resolves against. Password is nil for accounts that
// originate from an OAuth provider.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Password  *string   `json:"-"` // argon2id encoded hash, never expose in JSON
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile is the subset of User handed to the presentation layer.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Public returns the fields safe to serialize outward. Everything else
// (password hash, timestamps) stays server-side.
func (u *User) Public() Profile {
	return Profile{ID: u.ID, FullName: u.FullName, Email: u.Email}
}

// Session represents server-held authentication state bound to a client.
//
// An empty UserID means the session is anonymous; anonymous sessions exist
// so guests can carry flash messages and a pending OAuth state.
type Session struct {
	ID         string            `json:"id"`
	UserID     string            `json:"userId"`
	TokenHash  string            `json:"-"` // never expose in JSON
	Flash      map[string]string `json:"-"` // read-once key/value pairs
	OAuthState string            `json:"-"` // anti-forgery state for a pending provider flow
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	ExpiresAt  time.Time         `json:"expiresAt"`
}

// Authenticated reports whether the session is bound to a user.
func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// Clone returns a deep copy. The cache and the storage adapters hand out
// clones so concurrent requests never share the mutable flash map.
func (s *Session) Clone() *Session {
	clone := *s
	if s.Flash != nil {
		clone.Flash = make(map[string]string, len(s.Flash))
		for k, v := range s.Flash {
			clone.Flash[k] = v
		}
	}
	return &clone
}

// AccessToken represents an opaque bearer credential for stateless API auth.
//
// The raw token string is returned to the client exactly once at issuance;
// only its hash is stored. Multiple live tokens per user are allowed.
type AccessToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name,omitempty"`
	Hash       string     `json:"-"` // never expose in JSON
	LastUsedAt *time.Time `json:"lastUsedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ProviderUser is the profile an OAuth provider reports after a successful
// callback. Email is required downstream.
type ProviderUser struct {
	Email string
	Name  string
}
