// Package memory provides an in-memory Storage adapter. It backs the demo
// apps when no DATABASE_URL is configured and the adapter-level tests.
package memory

import (
	"sync"
	"time"

	"github.com/7nohe/gatekeep"
)

type Adapter struct {
	mu       sync.RWMutex
	users    map[string]*gatekeep.User        // key: user id
	emails   map[string]string                // email -> user id
	sessions map[string]*gatekeep.Session     // key: session id
	hashes   map[string]string                // token hash -> session id
	tokens   map[string]*gatekeep.AccessToken // key: token id
}

var _ gatekeep.Storage = (*Adapter)(nil)

func New() *Adapter {
	return &Adapter{
		users:    make(map[string]*gatekeep.User),
		emails:   make(map[string]string),
		sessions: make(map[string]*gatekeep.Session),
		hashes:   make(map[string]string),
		tokens:   make(map[string]*gatekeep.AccessToken),
	}
}

// Users

func (a *Adapter) CreateUser(u *gatekeep.User) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Uniqueness check and insert under one lock; this is the atomicity
	// FindOrCreateByEmail relies on.
	if _, taken := a.emails[u.Email]; taken {
		return gatekeep.ErrUserExists
	}

	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	clone := *u
	a.users[u.ID] = &clone
	a.emails[u.Email] = u.ID
	return nil
}

func (a *Adapter) GetUserByID(id string) (*gatekeep.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	u, ok := a.users[id]
	if !ok {
		return nil, gatekeep.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (a *Adapter) GetUserByEmail(email string) (*gatekeep.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	id, ok := a.emails[email]
	if !ok {
		return nil, gatekeep.ErrUserNotFound
	}
	clone := *a.users[id]
	return &clone, nil
}

func (a *Adapter) UpdateUser(u *gatekeep.User) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, ok := a.users[u.ID]
	if !ok {
		return gatekeep.ErrUserNotFound
	}

	delete(a.emails, existing.Email)
	u.UpdatedAt = time.Now()
	clone := *u
	a.users[u.ID] = &clone
	a.emails[u.Email] = u.ID
	return nil
}

// Sessions

func (a *Adapter) CreateSession(s *gatekeep.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	clone := s.Clone()
	a.sessions[s.ID] = clone
	a.hashes[s.TokenHash] = s.ID
	return nil
}

func (a *Adapter) GetSessionByHash(tokenHash string) (*gatekeep.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	id, ok := a.hashes[tokenHash]
	if !ok {
		return nil, gatekeep.ErrSessionNotFound
	}
	return a.sessions[id].Clone(), nil
}

func (a *Adapter) UpdateSession(s *gatekeep.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.sessions[s.ID]; !ok {
		return gatekeep.ErrSessionNotFound
	}
	a.sessions[s.ID] = s.Clone()
	return nil
}

func (a *Adapter) DeleteSessionByID(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions[id]
	if !ok {
		return gatekeep.ErrSessionNotFound
	}
	delete(a.hashes, s.TokenHash)
	delete(a.sessions, id)
	return nil
}

func (a *Adapter) DeleteExpiredSessions() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	count := 0
	for id, s := range a.sessions {
		if now.After(s.ExpiresAt) {
			delete(a.hashes, s.TokenHash)
			delete(a.sessions, id)
			count++
		}
	}
	return count, nil
}

// Access tokens

func (a *Adapter) CreateToken(t *gatekeep.AccessToken) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	clone := *t
	a.tokens[t.ID] = &clone
	return nil
}

func (a *Adapter) GetTokenByID(id string) (*gatekeep.AccessToken, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	t, ok := a.tokens[id]
	if !ok {
		return nil, gatekeep.ErrTokenNotFound
	}
	clone := *t
	return &clone, nil
}

func (a *Adapter) ListUserTokens(userID string) ([]*gatekeep.AccessToken, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var tokens []*gatekeep.AccessToken
	for _, t := range a.tokens {
		if t.UserID == userID {
			clone := *t
			tokens = append(tokens, &clone)
		}
	}
	return tokens, nil
}

func (a *Adapter) TouchToken(id string, at time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.tokens[id]
	if !ok {
		return gatekeep.ErrTokenNotFound
	}
	t.LastUsedAt = &at
	return nil
}

func (a *Adapter) DeleteToken(userID, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.tokens[id]
	if !ok || t.UserID != userID {
		return gatekeep.ErrTokenNotFound
	}
	delete(a.tokens, id)
	return nil
}
