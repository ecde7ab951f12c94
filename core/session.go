package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/7nohe/gatekeep/pkg/crypto"
	"github.com/google/uuid"
)

type SessionConfig struct {
	MaxAge time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge: 2 * time.Hour,
	}
}

// SessionManager owns the Anonymous -> Authenticated -> Anonymous
// lifecycle. Sessions are identified by an opaque cookie token hashed at
// rest; only the hash ever reaches storage or the cache.
type SessionManager struct {
	config  SessionConfig
	storage Storage
	cache   Cache // optional, can be nil if caching is disabled
}

// StartResult couples a session record with the raw cookie token. The raw
// token exists only here and in the client's cookie.
type StartResult struct {
	Session *Session `json:"session"`
	Token   string   `json:"token"`
}

func NewSessionManager(config SessionConfig, storage Storage, cache Cache) *SessionManager {
	return &SessionManager{config: config, storage: storage, cache: cache}
}

// Start creates an anonymous session. Guests need one as a carrier for
// flash messages and the pending OAuth state.
func (sm *SessionManager) Start() (*StartResult, error) {
	return sm.create("", nil)
}

// Login binds a session to a user. The session identifier and token are
// regenerated so a token captured before authentication is worthless
// (fixation). Flash messages survive the regeneration; a pending OAuth
// state does not.
func (sm *SessionManager) Login(session *Session, user *User) (*StartResult, error) {
	result, err := sm.create(user.ID, session.Flash)
	if err != nil {
		return nil, err
	}

	if sm.cache != nil {
		_ = sm.cache.Delete(session.TokenHash)
	}
	if err := sm.storage.DeleteSessionByID(session.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to discard previous session: %w", err)
	}

	return result, nil
}

// Logout destroys the session, invalidating its identifier. The next
// request starts over as Anonymous.
func (sm *SessionManager) Logout(session *Session) error {
	if sm.cache != nil {
		_ = sm.cache.Delete(session.TokenHash)
	}

	if err := sm.storage.DeleteSessionByID(session.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Resume resolves a cookie token back to its session. Expired sessions are
// reaped on sight.
func (sm *SessionManager) Resume(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	tokenHash := crypto.HashToken(token)

	if sm.cache != nil {
		if session, err := sm.cache.Get(tokenHash); err == nil && session != nil {
			if time.Now().After(session.ExpiresAt) {
				_ = sm.cache.Delete(tokenHash)
				_ = sm.storage.DeleteSessionByID(session.ID)
				return nil, ErrSessionExpired
			}
			return session, nil
		}
		// Cache miss - fall through to storage
	}

	session, err := sm.storage.GetSessionByHash(tokenHash)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		_ = sm.storage.DeleteSessionByID(session.ID)
		return nil, ErrSessionExpired
	}

	if sm.cache != nil {
		_ = sm.cache.Set(tokenHash, session)
	}

	return session, nil
}

// ReapExpired deletes every session past its expiry and reports how many
// went. Resume reaps lazily on access; this clears the rows no client
// ever comes back for, so it is meant to run on a timer.
func (sm *SessionManager) ReapExpired() (int, error) {
	count, err := sm.storage.DeleteExpiredSessions()
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return count, nil
}

// CurrentUser resolves the identity bound to a session, or nil for an
// anonymous session. Route guards call this on every protected request.
func (sm *SessionManager) CurrentUser(session *Session) (*User, error) {
	if session == nil || !session.Authenticated() {
		return nil, nil
	}

	user, err := sm.storage.GetUserByID(session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Bound user no longer exists; treat as anonymous.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Flash stores a one-shot message against the session. It is readable
// exactly once via PullFlash.
func (sm *SessionManager) Flash(session *Session, key, value string) error {
	if session.Flash == nil {
		session.Flash = make(map[string]string)
	}
	session.Flash[key] = value
	return sm.Update(session)
}

// PullFlash returns all flash messages and clears them. The second read
// always comes back empty.
func (sm *SessionManager) PullFlash(session *Session) (map[string]string, error) {
	if len(session.Flash) == 0 {
		return map[string]string{}, nil
	}

	messages := session.Flash
	session.Flash = nil
	if err := sm.Update(session); err != nil {
		return nil, err
	}
	return messages, nil
}

// SetOAuthState stashes the anti-forgery state for a pending provider
// flow.
func (sm *SessionManager) SetOAuthState(session *Session, state string) error {
	session.OAuthState = state
	return sm.Update(session)
}

// Update persists mutations to a session and refreshes the cache entry.
func (sm *SessionManager) Update(session *Session) error {
	session.UpdatedAt = time.Now()
	if err := sm.storage.UpdateSession(session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if sm.cache != nil {
		_ = sm.cache.Set(session.TokenHash, session)
	}
	return nil
}

func (sm *SessionManager) create(userID string, flash map[string]string) (*StartResult, error) {
	pair, err := crypto.GenerateHashedToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: pair.Hash,
		Flash:     flash,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(sm.config.MaxAge),
	}

	if err := sm.storage.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// We don't fail the request if caching fails
	if sm.cache != nil {
		_ = sm.cache.Set(pair.Hash, session)
	}

	return &StartResult{Session: session, Token: pair.Token}, nil
}
