package core

import (
	"context"
	"sync"
	"time"
)

// fakeStorage is a test-only Storage backed by maps. Error fields inject
// failures per operation.
type fakeStorage struct {
	mu       sync.RWMutex
	users    map[string]*User
	emails   map[string]string
	sessions map[string]*Session // key: session id
	tokens   map[string]*AccessToken

	createUserErr    error
	getUserErr       error
	createSessionErr error
	getSessionErr    error
	updateSessionErr error
	createTokenErr   error
	deleteTokenErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		users:    make(map[string]*User),
		emails:   make(map[string]string),
		sessions: make(map[string]*Session),
		tokens:   make(map[string]*AccessToken),
	}
}

func (f *fakeStorage) CreateUser(u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createUserErr != nil {
		return f.createUserErr
	}
	if _, taken := f.emails[u.Email]; taken {
		return ErrUserExists
	}
	f.users[u.ID] = u
	f.emails[u.Email] = u.ID
	return nil
}

func (f *fakeStorage) GetUserByID(id string) (*User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStorage) GetUserByEmail(email string) (*User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	id, ok := f.emails[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return f.users[id], nil
}

func (f *fakeStorage) UpdateUser(u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeStorage) CreateSession(s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createSessionErr != nil {
		return f.createSessionErr
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStorage) GetSessionByHash(tokenHash string) (*Session, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getSessionErr != nil {
		return nil, f.getSessionErr
	}
	for _, s := range f.sessions {
		if s.TokenHash == tokenHash {
			return s, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (f *fakeStorage) UpdateSession(s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateSessionErr != nil {
		return f.updateSessionErr
	}
	if _, ok := f.sessions[s.ID]; !ok {
		return ErrSessionNotFound
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStorage) DeleteSessionByID(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeStorage) DeleteExpiredSessions() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	count := 0
	for id, s := range f.sessions {
		if now.After(s.ExpiresAt) {
			delete(f.sessions, id)
			count++
		}
	}
	return count, nil
}

func (f *fakeStorage) CreateToken(t *AccessToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createTokenErr != nil {
		return f.createTokenErr
	}
	f.tokens[t.ID] = t
	return nil
}

func (f *fakeStorage) GetTokenByID(id string) (*AccessToken, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return t, nil
}

func (f *fakeStorage) ListUserTokens(userID string) ([]*AccessToken, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var tokens []*AccessToken
	for _, t := range f.tokens {
		if t.UserID == userID {
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}

func (f *fakeStorage) TouchToken(id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[id]; ok {
		t.LastUsedAt = &at
	}
	return nil
}

func (f *fakeStorage) DeleteToken(userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteTokenErr != nil {
		return f.deleteTokenErr
	}
	t, ok := f.tokens[id]
	if !ok || t.UserID != userID {
		return ErrTokenNotFound
	}
	delete(f.tokens, id)
	return nil
}

// fastHasher keeps identity tests quick; argon2 is exercised in
// password_test.go.
type fastHasher struct{}

func (fastHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fastHasher) Verify(password, hash string) (bool, error) {
	return "hashed:"+password == hash, nil
}

// fakeProvider is a scriptable OAuthProvider for callback tests.
type fakeProvider struct {
	exchangeErr  error
	fetchErr     error
	profile      *ProviderUser
	exchangedFor string
}

var _ OAuthProvider = (*fakeProvider)(nil)

func (f *fakeProvider) Name() string { return "github" }

func (f *fakeProvider) AuthURL(state string, scopes []string) string {
	return "https://provider.example/authorize?state=" + state
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (string, error) {
	f.exchangedFor = code
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "provider-access-token", nil
}

func (f *fakeProvider) FetchUser(_ context.Context, accessToken string) (*ProviderUser, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.profile != nil {
		return f.profile, nil
	}
	return &ProviderUser{Email: "octocat@example.com", Name: "Octo Cat"}, nil
}
