package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/7nohe/gatekeep/pkg/crypto"
	"github.com/google/uuid"
)

// tokenPrefix marks opaque access tokens on the wire. The full shape is
// "oat_<id>.<secret>"; the id locates the row, the secret proves
// possession.
const tokenPrefix = "oat_"

// TokenManager issues, resolves and revokes opaque bearer access tokens.
// Tokens have no automatic expiry; they live until the owner revokes them.
type TokenManager struct {
	storage Storage
}

// IssuedToken is the one-time response to a successful issuance. Token is
// the only place the raw secret ever appears.
type IssuedToken struct {
	Type       string     `json:"type"` // always "bearer"
	Name       string     `json:"name,omitempty"`
	Token      string     `json:"token"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	ExpiresAt  *time.Time `json:"expiresAt"`
}

func NewTokenManager(storage Storage) *TokenManager {
	return &TokenManager{storage: storage}
}

// Issue mints a new access token for the user. Multiple live tokens per
// user are allowed (one per device).
func (tm *TokenManager) Issue(user *User, name string) (*IssuedToken, *AccessToken, error) {
	pair, err := crypto.GenerateHashedToken()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate token: %w", err)
	}

	record := &AccessToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      name,
		Hash:      pair.Hash,
		CreatedAt: time.Now(),
	}

	if err := tm.storage.CreateToken(record); err != nil {
		return nil, nil, fmt.Errorf("failed to create token: %w", err)
	}

	issued := &IssuedToken{
		Type:  "bearer",
		Name:  name,
		Token: tokenPrefix + record.ID + "." + pair.Token,
	}

	return issued, record, nil
}

// Resolve maps a presented token back to its owner. It fails closed: a
// malformed token, a missing row, a hash mismatch and a deleted owner all
// come back as ErrInvalidToken. The hash comparison is constant time.
func (tm *TokenManager) Resolve(raw string) (*User, *AccessToken, error) {
	id, secret, ok := splitToken(raw)
	if !ok {
		return nil, nil, ErrInvalidToken
	}

	record, err := tm.storage.GetTokenByID(id)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	valid, err := crypto.VerifyToken(secret, record.Hash)
	if err != nil || !valid {
		return nil, nil, ErrInvalidToken
	}

	user, err := tm.storage.GetUserByID(record.UserID)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	// Best effort; a failed touch must not fail the request.
	now := time.Now()
	_ = tm.storage.TouchToken(record.ID, now)
	record.LastUsedAt = &now

	return user, record, nil
}

// Revoke deletes one token owned by the user. The id comes from the token
// presented on the current request, never from a caller-supplied token
// string, so a caller can only ever revoke what it holds.
func (tm *TokenManager) Revoke(user *User, tokenID string) error {
	err := tm.storage.DeleteToken(user.ID, tokenID)
	if errors.Is(err, ErrTokenNotFound) {
		return ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// List returns the user's live tokens. Hashes stay out of the JSON
// serialization.
func (tm *TokenManager) List(user *User) ([]*AccessToken, error) {
	tokens, err := tm.storage.ListUserTokens(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

func splitToken(raw string) (id, secret string, ok bool) {
	rest, found := strings.CutPrefix(raw, tokenPrefix)
	if !found {
		return "", "", false
	}

	id, secret, found = strings.Cut(rest, ".")
	if !found || id == "" || secret == "" {
		return "", "", false
	}

	return id, secret, true
}
