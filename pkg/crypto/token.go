package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const (
	// DefaultTokenLength is the secret size in bytes (256 bits).
	DefaultTokenLength = 32

	// StateLength is the size of OAuth anti-forgery state values.
	StateLength = 24
)

// TokenPair couples the raw value handed to the client with the hash that
// goes to storage. The raw token is never persisted.
type TokenPair struct {
	Token string // value returned to client
	Hash  string // value in storage
}

func generateToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultTokenLength
	}

	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// GenerateHashedToken produces a fresh random token and its storage hash.
func GenerateHashedToken() (*TokenPair, error) {
	token, err := generateToken(DefaultTokenLength)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		Token: token,
		Hash:  HashToken(token),
	}, nil
}

// GenerateState produces a random OAuth state value.
func GenerateState() (string, error) {
	return generateToken(StateLength)
}

// HashToken computes the at-rest representation of a token. SHA-256 is
// enough here: the input already has 256 bits of entropy, so no salt or
// work factor is needed.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// VerifyToken compares a presented token against a stored hash in constant
// time.
func VerifyToken(token, storedHash string) (bool, error) {
	if token == "" || storedHash == "" {
		return false, errors.New("token and hash cannot be empty")
	}

	tokenHash := HashToken(token)

	return subtle.ConstantTimeCompare([]byte(tokenHash), []byte(storedHash)) == 1, nil
}
