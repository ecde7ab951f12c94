package core

import "errors"

// Identity errors
var (
	ErrUserExists         = errors.New("user already exists")      // duplicate email on create
	ErrUserNotFound       = errors.New("user not found")           // 404 Not Found
	ErrInvalidCredentials = errors.New("invalid user credentials") // unknown email or bad password, never disclosed which
)

// Session errors
var (
	ErrInvalidSession  = errors.New("invalid session token") // malformed or unknown cookie value
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrCacheNotFound   = errors.New("session not found in cache")
)

// OAuth callback errors. CompleteCallback evaluates these in this exact
// order and short-circuits on the first match.
var (
	ErrAccessDenied  = errors.New("access was denied")          // user rejected the consent screen
	ErrStateMismatch = errors.New("oauth state mismatch")       // anti-forgery state absent or stale
	ErrProviderError = errors.New("provider returned an error") // anything else the provider reports
	ErrEmailMissing  = errors.New("provider profile has no email")
)

// Access token errors
var (
	ErrInvalidToken  = errors.New("invalid access token") // 401
	ErrTokenNotFound = errors.New("token not found")      // 400 on revoke
)

// Config errors (server-side configuration)
var (
	ErrStorageRequired  = errors.New("storage adapter is required")
	ErrProviderRequired = errors.New("oauth provider is not configured")
)
