// Package gatekeep implements the authentication lifecycle behind two
// small demo applications: session-based login (password and GitHub
// OAuth) and opaque bearer-token API login. Storage and HTTP transports
// are ports; see adapters/ for the pgx, in-memory and fiber
// implementations.
package gatekeep

import (
	"time"

	"github.com/7nohe/gatekeep/core"
)

// interfaces
type (
	Storage         = core.Storage
	UserStore       = core.UserStore
	SessionStore    = core.SessionStore
	TokenStore      = core.TokenStore
	Cache           = core.Cache
	PasswordHandler = core.PasswordHandler
	OAuthProvider   = core.OAuthProvider
)

// structs
type (
	Auth          = core.Auth
	Config        = core.Config
	SessionConfig = core.SessionConfig
	CacheConfig   = core.CacheConfig
)

type (
	User           = core.User
	Profile        = core.Profile
	Session        = core.Session
	AccessToken    = core.AccessToken
	ProviderUser   = core.ProviderUser
	CallbackResult = core.CallbackResult
	UserDefaults   = core.UserDefaults
	StartResult    = core.StartResult
	IssuedToken    = core.IssuedToken
	CacheStats     = core.CacheStats
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache     = core.NewInMemoryCache
	NewArgon2            = core.NewArgon2
	DefaultSessionConfig = core.DefaultSessionConfig
	CallbackError        = core.CallbackError
)

var (
	ErrUserExists         = core.ErrUserExists
	ErrUserNotFound       = core.ErrUserNotFound
	ErrInvalidCredentials = core.ErrInvalidCredentials
)

var (
	ErrInvalidSession  = core.ErrInvalidSession
	ErrSessionNotFound = core.ErrSessionNotFound
	ErrSessionExpired  = core.ErrSessionExpired
	ErrCacheNotFound   = core.ErrCacheNotFound
)

var (
	ErrAccessDenied  = core.ErrAccessDenied
	ErrStateMismatch = core.ErrStateMismatch
	ErrProviderError = core.ErrProviderError
	ErrEmailMissing  = core.ErrEmailMissing
)

var (
	ErrInvalidToken  = core.ErrInvalidToken
	ErrTokenNotFound = core.ErrTokenNotFound
)

var (
	ErrStorageRequired  = core.ErrStorageRequired
	ErrProviderRequired = core.ErrProviderRequired
)

// New assembles the lifecycle managers from a Config, applying defaults
// for everything optional.
func New(config Config) (*Auth, error) {
	if config.Storage == nil {
		return nil, ErrStorageRequired
	}

	// Set Defaults

	cache := config.Cache
	if cache == nil && !config.DisableCache {
		cache = NewInMemoryCache(CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		})
	}

	sessionConfig := config.SessionConfig
	if sessionConfig == nil {
		defaults := DefaultSessionConfig()
		sessionConfig = &defaults
	}

	hasher := config.PasswordHasher
	if hasher == nil {
		hasher = NewArgon2()
	}

	identity := core.NewIdentityResolver(config.Storage, hasher)
	sessions := core.NewSessionManager(*sessionConfig, config.Storage, cache)
	tokens := core.NewTokenManager(config.Storage)

	auth := &Auth{
		Identity: identity,
		Sessions: sessions,
		Tokens:   tokens,
	}

	if config.Provider != nil {
		auth.OAuth = core.NewOAuthResolver(config.Provider, identity, sessions)
	}

	return auth, nil
}
