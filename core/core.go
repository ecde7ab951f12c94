package core

// Config wires the storage and protocol dependencies together.
type Config struct {
	Storage Storage

	// Optional config
	Provider       OAuthProvider
	Cache          Cache
	DisableCache   bool
	SessionConfig  *SessionConfig
	PasswordHasher PasswordHandler
}

// Auth bundles the four lifecycle managers. Build one with gatekeep.New.
type Auth struct {
	Identity *IdentityResolver
	Sessions *SessionManager
	Tokens   *TokenManager
	OAuth    *OAuthResolver // nil when no provider is configured
}
