package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/7nohe/gatekeep/pkg/crypto"
)

// OAuthProvider is the client for one third-party identity provider. The
// protocol details (endpoints, PKCE, token exchange) live behind it.
type OAuthProvider interface {
	// Name identifies the provider ("github").
	Name() string

	// AuthURL builds the consent-screen redirect for the given anti-forgery
	// state. An empty scopes slice means the provider's configured default.
	AuthURL(state string, scopes []string) string

	// Exchange trades an authorization code for a provider access token.
	Exchange(ctx context.Context, code string) (string, error)

	// FetchUser loads the provider profile for an access token.
	FetchUser(ctx context.Context, accessToken string) (*ProviderUser, error)
}

// CallbackResult carries the raw query parameters the provider sends to
// the callback route.
type CallbackResult struct {
	Code  string
	State string
	Error string // the "error" query parameter, e.g. "access_denied"
}

// OAuthResolver drives the third-party login exchange and converges it
// onto the local user model.
type OAuthResolver struct {
	provider OAuthProvider
	identity *IdentityResolver
	sessions *SessionManager
}

func NewOAuthResolver(provider OAuthProvider, identity *IdentityResolver, sessions *SessionManager) *OAuthResolver {
	return &OAuthResolver{provider: provider, identity: identity, sessions: sessions}
}

// Provider exposes the configured provider client.
func (o *OAuthResolver) Provider() OAuthProvider {
	return o.provider
}

// Initiate generates an anti-forgery state, stashes it in the session and
// returns the provider redirect URL.
func (o *OAuthResolver) Initiate(session *Session, scopes ...string) (string, error) {
	state, err := crypto.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	if err := o.sessions.SetOAuthState(session, state); err != nil {
		return "", err
	}

	return o.provider.AuthURL(state, scopes), nil
}

// CompleteCallback validates the provider's callback result and, on
// success, resolves the local user and logs the session in.
//
// The checks run in a fixed order and short-circuit on the first match:
// access denied, then state mismatch, then any other provider error. The
// order is a contract: a denied request must never surface as a state
// mismatch, even when the state is also stale.
func (o *OAuthResolver) CompleteCallback(ctx context.Context, session *Session, result CallbackResult) (*StartResult, error) {
	expected := session.OAuthState

	// A consumed state is stale regardless of outcome.
	if expected != "" {
		if err := o.sessions.SetOAuthState(session, ""); err != nil {
			return nil, err
		}
	}

	if result.Error == "access_denied" {
		return nil, ErrAccessDenied
	}

	if expected == "" || result.State == "" ||
		subtle.ConstantTimeCompare([]byte(expected), []byte(result.State)) != 1 {
		return nil, ErrStateMismatch
	}

	if result.Error != "" || result.Code == "" {
		return nil, ErrProviderError
	}

	accessToken, err := o.provider.Exchange(ctx, result.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange failed: %v", ErrProviderError, err)
	}

	profile, err := o.provider.FetchUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: profile fetch failed: %v", ErrProviderError, err)
	}
	if profile.Email == "" {
		return nil, ErrEmailMissing
	}

	user, err := o.identity.FindOrCreateByEmail(profile.Email, UserDefaults{FullName: profile.Name})
	if err != nil {
		return nil, err
	}

	return o.sessions.Login(session, user)
}

// CallbackError reports whether err belongs to the ordered callback
// taxonomy, as opposed to an infrastructure failure.
func CallbackError(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrStateMismatch) ||
		errors.Is(err, ErrProviderError) ||
		errors.Is(err, ErrEmailMissing)
}
