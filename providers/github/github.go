// Package github implements the core.OAuthProvider port for GitHub.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/7nohe/gatekeep/core"
	"golang.org/x/oauth2"
	oauth2github "golang.org/x/oauth2/github"
)

const defaultAPIBaseURL = "https://api.github.com"

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Scopes requested when Initiate passes none. Defaults to "user".
	Scopes []string

	// Endpoint and APIBaseURL are overridable for tests.
	Endpoint   oauth2.Endpoint
	APIBaseURL string

	HTTPClient *http.Client
}

type Provider struct {
	conf    *oauth2.Config
	apiBase string
	client  *http.Client
}

var _ core.OAuthProvider = (*Provider)(nil)

func New(cfg Config) *Provider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = oauth2github.Endpoint
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"user"}
	}

	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Provider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		apiBase: apiBase,
		client:  client,
	}
}

func (p *Provider) Name() string {
	return "github"
}

func (p *Provider) AuthURL(state string, scopes []string) string {
	if len(scopes) == 0 {
		return p.conf.AuthCodeURL(state)
	}

	conf := *p.conf
	conf.Scopes = scopes
	return conf.AuthCodeURL(state)
}

func (p *Provider) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("code exchange failed: %w", err)
	}
	return token.AccessToken, nil
}

// FetchUser loads the authenticated GitHub profile. GitHub omits the email
// from /user when the user keeps it private, so an empty email falls back
// to the primary address from /user/emails.
func (p *Provider) FetchUser(ctx context.Context, accessToken string) (*core.ProviderUser, error) {
	var profile struct {
		Login string  `json:"login"`
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := p.get(ctx, "/user", accessToken, &profile); err != nil {
		return nil, err
	}

	user := &core.ProviderUser{Name: profile.Login}
	if profile.Name != nil && *profile.Name != "" {
		user.Name = *profile.Name
	}
	if profile.Email != nil {
		user.Email = *profile.Email
	}

	if user.Email == "" {
		email, err := p.primaryEmail(ctx, accessToken)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}

	return user, nil
}

func (p *Provider) primaryEmail(ctx context.Context, accessToken string) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := p.get(ctx, "/user/emails", accessToken, &emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}

func (p *Provider) get(ctx context.Context, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("github api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
