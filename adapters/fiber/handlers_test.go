package fiber

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7nohe/gatekeep"
	"github.com/7nohe/gatekeep/adapters/memory"
)

// stubProvider is a scriptable OAuth provider for callback tests.
type stubProvider struct {
	profile gatekeep.ProviderUser
}

func (s *stubProvider) Name() string { return "github" }

func (s *stubProvider) AuthURL(state string, scopes []string) string {
	return "https://github.example/authorize?state=" + url.QueryEscape(state)
}

func (s *stubProvider) Exchange(_ context.Context, code string) (string, error) {
	return "provider-token", nil
}

func (s *stubProvider) FetchUser(_ context.Context, _ string) (*gatekeep.ProviderUser, error) {
	profile := s.profile
	return &profile, nil
}

type testApp struct {
	app     *fiber.App
	adapter *Adapter
}

func newTestApp(t *testing.T, provider gatekeep.OAuthProvider) *testApp {
	t.Helper()

	auth, err := gatekeep.New(gatekeep.Config{
		Storage:  memory.New(),
		Provider: provider,
	})
	require.NoError(t, err)

	_, err = auth.Identity.Create("john.doe@example.com", "John Doe", "password")
	require.NoError(t, err)

	app := fiber.New()
	adapter := New(app, auth)
	adapter.RegisterWebRoutes()
	adapter.RegisterAPIRoutes()
	if provider != nil {
		require.NoError(t, adapter.RegisterOAuthRoutes())
	}

	app.Get("/hello", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"hello": "world"})
	}, adapter.RequireToken())

	return &testApp{app: app, adapter: adapter}
}

func (ta *testApp) do(t *testing.T, method, target, cookie string, form url.Values) *http.Response {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: cookie})
	}

	resp, err := ta.app.Test(req)
	require.NoError(t, err)
	return resp
}

func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == DefaultCookieName {
			return c.Value
		}
	}
	return ""
}

func decodePage(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var page map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	return page
}

func flashOf(t *testing.T, page map[string]any) map[string]any {
	t.Helper()
	props, ok := page["props"].(map[string]any)
	require.True(t, ok, "page has no props")
	flash, _ := props["flash"].(map[string]any)
	return flash
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	require.GreaterOrEqual(t, resp.StatusCode, 300)
	require.Less(t, resp.StatusCode, 400)
	assert.Equal(t, location, resp.Header.Get("Location"))
}

func TestWeb_LoginSuccess(t *testing.T) {
	ta := newTestApp(t, nil)

	resp := ta.do(t, http.MethodPost, "/login", "", url.Values{
		"email":    {"john.doe@example.com"},
		"password": {"password"},
	})
	assertRedirect(t, resp, "/")
	cookie := sessionCookie(t, resp)
	require.NotEmpty(t, cookie)

	// Home renders the identity plus the one-shot success flash.
	resp = ta.do(t, http.MethodGet, "/", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodePage(t, resp)
	assert.Equal(t, "home", page["component"])

	flash := flashOf(t, page)
	assert.Equal(t, "Logged in successfully", flash["success"])

	props := page["props"].(map[string]any)
	user := props["user"].(map[string]any)
	assert.Equal(t, "John Doe", user["fullName"])
	assert.Equal(t, "john.doe@example.com", user["email"])
	assert.NotEmpty(t, user["id"])
	// Only id, fullName and email leave the server.
	assert.Len(t, user, 3)

	// Flash is consumed by the first read.
	resp = ta.do(t, http.MethodGet, "/", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, flashOf(t, decodePage(t, resp)))
}

func TestWeb_LoginWrongPassword(t *testing.T) {
	ta := newTestApp(t, nil)

	resp := ta.do(t, http.MethodPost, "/login", "", url.Values{
		"email":    {"john.doe@example.com"},
		"password": {"wrong"},
	})
	assertRedirect(t, resp, "/login")
	cookie := sessionCookie(t, resp)
	require.NotEmpty(t, cookie)

	resp = ta.do(t, http.MethodGet, "/login", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodePage(t, resp)
	assert.Equal(t, "users/login", page["component"])
	assert.Equal(t, "Incorrect email or password", flashOf(t, page)["error"])
}

func TestWeb_LoginUnknownEmailReadsTheSame(t *testing.T) {
	ta := newTestApp(t, nil)

	resp := ta.do(t, http.MethodPost, "/login", "", url.Values{
		"email":    {"nobody@example.com"},
		"password": {"password"},
	})
	assertRedirect(t, resp, "/login")

	resp = ta.do(t, http.MethodGet, "/login", sessionCookie(t, resp), nil)
	assert.Equal(t, "Incorrect email or password", flashOf(t, decodePage(t, resp))["error"])
}

func TestWeb_Guards(t *testing.T) {
	ta := newTestApp(t, nil)

	// Anonymous requests to protected routes bounce to the login page.
	resp := ta.do(t, http.MethodGet, "/", "", nil)
	assertRedirect(t, resp, "/login")

	// Authenticated requests to guest-only routes bounce home.
	resp = ta.do(t, http.MethodPost, "/login", "", url.Values{
		"email":    {"john.doe@example.com"},
		"password": {"password"},
	})
	cookie := sessionCookie(t, resp)

	resp = ta.do(t, http.MethodGet, "/login", cookie, nil)
	assertRedirect(t, resp, "/")
}

func TestWeb_Logout(t *testing.T) {
	ta := newTestApp(t, nil)

	resp := ta.do(t, http.MethodPost, "/login", "", url.Values{
		"email":    {"john.doe@example.com"},
		"password": {"password"},
	})
	cookie := sessionCookie(t, resp)

	resp = ta.do(t, http.MethodDelete, "/logout", cookie, nil)
	assertRedirect(t, resp, "/login")

	// The destroyed session no longer authenticates.
	resp = ta.do(t, http.MethodGet, "/", cookie, nil)
	assertRedirect(t, resp, "/login")
}

func TestOAuth_RedirectCarriesState(t *testing.T) {
	ta := newTestApp(t, &stubProvider{profile: gatekeep.ProviderUser{Email: "octo@example.com", Name: "Octo Cat"}})

	resp := ta.do(t, http.MethodGet, "/github/redirect", "", nil)
	require.GreaterOrEqual(t, resp.StatusCode, 300)
	require.Less(t, resp.StatusCode, 400)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "github.example", location.Host)
	assert.NotEmpty(t, location.Query().Get("state"))
	require.NotEmpty(t, sessionCookie(t, resp))
}

func TestOAuth_CallbackSuccess(t *testing.T) {
	ta := newTestApp(t, &stubProvider{profile: gatekeep.ProviderUser{Email: "octo@example.com", Name: "Octo Cat"}})

	resp := ta.do(t, http.MethodGet, "/github/redirect", "", nil)
	cookie := sessionCookie(t, resp)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")

	resp = ta.do(t, http.MethodGet, "/github/callback?code=good-code&state="+url.QueryEscape(state), cookie, nil)
	assertRedirect(t, resp, "/")
	cookie = sessionCookie(t, resp) // regenerated on login
	require.NotEmpty(t, cookie)

	resp = ta.do(t, http.MethodGet, "/", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodePage(t, resp)
	user := page["props"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "octo@example.com", user["email"])
	assert.Equal(t, "Octo Cat", user["fullName"])
	assert.Equal(t, "Logged in successfully", flashOf(t, page)["success"])
}

func TestOAuth_CallbackErrors(t *testing.T) {
	tests := []struct {
		name      string
		query     func(state string) string
		wantFlash string
	}{
		{
			name: "access denied reported before state mismatch",
			query: func(state string) string {
				return "error=access_denied&state=stale"
			},
			wantFlash: "Access was denied",
		},
		{
			name: "state mismatch",
			query: func(state string) string {
				return "code=good-code&state=stale"
			},
			wantFlash: "Request expired. Retry again",
		},
		{
			name: "provider error",
			query: func(state string) string {
				return "error=server_error&state=" + url.QueryEscape(state)
			},
			wantFlash: "Unable to authenticate. Retry again",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ta := newTestApp(t, &stubProvider{profile: gatekeep.ProviderUser{Email: "octo@example.com"}})

			resp := ta.do(t, http.MethodGet, "/github/redirect", "", nil)
			cookie := sessionCookie(t, resp)
			location, err := url.Parse(resp.Header.Get("Location"))
			require.NoError(t, err)
			state := location.Query().Get("state")

			resp = ta.do(t, http.MethodGet, "/github/callback?"+test.query(state), cookie, nil)
			assertRedirect(t, resp, "/login")

			resp = ta.do(t, http.MethodGet, "/login", cookie, nil)
			assert.Equal(t, test.wantFlash, flashOf(t, decodePage(t, resp))["error"])
		})
	}
}

func TestAPI_LoginLogoutCycle(t *testing.T) {
	ta := newTestApp(t, nil)

	// Valid credentials yield a non-empty opaque token.
	resp := ta.do(t, http.MethodPost, "/api/login", "", url.Values{
		"email":    {"john.doe@example.com"},
		"password": {"password"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var issued struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&issued))
	assert.Equal(t, "bearer", issued.Type)
	require.NotEmpty(t, issued.Token)

	bearer := func(method, target string) *http.Response {
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set("Authorization", "Bearer "+issued.Token)
		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		return resp
	}

	// The token authenticates protected routes.
	resp = bearer(http.MethodGet, "/hello")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Logout revokes exactly the presented token.
	resp = bearer(http.MethodDelete, "/api/logout")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Logged out", out["message"])

	// A repeat logout fails during resolution, before any revoke logic.
	resp = bearer(http.MethodDelete, "/api/logout")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out = map[string]string{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Token not found", out["message"])

	// And the revoked token no longer authenticates.
	resp = bearer(http.MethodGet, "/hello")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_LoginInvalidCredentials(t *testing.T) {
	ta := newTestApp(t, nil)

	resp := ta.do(t, http.MethodPost, "/api/login", "", url.Values{
		"email":    {"john.doe@example.com"},
		"password": {"wrong"},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "Invalid user credentials", body.Errors[0].Message)
}

func TestRegisterOAuthRoutes_RequiresProvider(t *testing.T) {
	auth, err := gatekeep.New(gatekeep.Config{Storage: memory.New()})
	require.NoError(t, err)

	adapter := New(fiber.New(), auth)
	assert.ErrorIs(t, adapter.RegisterOAuthRoutes(), gatekeep.ErrProviderRequired)
}

func TestAPI_GuardRejectsMissingToken(t *testing.T) {
	ta := newTestApp(t, nil)

	resp := ta.do(t, http.MethodGet, "/hello", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
