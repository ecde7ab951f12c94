// Package fiber adapts the auth lifecycle onto gofiber/fiber/v3: the
// session-backed web routes of the login demo and the bearer-token API
// routes of the token demo.
package fiber

import (
	"github.com/7nohe/gatekeep"
	"github.com/gofiber/fiber/v3"
)

const (
	// DefaultCookieName carries the opaque session token.
	DefaultCookieName = "gatekeep_session"

	localSession = "session"
	localUser    = "user"
	localToken   = "token"
)

type Adapter struct {
	app        *fiber.App
	auth       *gatekeep.Auth
	cookieName string
}

func New(app *fiber.App, auth *gatekeep.Auth) *Adapter {
	return &Adapter{app: app, auth: auth, cookieName: DefaultCookieName}
}

// RegisterWebRoutes mounts the session login flow.
func (a *Adapter) RegisterWebRoutes() {
	a.app.Get("/login", a.showLogin, a.loadSession, a.requireGuest)
	a.app.Post("/login", a.login, a.loadSession)
	a.app.Delete("/logout", a.logout, a.loadSession, a.requireAuth)
	a.app.Get("/", a.home, a.loadSession, a.requireAuth)
}

// RegisterOAuthRoutes mounts the third-party login exchange under the
// provider's name ("/github/redirect", "/github/callback").
func (a *Adapter) RegisterOAuthRoutes() error {
	if a.auth.OAuth == nil {
		return gatekeep.ErrProviderRequired
	}

	oauth := a.app.Group("/" + a.auth.OAuth.Provider().Name())
	oauth.Get("/redirect", a.oauthRedirect, a.loadSession)
	oauth.Get("/callback", a.oauthCallback, a.loadSession)
	return nil
}

// RegisterAPIRoutes mounts the opaque bearer-token flow.
func (a *Adapter) RegisterAPIRoutes() {
	api := a.app.Group("/api")
	api.Post("/login", a.apiLogin)
	api.Delete("/logout", a.apiLogout)
}

// Session returns the session the loadSession middleware attached.
func Session(c fiber.Ctx) *gatekeep.Session {
	if s, ok := c.Locals(localSession).(*gatekeep.Session); ok {
		return s
	}
	return nil
}

// CurrentUser returns the user attached by RequireToken.
func CurrentUser(c fiber.Ctx) *gatekeep.User {
	if u, ok := c.Locals(localUser).(*gatekeep.User); ok {
		return u
	}
	return nil
}

// CurrentToken returns the access token record attached by RequireToken.
func CurrentToken(c fiber.Ctx) *gatekeep.AccessToken {
	if t, ok := c.Locals(localToken).(*gatekeep.AccessToken); ok {
		return t
	}
	return nil
}
