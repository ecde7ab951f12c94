package fiber

import (
	"net/http"
	"time"

	"github.com/7nohe/gatekeep"
	"github.com/gofiber/fiber/v3"
)

// loadSession resumes the session named by the cookie, or starts a fresh
// anonymous one. Every web request leaves with a session in Locals, so
// downstream handlers can always flash.
func (a *Adapter) loadSession(c fiber.Ctx) error {
	if raw := c.Cookies(a.cookieName); raw != "" {
		if session, err := a.auth.Sessions.Resume(raw); err == nil {
			c.Locals(localSession, session)
			return c.Next()
		}
		// Invalid or expired cookie; fall through and reissue.
	}

	result, err := a.auth.Sessions.Start()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "could not start session",
		})
	}

	a.setSessionCookie(c, result)
	c.Locals(localSession, result.Session)
	return c.Next()
}

// requireAuth rejects anonymous requests on protected routes.
func (a *Adapter) requireAuth(c fiber.Ctx) error {
	session := Session(c)
	if session == nil || !session.Authenticated() {
		return c.Redirect().To("/login")
	}
	return c.Next()
}

// requireGuest keeps authenticated users off guest-only routes such as the
// login page.
func (a *Adapter) requireGuest(c fiber.Ctx) error {
	session := Session(c)
	if session != nil && session.Authenticated() {
		return c.Redirect().To("/")
	}
	return c.Next()
}

// RequireToken is the bearer guard for API routes. It validates the
// Authorization header, resolves the token and stores user and token in
// the context for downstream handlers.
func (a *Adapter) RequireToken() fiber.Handler {
	return func(c fiber.Ctx) error {
		user, token, err := a.auth.Tokens.Resolve(bearerToken(c))
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"errors": []fiber.Map{{"message": "Unauthorized access"}},
			})
		}

		c.Locals(localUser, user)
		c.Locals(localToken, token)
		return c.Next()
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

func (a *Adapter) setSessionCookie(c fiber.Ctx, result *gatekeep.StartResult) {
	c.Cookie(&fiber.Cookie{
		Name:     a.cookieName,
		Value:    result.Token,
		Expires:  result.Session.ExpiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

func (a *Adapter) clearSessionCookie(c fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}
