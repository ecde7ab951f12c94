package fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
)

// apiLogin verifies credentials and mints an opaque access token. The raw
// token appears in this response and nowhere else.
func (a *Adapter) apiLogin(c fiber.Ctx) error {
	var input credentials
	if err := c.Bind().Body(&input); err != nil {
		input = credentials{}
	}

	user, err := a.auth.Identity.VerifyCredentials(input.Email, input.Password)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"errors": []fiber.Map{{"message": "Invalid user credentials"}},
		})
	}

	issued, _, err := a.auth.Tokens.Issue(user, "")
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"errors": []fiber.Map{{"message": "Could not issue token"}},
		})
	}

	return c.JSON(issued)
}

// apiLogout revokes the token presented on this request. A token that
// fails to resolve (already revoked, malformed, unknown) is reported as
// not found before any revoke logic runs.
func (a *Adapter) apiLogout(c fiber.Ctx) error {
	user, token, err := a.auth.Tokens.Resolve(bearerToken(c))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Token not found",
		})
	}

	// Revocation targets the identifier of the presented token, never a
	// caller-supplied one.
	if err := a.auth.Tokens.Revoke(user, token.ID); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Token not found",
		})
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}
