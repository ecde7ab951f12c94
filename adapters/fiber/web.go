package fiber

import (
	"errors"
	"net/http"

	"github.com/7nohe/gatekeep"
	"github.com/gofiber/fiber/v3"
)

// Flash messages shown by the session login flow.
const (
	flashLoginSuccess = "Logged in successfully"
	flashLoginError   = "Incorrect email or password"

	flashOAuthDenied   = "Access was denied"
	flashOAuthExpired  = "Request expired. Retry again"
	flashOAuthFailed   = "Unable to authenticate. Retry again"
)

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// page is the server-to-client hand-off shape: a component name plus its
// props, with the UI itself rendered elsewhere.
type page struct {
	Component string    `json:"component"`
	Props     fiber.Map `json:"props"`
}

// showLogin renders the login page hand-off for guests. Reading the page
// consumes any pending flash messages.
func (a *Adapter) showLogin(c fiber.Ctx) error {
	flash, err := a.auth.Sessions.PullFlash(Session(c))
	if err != nil {
		return err
	}

	return c.JSON(page{
		Component: "users/login",
		Props:     fiber.Map{"flash": flash},
	})
}

// login verifies credentials and establishes the session. Both outcomes
// are redirects; the result travels as a one-shot flash message.
func (a *Adapter) login(c fiber.Ctx) error {
	session := Session(c)

	var input credentials
	if err := c.Bind().Body(&input); err != nil {
		input = credentials{}
	}

	user, err := a.auth.Identity.VerifyCredentials(input.Email, input.Password)
	if err != nil {
		// Unknown email and wrong password read the same on purpose.
		if ferr := a.auth.Sessions.Flash(session, "error", flashLoginError); ferr != nil {
			return ferr
		}
		return c.Redirect().To("/login")
	}

	result, err := a.auth.Sessions.Login(session, user)
	if err != nil {
		return err
	}
	a.setSessionCookie(c, result)

	if err := a.auth.Sessions.Flash(result.Session, "success", flashLoginSuccess); err != nil {
		return err
	}
	return c.Redirect().To("/")
}

// logout destroys the session and sends the client back to the login
// page.
func (a *Adapter) logout(c fiber.Ctx) error {
	if err := a.auth.Sessions.Logout(Session(c)); err != nil {
		return err
	}

	a.clearSessionCookie(c)
	return c.Redirect().To("/login")
}

// home renders the protected home page hand-off with the bound identity.
func (a *Adapter) home(c fiber.Ctx) error {
	session := Session(c)

	user, err := a.auth.Sessions.CurrentUser(session)
	if err != nil {
		return err
	}
	if user == nil {
		return c.Redirect().To("/login")
	}

	flash, err := a.auth.Sessions.PullFlash(session)
	if err != nil {
		return err
	}

	return c.JSON(page{
		Component: "home",
		Props: fiber.Map{
			"user":  user.Public(),
			"flash": flash,
		},
	})
}

// oauthRedirect sends the client to the provider's consent screen.
func (a *Adapter) oauthRedirect(c fiber.Ctx) error {
	url, err := a.auth.OAuth.Initiate(Session(c), "user")
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "could not start oauth flow",
		})
	}
	return c.Redirect().To(url)
}

// oauthCallback completes the provider exchange. Callback failures become
// a redirect to the login page with a distinct flash message;
// infrastructure failures propagate to the error handler.
func (a *Adapter) oauthCallback(c fiber.Ctx) error {
	session := Session(c)

	result, err := a.auth.OAuth.CompleteCallback(c.Context(), session, gatekeep.CallbackResult{
		Code:  c.Query("code"),
		State: c.Query("state"),
		Error: c.Query("error"),
	})
	if err != nil {
		if !gatekeep.CallbackError(err) {
			return err
		}
		if ferr := a.auth.Sessions.Flash(session, "error", oauthFlashMessage(err)); ferr != nil {
			return ferr
		}
		return c.Redirect().To("/login")
	}

	a.setSessionCookie(c, result)
	if err := a.auth.Sessions.Flash(result.Session, "success", flashLoginSuccess); err != nil {
		return err
	}
	return c.Redirect().To("/")
}

// oauthFlashMessage maps the ordered callback error taxonomy to the
// human-readable flash messages.
func oauthFlashMessage(err error) string {
	switch {
	case errors.Is(err, gatekeep.ErrAccessDenied):
		return flashOAuthDenied
	case errors.Is(err, gatekeep.ErrStateMismatch):
		return flashOAuthExpired
	default:
		return flashOAuthFailed
	}
}
