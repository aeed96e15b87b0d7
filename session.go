package tyjson

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const sessionName = "ttdf_session"

// Role is the group of a logged-in user.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEditor        Role = "editor"
)

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// SessionRole returns the role of the logged-in user and whether a user is
// logged in at all.
func SessionRole(c echo.Context) (Role, bool) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return "", false
	}
	auth, ok := sess.Values["authenticated"].(bool)
	if !ok || !auth {
		return "", false
	}
	role, _ := sess.Values["role"].(string)
	return Role(role), true
}

// IsAdmin checks if the current session belongs to an administrator.
func IsAdmin(c echo.Context) bool {
	role, ok := SessionRole(c)
	return ok && role == RoleAdministrator
}

// sessionToken is the per-session token manual AI summary requests must
// echo back.
func sessionToken(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	token, _ := sess.Values["token"].(string)
	return token
}

func setSession(c echo.Context, role Role) (string, error) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	sess.Values["authenticated"] = true
	sess.Values["role"] = string(role)
	sess.Values["token"] = token
	return token, sess.Save(c.Request(), c.Response())
}

func clearSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values = make(map[interface{}]interface{})
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// roleForPassword returns the role a password logs in as, or "".
func (a *App) roleForPassword(pass string) Role {
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		return RoleAdministrator
	}
	if a.Config.EditorPassword != "" &&
		subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.EditorPassword)) == 1 {
		return RoleEditor
	}
	return ""
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return &APIError{Kind: KindRateLimited, Message: "Too many login attempts. Try again later."}
	}
	role := a.roleForPassword(c.FormValue("password"))
	if role == "" {
		a.loginLimiter.Record(ip)
		return errAuth("Invalid password")
	}
	token, err := setSession(c, role)
	if err != nil {
		return err
	}
	return a.writeEnvelope(c, requestFormat(c), http.StatusOK, "", ok(map[string]string{
		"role":  string(role),
		"token": token,
	}), nil)
}

func (a *App) handleLogout(c echo.Context) error {
	if err := clearSession(c); err != nil {
		return err
	}
	return a.writeEnvelope(c, requestFormat(c), http.StatusOK, "", ok(map[string]string{
		"message": "Logged out",
	}), nil)
}
