package tyjson

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// adminEndpoint is served even when the API is switched off and is never
// subject to the token gate; it checks the admin session itself.
const adminEndpoint = "ttdf"

// signedRequestWindow bounds the clock skew accepted on signed requests.
const signedRequestWindow = 300 * time.Second

var reBearer = regexp.MustCompile(`(?i)Bearer\s+(.*)$`)

func equalSecret(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// checkToken validates an Authorization header against cfg.
func checkToken(cfg TokenConfig, header string) error {
	switch cfg.Format {
	case TokenFormatBearer:
		m := reBearer.FindStringSubmatch(header)
		if m == nil {
			return errAuth("Missing or invalid Bearer token")
		}
		if !equalSecret(strings.TrimSpace(m[1]), cfg.Value) {
			return errPermission("Invalid token")
		}
	case TokenFormatToken:
		token := strings.TrimSpace(header)
		if token == "" {
			return errAuth("Missing token")
		}
		if !equalSecret(token, cfg.Value) {
			return errPermission("Invalid token")
		}
	default:
		return errValidation("Unsupported token format")
	}
	return nil
}

// endpointOf returns the dispatch key of the request.
func (a *App) endpointOf(c echo.Context) string {
	r := c.Request()
	return ParseRequest(r.Method, r.URL.Path, nil, a.Config.BasePath).Endpoint()
}

// tokenGate rejects API requests without the configured token. Preflight
// requests carry no credentials and pass through.
func (a *App) tokenGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.Config.Token.Enabled || c.Request().Method == http.MethodOptions || a.endpointOf(c) == adminEndpoint {
			return next(c)
		}
		if err := checkToken(a.Config.Token, c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return err
		}
		return next(c)
	}
}

// enabledGate answers 404 for everything but the admin endpoint while the
// API is switched off.
func (a *App) enabledGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.endpointOf(c) != adminEndpoint && !a.apiEnabled(c.Request().Context()) {
			return errEndpointNotFound
		}
		return next(c)
	}
}

// apiEnabled reads the override setting. A stored "false" switches the API
// off, any other stored value switches it on, and without one the
// configuration decides.
func (a *App) apiEnabled(ctx context.Context) bool {
	v, found, err := a.Settings.Get(ctx, a.Config.OverrideSetting)
	if err != nil || !found {
		return !a.Config.Disabled
	}
	return v != "false"
}

// requireAdmin is the permission check of the admin sub-router.
func requireAdmin(c echo.Context) error {
	role, ok := SessionRole(c)
	if !ok {
		return errAuth("Unauthorized")
	}
	if role != RoleAdministrator {
		return errPermission("Forbidden")
	}
	return nil
}

// requireEditor admits administrators and editors whose request carries
// the session token.
func requireEditor(c echo.Context, token string) error {
	role, ok := SessionRole(c)
	if !ok || (role != RoleAdministrator && role != RoleEditor) {
		return errAuth("Unauthorized")
	}
	want := sessionToken(c)
	if want == "" || !equalSecret(token, want) {
		return errPermission("Invalid Security Token")
	}
	return nil
}

// RequestSignature signs a server-to-server request for content cid at unix
// time ts.
func RequestSignature(cid, ts int64, secret string) string {
	key := md5.Sum([]byte(secret))
	sum := md5.Sum([]byte(strconv.FormatInt(cid, 10) + strconv.FormatInt(ts, 10) + hex.EncodeToString(key[:])))
	return hex.EncodeToString(sum[:])
}

// verifySignature checks a signed request made at ts against now.
func verifySignature(cid, ts int64, sign, secret string, now time.Time) error {
	skew := now.Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > signedRequestWindow {
		return &APIError{Kind: KindConflict, Message: "Request expired"}
	}
	if secret == "" || !equalSecret(sign, RequestSignature(cid, ts, secret)) {
		return errPermission("Invalid signature")
	}
	return nil
}
