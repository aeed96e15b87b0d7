package tyjson

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// Envelope is the body of every API response.
type Envelope struct {
	Code         int            `json:"code"`
	Message      string         `json:"message"`
	Data         any            `json:"data"`
	Meta         map[string]any `json:"meta"`
	ErrorDetails *ErrorDetails  `json:"error_details,omitempty"`
}

// ErrorDetails is only sent in debug mode.
type ErrorDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
}

// Result is what a controller hands back: the payload plus any extra meta
// keys such as pagination.
type Result struct {
	Data any
	Meta map[string]any
}

func ok(data any) Result { return Result{Data: data} }

func paged(data any, p Pagination) Result {
	return Result{Data: data, Meta: map[string]any{"pagination": p}}
}

// writeEnvelope serializes one envelope. Once the response is committed
// later calls are no-ops, so an error after output never re-sends headers.
func (a *App) writeEnvelope(c echo.Context, format ContentFormat, code int, message string, res Result, details *ErrorDetails) error {
	if c.Response().Committed {
		return nil
	}
	if code == http.StatusOK {
		message = "success"
	}
	meta := map[string]any{
		"format":    format,
		"timestamp": a.now().Unix(),
	}
	for k, v := range res.Meta {
		meta[k] = v
	}
	env := Envelope{
		Code:         code,
		Message:      message,
		Data:         res.Data,
		Meta:         meta,
		ErrorDetails: details,
	}

	a.setResponseHeaders(c)
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "application/json; charset=UTF-8")
	resp.WriteHeader(code)
	enc := json.NewEncoder(resp)
	enc.SetEscapeHTML(false)
	if a.Config.Debug {
		enc.SetIndent("", "    ")
	}
	return enc.Encode(env)
}

// writeError renders err as an error envelope. Debug mode adds the
// underlying error and, for unexpected failures, a stack trace.
func (a *App) writeError(c echo.Context, format ContentFormat, err error, trace string) error {
	apiErr := asAPIError(err)
	var details *ErrorDetails
	if a.Config.Debug && (apiErr.Err != nil || trace != "") {
		msg := apiErr.Message
		if apiErr.Err != nil {
			msg = apiErr.Err.Error()
		}
		details = &ErrorDetails{Message: msg, Trace: trace}
	}
	return a.writeEnvelope(c, format, apiErr.Kind.Status(), apiErr.Message, Result{}, details)
}

// siteOrigin reduces the configured site URL to scheme://host.
func siteOrigin(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(siteURL, "/")
	}
	return u.Scheme + "://" + u.Host
}

func (a *App) setResponseHeaders(c echo.Context) {
	h := c.Response().Header()
	for name, value := range a.Config.Headers {
		h.Set(name, value)
	}
	origin := c.Request().Header.Get(echo.HeaderOrigin)
	if origin == "" {
		origin = siteOrigin(a.Config.SiteURL)
	}
	h.Set(echo.HeaderAccessControlAllowOrigin, origin)
	h.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, Authorization, X-Requested-With")
	h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
	h.Set(echo.HeaderAccessControlAllowCredentials, "true")
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

// requestFormat reads the format parameter for envelopes written before a
// RequestContext exists.
func requestFormat(c echo.Context) ContentFormat {
	if strings.EqualFold(c.QueryParam("format"), string(FormatMarkdown)) {
		return FormatMarkdown
	}
	return FormatHTML
}
