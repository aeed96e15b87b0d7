package tyjson

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// handlerFunc is the shape of every endpoint handler. It receives the parsed
// request and a formatter bound to the request's format, and returns the
// payload or an error for the dispatcher to render.
type handlerFunc func(c echo.Context, rc RequestContext, f *Formatter) (Result, error)

func (a *App) endpointTable() map[string]handlerFunc {
	return map[string]handlerFunc{
		"":               a.handleIndex,
		"index":          a.handleIndex,
		"posts":          a.handlePosts,
		"pages":          a.handlePages,
		"content":        a.handleContent,
		"category":       a.handleTerm("category", "Category not found"),
		"tag":            a.handleTerm("tag", "Tag not found"),
		"search":         a.handleSearch,
		"options":        a.handleOptions,
		"fields":         a.handleFieldSearch,
		"advancedFields": a.handleAdvancedFieldSearch,
		"comments":       a.handleComments,
		"attachments":    a.handleAttachments,
		adminEndpoint:    a.handleAdmin,
		"ai-summary":     a.handleAISummary,
	}
}

// serveAPI handles every request under the base path. It writes exactly one
// envelope: the handler's result, or the error it returned or panicked with.
func (a *App) serveAPI(c echo.Context) (err error) {
	r := c.Request()
	rc := ParseRequest(r.Method, r.URL.Path, r.URL.Query(), a.Config.BasePath)
	defer func() {
		if p := recover(); p != nil {
			err = a.fail(c, rc, fmt.Errorf("panic: %v", p), string(debug.Stack()))
		}
	}()

	res, err := a.dispatch(c, rc)
	if err != nil {
		return a.fail(c, rc, err, "")
	}
	return a.writeEnvelope(c, rc.Format, http.StatusOK, "", res, nil)
}

func (a *App) dispatch(c echo.Context, rc RequestContext) (Result, error) {
	switch rc.Method {
	case http.MethodOptions:
		return ok([]any{}), nil
	case http.MethodGet, http.MethodPost:
	default:
		return Result{}, errMethodNotAllowed
	}

	endpoint := rc.Endpoint()
	if a.Config.Restrict.EndpointRestricted(rc.Method, endpoint) {
		return Result{}, errForbidden
	}
	h, found := a.endpoints[endpoint]
	if !found {
		return Result{}, errEndpointNotFound
	}
	f := NewFormatter(a.Store, rc.Format, rc.ExcerptLength, a.loc)
	return h(c, rc, f)
}

// fail logs unexpected errors and renders err as an envelope. The stack
// trace reaches the client only in debug mode.
func (a *App) fail(c echo.Context, rc RequestContext, err error, trace string) error {
	apiErr := asAPIError(err)
	if !apiErr.Expected() {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		c.Logger().Errorf("%s %s failed (id=%s): %v", rc.Method, rc.Path, id, err)
		if trace != "" {
			c.Logger().Debug(trace)
		}
	}
	if !a.Config.Debug {
		trace = ""
	}
	return a.writeError(c, rc.Format, apiErr, trace)
}
