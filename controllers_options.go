package tyjson

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// publicOptions are the site options /options may list.
var publicOptions = []string{
	"title", "description", "keywords", "theme", "plugins", "timezone", "lang",
	"charset", "contentType", "siteUrl", "rootUrl", "rewrite", "generator",
	"feedUrl", "searchUrl",
}

// handleOptions serves /options and /options/{name}.
func (a *App) handleOptions(c echo.Context, rc RequestContext, _ *Formatter) (Result, error) {
	ctx := c.Request().Context()
	name := rc.Segment(1)
	if name == "" {
		all, err := a.Store.Options(ctx)
		if err != nil {
			return Result{}, err
		}
		out := make(map[string]string)
		for _, opt := range publicOptions {
			if a.Config.Restrict.OptionRestricted(opt) {
				continue
			}
			if v, found := all[opt]; found {
				out[opt] = v
			}
		}
		return ok(out), nil
	}

	if a.Config.Restrict.OptionRestricted(name) {
		return Result{}, errForbidden
	}
	v, err := a.Store.Option(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return Result{}, errNotFound("Option not found")
	}
	if err != nil {
		return Result{}, err
	}
	return ok(map[string]string{"name": name, "value": v}), nil
}
