package tyjson

import (
	"context"
	"errors"
	"runtime"
	"strconv"

	"github.com/labstack/echo/v4"
)

func pageOf(rc RequestContext) Page {
	return Page{Limit: rc.PageSize, Offset: rc.Offset()}
}

func (a *App) handleIndex(c echo.Context, _ RequestContext, _ *Formatter) (Result, error) {
	opts, err := a.Store.Options(c.Request().Context())
	if err != nil {
		return Result{}, err
	}
	lang := opts["lang"]
	if lang == "" {
		lang = "zh-CN"
	}
	siteURL := opts["siteUrl"]
	if siteURL == "" {
		siteURL = a.Config.SiteURL
	}
	timezone := opts["timezone"]
	if timezone == "" {
		timezone = a.Config.Timezone
	}
	theme := opts["theme"]
	if theme == "" {
		theme = a.Config.ThemeName
	}
	return ok(map[string]any{
		"site": map[string]string{
			"lang":        lang,
			"title":       opts["title"],
			"description": opts["description"],
			"keywords":    opts["keywords"],
			"siteUrl":     siteURL,
			"timezone":    timezone,
			"theme":       theme,
			"framework":   "TTDF",
		},
		"version": map[string]string{
			"framework": Version,
			"theme":     a.Config.ThemeVersion,
			"go":        runtime.Version(),
		},
	}), nil
}

type contentLister func(ctx context.Context, p Page) ([]ContentRow, int, error)

func (a *App) listPosts(c echo.Context, rc RequestContext, f *Formatter, list contentLister) (Result, error) {
	ctx := c.Request().Context()
	rows, total, err := list(ctx, pageOf(rc))
	if err != nil {
		return Result{}, err
	}
	posts, err := f.Posts(ctx, rows)
	if err != nil {
		return Result{}, err
	}
	return paged(posts, rc.Pagination(total)), nil
}

func (a *App) handlePosts(c echo.Context, rc RequestContext, f *Formatter) (Result, error) {
	return a.listPosts(c, rc, f, a.Store.ListPosts)
}

func (a *App) handlePages(c echo.Context, rc RequestContext, f *Formatter) (Result, error) {
	return a.listPosts(c, rc, f, a.Store.ListPages)
}

// handleContent resolves /content/{cid} or /content/{slug}.
func (a *App) handleContent(c echo.Context, rc RequestContext, f *Formatter) (Result, error) {
	id := rc.Segment(1)
	if id == "" {
		return Result{}, errValidation("Missing post identifier")
	}
	ctx := c.Request().Context()
	var row ContentRow
	var err error
	if isNumeric(id) {
		cid, _ := strconv.ParseInt(id, 10, 64)
		row, err = a.Store.GetContent(ctx, cid)
	} else {
		row, err = a.Store.GetContentBySlug(ctx, id)
	}
	if errors.Is(err, ErrNotFound) {
		return Result{}, errNotFound("Post not found")
	}
	if err != nil {
		return Result{}, err
	}
	post, err := f.Post(ctx, row)
	if err != nil {
		return Result{}, err
	}
	return ok(post), nil
}

func (a *App) handleAttachments(c echo.Context, rc RequestContext, f *Formatter) (Result, error) {
	rows, total, err := a.Store.ListAttachments(c.Request().Context(), pageOf(rc))
	if err != nil {
		return Result{}, err
	}
	return paged(f.Attachments(rows), rc.Pagination(total)), nil
}
