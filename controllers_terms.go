package tyjson

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// handleTerm serves /category and /tag. Without an identifier it lists every
// term; with one it returns the term and a page of its posts.
func (a *App) handleTerm(termType, notFound string) handlerFunc {
	return func(c echo.Context, rc RequestContext, f *Formatter) (Result, error) {
		ctx := c.Request().Context()
		id := rc.Segment(1)
		if id == "" {
			rows, err := a.Store.ListTerms(ctx, termType)
			if err != nil {
				return Result{}, err
			}
			terms, err := f.Terms(rows)
			if err != nil {
				return Result{}, err
			}
			return Result{Data: terms, Meta: map[string]any{"total": len(terms)}}, nil
		}

		var row TermRow
		var err error
		if isNumeric(id) {
			mid, _ := strconv.ParseInt(id, 10, 64)
			row, err = a.Store.GetTerm(ctx, termType, mid)
		} else {
			row, err = a.Store.GetTermBySlug(ctx, termType, id)
		}
		if errors.Is(err, ErrNotFound) {
			return Result{}, errNotFound(notFound)
		}
		if err != nil {
			return Result{}, err
		}
		term, err := f.Term(row)
		if err != nil {
			return Result{}, err
		}

		rows, total, err := a.Store.ListPostsInTerm(ctx, row.MID, pageOf(rc))
		if err != nil {
			return Result{}, err
		}
		posts, err := f.Posts(ctx, rows)
		if err != nil {
			return Result{}, err
		}
		return paged(map[string]any{
			termType: term,
			"posts":  posts,
		}, rc.Pagination(total)), nil
	}
}
