package tyjson

import (
	"github.com/labstack/echo/v4"
)

// handleAISummary generates and stores a summary for one post. Server-side
// callers sign the request (trigger=async); everyone else needs an editor
// session and its token.
func (a *App) handleAISummary(c echo.Context, rc RequestContext, _ *Formatter) (Result, error) {
	cid := leadingInt(rc.Query.Get("cid"))
	if cid == 0 {
		cid = leadingInt(c.FormValue("cid"))
	}
	if cid <= 0 {
		return Result{}, errValidation("Invalid CID")
	}

	if rc.Query.Get("trigger") == "async" {
		ts := leadingInt(rc.Query.Get("time"))
		if err := verifySignature(cid, ts, rc.Query.Get("sign"), a.Config.SiteSecret, a.now()); err != nil {
			return Result{}, err
		}
	} else {
		token := c.FormValue("token")
		if token == "" {
			token = rc.Query.Get("token")
		}
		if err := requireEditor(c, token); err != nil {
			return Result{}, err
		}
	}

	summary, err := a.generateSummary(c.Request().Context(), cid)
	if err != nil {
		return Result{}, err
	}
	return ok(map[string]string{"summary": summary}), nil
}

// leadingInt parses the integer prefix of s, or 0.
func leadingInt(s string) int64 {
	n, _ := parseLeadingInt(s)
	return n
}
