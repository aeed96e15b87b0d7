package tyjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/labstack/echo/v4"
)

// handleComments routes GET /comments[...] to the listings and POST
// /comments to comment creation.
func (a *App) handleComments(c echo.Context, rc RequestContext, f *Formatter) (Result, error) {
	if rc.Method == http.MethodPost {
		return a.createComment(c, f)
	}
	ctx := c.Request().Context()
	sub := rc.Segment(1)
	switch {
	case sub == "":
		rows, total, err := a.Store.ListComments(ctx, pageOf(rc))
		if err != nil {
			return Result{}, err
		}
		comments, err := f.Comments(rows)
		if err != nil {
			return Result{}, err
		}
		return paged(comments, rc.Pagination(total)), nil

	case isNumeric(sub):
		coid, _ := strconv.ParseInt(sub, 10, 64)
		row, err := a.Store.GetComment(ctx, coid)
		if errors.Is(err, ErrNotFound) {
			return Result{}, errNotFound("Comment not found")
		}
		if err != nil {
			return Result{}, err
		}
		comment, err := f.Comment(row)
		if err != nil {
			return Result{}, err
		}
		return ok(comment), nil

	case sub == "cid":
		id := rc.Segment(2)
		if !isNumeric(id) {
			return Result{}, errValidation("Invalid post ID")
		}
		cid, _ := strconv.ParseInt(id, 10, 64)
		if _, err := a.Store.GetContent(ctx, cid); errors.Is(err, ErrNotFound) {
			return Result{}, errNotFound("Post not found")
		} else if err != nil {
			return Result{}, err
		}
		rows, total, err := a.Store.ListPostComments(ctx, cid, pageOf(rc))
		if err != nil {
			return Result{}, err
		}
		comments, err := f.Comments(rows)
		if err != nil {
			return Result{}, err
		}
		return paged(comments, rc.Pagination(total)), nil
	}
	return Result{}, errEndpointNotFound
}

// commentInput is the body of POST /comments.
type commentInput struct {
	CID    string
	Text   string
	Author string
	Mail   string
	URL    string
	Parent string
}

// validate checks required fields in a fixed order so the first missing one
// is the one reported.
func (in commentInput) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"cid", in.CID},
		{"text", in.Text},
		{"author", in.Author},
		{"mail", in.Mail},
	}
	for _, r := range required {
		if err := validation.Validate(strings.TrimSpace(r.value), validation.Required); err != nil {
			return errValidation("Missing required field: " + r.name)
		}
	}
	if err := validation.Validate(in.Mail, is.EmailFormat); err != nil {
		return errValidation("Invalid email address")
	}
	if err := validation.Validate(in.CID, is.Digit); err != nil {
		return errValidation("Invalid post ID")
	}
	return nil
}

// readBody decodes a JSON object body, falling back to form fields. It
// returns nil when neither yields anything.
func readBody(c echo.Context) (map[string]any, error) {
	r := c.Request()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if json.Unmarshal(raw, &m) == nil && m != nil {
		return m, nil
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	form, err := c.FormParams()
	if err != nil || len(form) == 0 {
		return nil, nil
	}
	m = make(map[string]any, len(form))
	for k, v := range form {
		if strings.HasSuffix(k, "[]") {
			m[strings.TrimSuffix(k, "[]")] = v
			continue
		}
		m[k] = v[0]
	}
	return m, nil
}

func (a *App) createComment(c echo.Context, f *Formatter) (Result, error) {
	ctx := c.Request().Context()
	ip := c.RealIP()
	if !a.commentLimiter.Allow(ip) {
		return Result{}, &APIError{Kind: KindRateLimited, Message: "Too many comments. Try again later."}
	}

	body, err := readBody(c)
	if err != nil {
		return Result{}, err
	}
	if body == nil {
		return Result{}, errValidation("Invalid request body")
	}
	in := commentInput{
		CID:    stringValue(body["cid"]),
		Text:   stringValue(body["text"]),
		Author: stringValue(body["author"]),
		Mail:   stringValue(body["mail"]),
		URL:    strings.TrimSpace(stringValue(body["url"])),
		Parent: stringValue(body["parent"]),
	}
	if err := in.validate(); err != nil {
		return Result{}, err
	}

	cid, _ := strconv.ParseInt(in.CID, 10, 64)
	if _, err := a.Store.GetContent(ctx, cid); errors.Is(err, ErrNotFound) {
		return Result{}, errNotFound(fmt.Sprintf("Post not found: %d", cid))
	} else if err != nil {
		return Result{}, err
	}

	status, err := a.commentStatus(c)
	if err != nil {
		return Result{}, err
	}
	row := CommentRow{
		CID:     cid,
		Created: a.now().Unix(),
		Author:  in.Author,
		Mail:    in.Mail,
		Text:    in.Text,
		Status:  status,
		Agent:   c.Request().UserAgent(),
		IP:      ip,
		Type:    "comment",
	}
	if row.IP == "" {
		row.IP = "unknown"
	}
	if in.URL != "" {
		if !strings.HasPrefix(in.URL, "http://") && !strings.HasPrefix(in.URL, "https://") {
			in.URL = "http://" + in.URL
		}
		row.URL = in.URL
	}
	if isNumeric(in.Parent) {
		row.Parent, _ = strconv.ParseInt(in.Parent, 10, 64)
	}

	coid, err := a.Store.InsertComment(ctx, row)
	if err != nil {
		return Result{}, fmt.Errorf("tyjson: insert comment: %w", err)
	}
	stored, err := a.Store.GetComment(ctx, coid)
	if err != nil {
		return Result{}, err
	}
	if err := a.Events.PublishComment(ctx, newCommentEvent(stored)); err != nil {
		c.Logger().Warnf("publish comment %d: %v", coid, err)
	}
	comment, err := f.Comment(stored)
	if err != nil {
		return Result{}, err
	}
	return ok(comment), nil
}

// commentStatus is "waiting" when the site option or the configuration
// asks for moderation.
func (a *App) commentStatus(c echo.Context) (string, error) {
	v, err := a.Store.Option(c.Request().Context(), "commentsRequireModeration")
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	if a.Config.CommentModeration || v == "1" || v == "true" {
		return "waiting", nil
	}
	return "approved", nil
}
