package tyjson

import (
	"encoding/json"
	"strconv"

	"github.com/labstack/echo/v4"
)

// handleSearch takes the keyword from /search/{keyword} or ?keyword=. Both
// arrive already decoded from the request URL.
func (a *App) handleSearch(c echo.Context, rc RequestContext, f *Formatter) (Result, error) {
	keyword := rc.Segment(1)
	if keyword == "" {
		keyword = rc.Query.Get("keyword")
	}
	if keyword == "" {
		return Result{}, errValidation("Missing search keyword")
	}

	ctx := c.Request().Context()
	rows, total, err := a.Store.SearchPosts(ctx, keyword, pageOf(rc))
	if err != nil {
		return Result{}, err
	}
	posts, err := f.Posts(ctx, rows)
	if err != nil {
		return Result{}, err
	}
	return paged(map[string]any{
		"keyword": keyword,
		"posts":   posts,
	}, rc.Pagination(total)), nil
}

// handleFieldSearch serves /fields/{name}/{value}.
func (a *App) handleFieldSearch(c echo.Context, rc RequestContext, f *Formatter) (Result, error) {
	name, value := rc.Segment(1), rc.Segment(2)
	if name == "" || value == "" {
		return Result{}, errValidation("Missing field parameters")
	}
	if a.Config.Restrict.FieldRestricted(name) {
		return Result{}, errForbidden
	}

	ctx := c.Request().Context()
	rows, total, err := a.Store.ListPostsByField(ctx, name, value, pageOf(rc))
	if err != nil {
		return Result{}, err
	}
	posts, err := f.Posts(ctx, rows)
	if err != nil {
		return Result{}, err
	}
	return paged(map[string]any{
		"conditions": map[string]string{"name": name, "value": value},
		"posts":      posts,
	}, rc.Pagination(total)), nil
}

// fieldCondition is one clause of the conditions query parameter as sent by
// clients. Value is a scalar or, for IN and NOT IN, a list or comma list.
type fieldCondition struct {
	Name      string          `json:"name"`
	Operator  string          `json:"operator,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	ValueType string          `json:"value_type,omitempty"`
}

func (fc fieldCondition) storeCondition() FieldCondition {
	op := fc.Operator
	if op == "" {
		op = "="
	}
	vt := fc.ValueType
	switch vt {
	case "str", "int", "float":
	default:
		vt = "str"
	}
	var values []string
	if op == "IN" || op == "NOT IN" {
		values = rawList(fc.Value)
	} else {
		values = []string{rawScalar(fc.Value)}
	}
	return FieldCondition{Name: fc.Name, Operator: op, ValueType: vt, Values: values}
}

func rawScalar(raw json.RawMessage) string {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return stringValue(t)
	}
}

func rawList(raw json.RawMessage) []string {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, len(list))
		for i, item := range list {
			out[i] = rawScalar(item)
		}
		return out
	}
	return ParseList(rawScalar(raw))
}

// handleAdvancedFieldSearch serves /advancedFields?conditions=[...]. Clauses
// with an unknown operator are ignored rather than rejected.
func (a *App) handleAdvancedFieldSearch(c echo.Context, rc RequestContext, f *Formatter) (Result, error) {
	raw := rc.Query.Get("conditions")
	if raw == "" {
		return Result{}, errValidation("Invalid search conditions")
	}
	var conds []fieldCondition
	if err := json.Unmarshal([]byte(raw), &conds); err != nil {
		return Result{}, errValidation("Invalid JSON in conditions parameter")
	}
	storeConds := make([]FieldCondition, 0, len(conds))
	for _, cond := range conds {
		if a.Config.Restrict.FieldRestricted(cond.Name) {
			return Result{}, errForbidden
		}
		storeConds = append(storeConds, cond.storeCondition())
	}

	ctx := c.Request().Context()
	rows, total, err := a.Store.ListPostsByConditions(ctx, storeConds, pageOf(rc))
	if err != nil {
		return Result{}, err
	}
	posts, err := f.Posts(ctx, rows)
	if err != nil {
		return Result{}, err
	}
	return paged(map[string]any{
		"conditions": conds,
		"posts":      posts,
	}, rc.Pagination(total)), nil
}
