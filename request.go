package tyjson

import (
	"net/url"
	"strconv"
	"strings"
)

// ContentFormat selects how post, term and comment bodies are rendered.
type ContentFormat string

const (
	FormatHTML     ContentFormat = "html"
	FormatMarkdown ContentFormat = "markdown"
)

const (
	defaultPageSize      = 10
	maxPageSize          = 100
	defaultExcerptLength = 200
)

// RequestContext is the parsed form of one API request. It is built once by
// ParseRequest and never modified afterwards.
type RequestContext struct {
	Method        string
	Path          string
	Segments      []string
	Format        ContentFormat
	PageSize      int
	Page          int
	ExcerptLength int
	Query         url.Values
}

// ParseRequest derives a RequestContext from the request method, URI path and
// query. Invalid numeric parameters fall back to their defaults.
func ParseRequest(method, uriPath string, query url.Values, basePath string) RequestContext {
	if query == nil {
		query = url.Values{}
	}
	base := "/" + strings.Trim(basePath, "/")

	p := "/"
	if base == "/" {
		p = uriPath
	} else if uriPath == base || strings.HasPrefix(uriPath, base+"/") {
		p = strings.TrimPrefix(uriPath, base)
	}
	if p == "" {
		p = "/"
	}

	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	format := FormatHTML
	if strings.EqualFold(query.Get("format"), string(FormatMarkdown)) {
		format = FormatMarkdown
	}

	pageSize := intParam(query, "pageSize", defaultPageSize)
	pageSize = max(1, min(pageSize, maxPageSize))

	return RequestContext{
		Method:        strings.ToUpper(method),
		Path:          p,
		Segments:      segments,
		Format:        format,
		PageSize:      pageSize,
		Page:          max(1, intParam(query, "page", 1)),
		ExcerptLength: max(0, intParam(query, "excerptLength", defaultExcerptLength)),
		Query:         query,
	}
}

// Endpoint is the dispatch key: the first path segment, or "" for the root.
func (r RequestContext) Endpoint() string {
	return r.Segment(0)
}

// Segment returns the i-th path segment or "" when absent.
func (r RequestContext) Segment(i int) string {
	if i < 0 || i >= len(r.Segments) {
		return ""
	}
	return r.Segments[i]
}

// Offset is the row offset of the current page.
func (r RequestContext) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// Pagination builds the pagination block for a result set of total rows.
func (r RequestContext) Pagination(total int) Pagination {
	return NewPagination(total, r.PageSize, r.Page)
}

// Pagination is attached to list responses under meta.pagination.
type Pagination struct {
	Total       int `json:"total"`
	PageSize    int `json:"pageSize"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

// NewPagination computes the page count; it is never below one.
func NewPagination(total, pageSize, page int) Pagination {
	pages := 1
	if pageSize > 0 && total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		Total:       total,
		PageSize:    pageSize,
		CurrentPage: page,
		TotalPages:  max(1, pages),
	}
}

// intParam reads an integer query parameter. A leading integer prefix is
// accepted ("5abc" is 5); anything else yields def.
func intParam(q url.Values, key string, def int) int {
	n, ok := parseLeadingInt(q.Get(key))
	if !ok {
		return def
	}
	return int(n)
}

// parseLeadingInt parses the optionally signed integer prefix of s.
func parseLeadingInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[0] == '-' || s[0] == '+') {
		end = 1
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	return n, err == nil
}

// isNumeric reports whether s is a plain non-negative decimal integer.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
