package tyjson

import (
	"context"
	"database/sql"
)

// ErrNotFound is returned by ContentStore lookups when no row matches.
var ErrNotFound = sql.ErrNoRows

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

// ContentRow is a row of the contents table: posts, pages and attachments.
type ContentRow struct {
	CID         int64
	Title       string
	Slug        string
	Type        string
	Status      string
	Text        string
	Created     int64
	Modified    int64
	AuthorID    int64
	Parent      int64
	Order       int
	CommentsNum int
}

// TermRow is a category or tag.
type TermRow struct {
	MID         int64
	Name        string
	Slug        string
	Type        string
	Description string
	Count       int
	Order       int
	Parent      int64
}

// CommentRow is a stored comment, raw mail included.
type CommentRow struct {
	COID     int64
	CID      int64
	Created  int64
	Author   string
	AuthorID int64
	OwnerID  int64
	Mail     string
	URL      string
	IP       string
	Agent    string
	Text     string
	Type     string
	Status   string
	Parent   int64
}

// FieldCondition is one clause of an advanced field search. Operator and
// ValueType must already be validated by the caller.
type FieldCondition struct {
	Name      string
	Operator  string
	ValueType string
	Values    []string
}

// ContentStore is the gateway the API reads and writes content through.
// List methods return the requested page together with the total row count.
type ContentStore interface {
	ListPosts(ctx context.Context, p Page) ([]ContentRow, int, error)
	ListPages(ctx context.Context, p Page) ([]ContentRow, int, error)
	ListAttachments(ctx context.Context, p Page) ([]ContentRow, int, error)
	GetContent(ctx context.Context, cid int64) (ContentRow, error)
	GetContentBySlug(ctx context.Context, slug string) (ContentRow, error)

	PostFields(ctx context.Context, cid int64) (map[string]any, error)
	PostTerms(ctx context.Context, cid int64, termType string) ([]TermRow, error)
	SetStringField(ctx context.Context, cid int64, name, value string) error

	ListTerms(ctx context.Context, termType string) ([]TermRow, error)
	GetTerm(ctx context.Context, termType string, mid int64) (TermRow, error)
	GetTermBySlug(ctx context.Context, termType, slug string) (TermRow, error)
	ListPostsInTerm(ctx context.Context, mid int64, p Page) ([]ContentRow, int, error)

	SearchPosts(ctx context.Context, keyword string, p Page) ([]ContentRow, int, error)
	ListPostsByField(ctx context.Context, name, value string, p Page) ([]ContentRow, int, error)
	ListPostsByConditions(ctx context.Context, conds []FieldCondition, p Page) ([]ContentRow, int, error)

	ListComments(ctx context.Context, p Page) ([]CommentRow, int, error)
	ListPostComments(ctx context.Context, cid int64, p Page) ([]CommentRow, int, error)
	GetComment(ctx context.Context, coid int64) (CommentRow, error)
	InsertComment(ctx context.Context, c CommentRow) (int64, error)

	Options(ctx context.Context) (map[string]string, error)
	Option(ctx context.Context, name string) (string, error)

	SettingsStore
}

// SettingsStore persists theme settings as flat name/value pairs.
type SettingsStore interface {
	GetSetting(ctx context.Context, name string) (string, error)
	SetSetting(ctx context.Context, name, value string) error
	ListSettings(ctx context.Context, prefix string) (map[string]string, error)
}
