package tyjson

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	"github.com/ttdf/tyjson/markdown"
)

// Formatter projects store rows into the public read models for one
// request's content format and excerpt length.
type Formatter struct {
	store         ContentStore
	format        ContentFormat
	excerptLength int
	loc           *time.Location
}

// NewFormatter creates a Formatter. A nil loc means UTC.
func NewFormatter(store ContentStore, format ContentFormat, excerptLength int, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{store: store, format: format, excerptLength: excerptLength, loc: loc}
}

func (f *Formatter) date(ts int64) string {
	if ts == 0 {
		ts = time.Now().Unix()
	}
	return time.Unix(ts, 0).In(f.loc).Format(time.RFC3339)
}

// Content renders a body for the requested format. Markdown is returned as
// stored.
func (f *Formatter) Content(body string) (string, error) {
	if f.format == FormatMarkdown {
		return body, nil
	}
	return markdown.Render(body)
}

// Post formats a post or page. Posts also carry their categories and tags.
func (f *Formatter) Post(ctx context.Context, r ContentRow) (Post, error) {
	fields, err := f.store.PostFields(ctx, r.CID)
	if err != nil {
		return Post{}, err
	}
	content, err := f.Content(r.Text)
	if err != nil {
		return Post{}, err
	}
	p := Post{
		CID:         r.CID,
		Title:       r.Title,
		Slug:        r.Slug,
		Type:        r.Type,
		Created:     f.date(r.Created),
		Modified:    f.date(r.Modified),
		CommentsNum: r.CommentsNum,
		AuthorID:    r.AuthorID,
		Status:      r.Status,
		ContentType: f.format,
		Fields:      fields,
		Content:     content,
		Excerpt:     markdown.Excerpt(r.Text, f.excerptLength),
	}
	if r.Type != "post" {
		return p, nil
	}
	cats, err := f.store.PostTerms(ctx, r.CID, "category")
	if err != nil {
		return Post{}, err
	}
	if p.Categories, err = f.Terms(cats); err != nil {
		return Post{}, err
	}
	tags, err := f.store.PostTerms(ctx, r.CID, "tag")
	if err != nil {
		return Post{}, err
	}
	if p.Tags, err = f.Terms(tags); err != nil {
		return Post{}, err
	}
	return p, nil
}

// Posts formats a list; the result is never nil.
func (f *Formatter) Posts(ctx context.Context, rows []ContentRow) ([]Post, error) {
	out := make([]Post, 0, len(rows))
	for _, r := range rows {
		p, err := f.Post(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Term formats a category or tag; the description goes through Content.
func (f *Formatter) Term(t TermRow) (Term, error) {
	desc, err := f.Content(t.Description)
	if err != nil {
		return Term{}, err
	}
	return Term{
		MID:         t.MID,
		Name:        t.Name,
		Slug:        t.Slug,
		Type:        t.Type,
		Description: desc,
		Count:       t.Count,
		Order:       t.Order,
		Parent:      t.Parent,
	}, nil
}

func (f *Formatter) Terms(rows []TermRow) ([]Term, error) {
	out := make([]Term, 0, len(rows))
	for _, r := range rows {
		t, err := f.Term(r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Comment formats a comment. The stored mail never leaves this function
// except as its md5 digest.
func (f *Formatter) Comment(c CommentRow) (Comment, error) {
	text, err := f.Content(c.Text)
	if err != nil {
		return Comment{}, err
	}
	sum := md5.Sum([]byte(c.Mail))
	return Comment{
		COID:     c.COID,
		CID:      c.CID,
		Author:   c.Author,
		Mail:     hex.EncodeToString(sum[:]),
		URL:      c.URL,
		Created:  f.date(c.Created),
		Modified: f.date(c.Created),
		Text:     text,
		Status:   c.Status,
		Parent:   c.Parent,
		AuthorID: c.AuthorID,
	}, nil
}

func (f *Formatter) Comments(rows []CommentRow) ([]Comment, error) {
	out := make([]Comment, 0, len(rows))
	for _, r := range rows {
		c, err := f.Comment(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// attachmentMeta is the file description the CMS keeps in an attachment's
// text column.
type attachmentMeta struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
	Mime string `json:"mime"`
}

// serializedSize matches the size entry of a PHP-serialized file
// description, as written by the CMS admin uploader.
var serializedSize = regexp.MustCompile(`s:4:"size";i:(\d+);`)

// attachmentSize reads the size from the stored file description, which is
// either JSON or PHP-serialized.
func attachmentSize(text string) int64 {
	var meta attachmentMeta
	if err := json.Unmarshal([]byte(text), &meta); err == nil {
		return meta.Size
	}
	if m := serializedSize.FindStringSubmatch(text); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// Attachment formats an attachment row. Size comes from the stored file
// description and is zero when that is missing or unreadable.
func (f *Formatter) Attachment(r ContentRow) Attachment {
	return Attachment{
		CID:      r.CID,
		Title:    r.Title,
		Type:     r.Type,
		Size:     attachmentSize(r.Text),
		Created:  f.date(r.Created),
		Modified: f.date(r.Modified),
		Status:   r.Status,
	}
}

func (f *Formatter) Attachments(rows []ContentRow) []Attachment {
	out := make([]Attachment, 0, len(rows))
	for _, r := range rows {
		out = append(out, f.Attachment(r))
	}
	return out
}
