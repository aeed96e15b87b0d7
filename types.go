package tyjson

import (
	"bytes"
	"encoding/json"
)

// Post is the public shape of a post or page.
type Post struct {
	CID         int64          `json:"cid"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Type        string         `json:"type"`
	Created     string         `json:"created"`
	Modified    string         `json:"modified"`
	CommentsNum int            `json:"commentsNum"`
	AuthorID    int64          `json:"authorId"`
	Status      string         `json:"status"`
	ContentType ContentFormat  `json:"contentType"`
	Fields      map[string]any `json:"fields"`
	Content     string         `json:"content"`
	Excerpt     string         `json:"excerpt"`
	Categories  []Term         `json:"categories"`
	Tags        []Term         `json:"tags"`
}

type postJSON Post

// MarshalJSON omits categories and tags for anything but posts.
func (p Post) MarshalJSON() ([]byte, error) {
	if p.Type == "post" {
		if p.Categories == nil {
			p.Categories = []Term{}
		}
		if p.Tags == nil {
			p.Tags = []Term{}
		}
		return marshalJSON(postJSON(p))
	}
	return marshalJSON(struct {
		postJSON
		Categories []Term `json:"categories,omitempty"`
		Tags       []Term `json:"tags,omitempty"`
	}{postJSON: postJSON(p)})
}

// marshalJSON encodes without escaping <, > and &, matching the envelope
// encoder, since rendered bodies are mostly HTML.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Term is the public shape of a category or tag.
type Term struct {
	MID         int64  `json:"mid"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Count       int    `json:"count"`
	Order       int    `json:"order"`
	Parent      int64  `json:"parent"`
}

// Comment is the public shape of a comment. Mail is an md5 hex digest of
// the stored address.
type Comment struct {
	COID     int64  `json:"coid"`
	CID      int64  `json:"cid"`
	Author   string `json:"author"`
	Mail     string `json:"mail"`
	URL      string `json:"url"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
	Text     string `json:"text"`
	Status   string `json:"status"`
	Parent   int64  `json:"parent"`
	AuthorID int64  `json:"authorId"`
}

// Attachment is the public shape of an uploaded file.
type Attachment struct {
	CID      int64  `json:"cid"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
	Status   string `json:"status"`
}
