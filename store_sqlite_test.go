package tyjson

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustSaveContent(t *testing.T, s *SQLiteStore, r ContentRow) int64 {
	t.Helper()
	cid, err := s.SaveContent(context.Background(), r)
	if err != nil {
		t.Fatalf("SaveContent(%q) failed: %v", r.Title, err)
	}
	return cid
}

func mustSaveTerm(t *testing.T, s *SQLiteStore, r TermRow) int64 {
	t.Helper()
	mid, err := s.SaveTerm(context.Background(), r)
	if err != nil {
		t.Fatalf("SaveTerm(%q) failed: %v", r.Name, err)
	}
	return mid
}

func TestNewStoreCreatesSchema(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	if err := s.ensureSchema(); err != nil {
		t.Fatalf("ensureSchema is not repeatable: %v", err)
	}
}

func TestListPostsPagination(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		mustSaveContent(t, s, ContentRow{Title: fmt.Sprintf("Post %d", i), Created: int64(1000 + i)})
	}
	mustSaveContent(t, s, ContentRow{Title: "Draft", Status: "draft", Created: 5000})
	mustSaveContent(t, s, ContentRow{Title: "About", Type: "page", Created: 6000})
	mustSaveContent(t, s, ContentRow{Title: "Unfinished", Type: "page", Status: "draft", Created: 7000})

	rows, total, err := s.ListPosts(ctx, Page{Limit: 5, Offset: 5})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if total != 12 {
		t.Errorf("expected 12 published posts, got %d", total)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if rows[0].Title != "Post 7" {
		t.Errorf("expected newest-first order starting at Post 7, got %q", rows[0].Title)
	}

	pages, total, err := s.ListPages(ctx, Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if total != 1 || pages[0].Title != "About" {
		t.Errorf("unexpected pages: %+v (total %d)", pages, total)
	}
}

func TestSaveContentDerivesSlug(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	cid := mustSaveContent(t, s, ContentRow{Title: "Hello, World!"})

	row, err := s.GetContentBySlug(ctx, "hello-world")
	if err != nil {
		t.Fatalf("GetContentBySlug failed: %v", err)
	}
	if row.CID != cid {
		t.Errorf("expected cid %d, got %d", cid, row.CID)
	}
	if row.Modified != row.Created {
		t.Errorf("expected modified to default to created, got %d vs %d", row.Modified, row.Created)
	}

	if _, err := s.GetContent(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing cid, got %v", err)
	}
}

func TestTermsAndRelationships(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	p1 := mustSaveContent(t, s, ContentRow{Title: "First", Created: 100})
	p2 := mustSaveContent(t, s, ContentRow{Title: "Second", Created: 200})
	draft := mustSaveContent(t, s, ContentRow{Title: "Draft", Status: "draft", Created: 300})

	goTag := mustSaveTerm(t, s, TermRow{Name: "Go Lang", Type: "tag"})
	webTag := mustSaveTerm(t, s, TermRow{Name: "Web", Type: "tag"})
	cat := mustSaveTerm(t, s, TermRow{Name: "Notes", Type: "category", Description: "**notes**"})

	for _, rel := range [][2]int64{{p1, goTag}, {p2, goTag}, {draft, goTag}, {p1, webTag}, {p2, cat}} {
		if err := s.Relate(ctx, rel[0], rel[1]); err != nil {
			t.Fatalf("Relate failed: %v", err)
		}
	}

	tags, err := s.ListTerms(ctx, "tag")
	if err != nil {
		t.Fatalf("ListTerms failed: %v", err)
	}
	if len(tags) != 2 || tags[0].Slug != "go-lang" || tags[0].Count != 2 {
		t.Errorf("expected go-lang first with count 2, got %+v", tags)
	}

	term, err := s.GetTermBySlug(ctx, "tag", "go-lang")
	if err != nil {
		t.Fatalf("GetTermBySlug failed: %v", err)
	}
	if _, err := s.GetTerm(ctx, "category", term.MID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected tag id not to resolve as a category, got %v", err)
	}

	posts, total, err := s.ListPostsInTerm(ctx, goTag, Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListPostsInTerm failed: %v", err)
	}
	if total != 2 || len(posts) != 2 || posts[0].CID != p2 {
		t.Errorf("expected the two published posts newest first, got %+v (total %d)", posts, total)
	}

	postTags, err := s.PostTerms(ctx, p1, "tag")
	if err != nil {
		t.Fatalf("PostTerms failed: %v", err)
	}
	if len(postTags) != 2 {
		t.Errorf("expected 2 tags on first post, got %d", len(postTags))
	}
}

func TestSearchPostsIsCaseSensitive(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	mustSaveContent(t, s, ContentRow{Title: "Go tips", Text: "use gofmt always", Created: 1})
	mustSaveContent(t, s, ContentRow{Title: "go lower", Text: "nothing", Created: 2})
	mustSaveContent(t, s, ContentRow{Title: "Rust", Text: "a 50% *discount*", Created: 3})

	tests := []struct {
		keyword string
		want    int
	}{
		{"Go", 1},
		{"go", 2},
		{"use always", 1},
		{"50%", 1},
		{"*discount*", 1},
		{"missing", 0},
	}
	for _, tt := range tests {
		_, total, err := s.SearchPosts(ctx, tt.keyword, Page{Limit: 10})
		if err != nil {
			t.Fatalf("SearchPosts(%q) failed: %v", tt.keyword, err)
		}
		if total != tt.want {
			t.Errorf("SearchPosts(%q) = %d matches, want %d", tt.keyword, total, tt.want)
		}
	}
}

func TestFieldsAndConditions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	a := mustSaveContent(t, s, ContentRow{Title: "Alpha", Created: 1})
	b := mustSaveContent(t, s, ContentRow{Title: "Beta", Created: 2})
	c := mustSaveContent(t, s, ContentRow{Title: "Gamma", Created: 3})

	seed := []struct {
		cid   int64
		name  string
		value any
	}{
		{a, "color", "red"}, {a, "views", 10},
		{b, "color", "blue"}, {b, "views", 200},
		{c, "color", "red"}, {c, "views", 50}, {c, "rating", 4.5},
	}
	for _, f := range seed {
		if err := s.SetField(ctx, f.cid, f.name, f.value); err != nil {
			t.Fatalf("SetField failed: %v", err)
		}
	}

	fields, err := s.PostFields(ctx, c)
	if err != nil {
		t.Fatalf("PostFields failed: %v", err)
	}
	if fields["color"] != "red" || fields["views"] != int64(50) || fields["rating"] != 4.5 {
		t.Errorf("unexpected typed fields: %#v", fields)
	}

	_, total, err := s.ListPostsByField(ctx, "color", "red", Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListPostsByField failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 red posts, got %d", total)
	}

	tests := []struct {
		name  string
		conds []FieldCondition
		want  int
	}{
		{"both conditions must hold", []FieldCondition{
			{Name: "color", Operator: "=", ValueType: "str", Values: []string{"red"}},
			{Name: "views", Operator: ">", ValueType: "int", Values: []string{"20"}},
		}, 1},
		{"numeric not lexical", []FieldCondition{
			{Name: "views", Operator: ">=", ValueType: "int", Values: []string{"50"}},
		}, 2},
		{"in list", []FieldCondition{
			{Name: "color", Operator: "IN", ValueType: "str", Values: []string{"blue", "green"}},
		}, 1},
		{"unknown operator ignored", []FieldCondition{
			{Name: "color", Operator: "DROP", ValueType: "str", Values: []string{"x"}},
		}, 3},
		{"like", []FieldCondition{
			{Name: "color", Operator: "LIKE", ValueType: "str", Values: []string{"r%"}},
		}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := s.ListPostsByConditions(ctx, tt.conds, Page{Limit: 10})
			if err != nil {
				t.Fatalf("ListPostsByConditions failed: %v", err)
			}
			if total != tt.want {
				t.Errorf("got %d posts, want %d", total, tt.want)
			}
		})
	}
}

func TestCommentsRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	cid := mustSaveContent(t, s, ContentRow{Title: "Commented"})

	first, err := s.InsertComment(ctx, CommentRow{CID: cid, Created: 10, Author: "ann", Mail: "ann@example.com", Text: "hi", Type: "comment", Status: "approved"})
	if err != nil {
		t.Fatalf("InsertComment failed: %v", err)
	}
	if _, err := s.InsertComment(ctx, CommentRow{CID: cid, Created: 20, Author: "bob", Text: "later", Type: "comment", Status: "waiting"}); err != nil {
		t.Fatalf("InsertComment failed: %v", err)
	}

	got, err := s.GetComment(ctx, first)
	if err != nil {
		t.Fatalf("GetComment failed: %v", err)
	}
	if got.Mail != "ann@example.com" || got.Author != "ann" {
		t.Errorf("unexpected comment: %+v", got)
	}

	thread, total, err := s.ListPostComments(ctx, cid, Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListPostComments failed: %v", err)
	}
	if total != 2 || thread[0].COID != first {
		t.Errorf("expected oldest-first thread of 2, got %+v", thread)
	}

	all, _, err := s.ListComments(ctx, Page{Limit: 10})
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if all[0].Author != "bob" {
		t.Errorf("expected newest comment first, got %q", all[0].Author)
	}

	post, err := s.GetContent(ctx, cid)
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if post.CommentsNum != 1 {
		t.Errorf("expected only the approved comment counted, got %d", post.CommentsNum)
	}

	if _, err := s.GetComment(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOptionsAndSettings(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SetOption(ctx, "title", "My Blog"); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}
	if v, err := s.Option(ctx, "title"); err != nil || v != "My Blog" {
		t.Errorf("Option(title) = %q, %v", v, err)
	}
	if _, err := s.Option(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing option, got %v", err)
	}

	for name, value := range map[string]string{"TTDF_color": "red", "TTDF_size": "2", "Other_color": "blue"} {
		if err := s.SetSetting(ctx, name, value); err != nil {
			t.Fatalf("SetSetting failed: %v", err)
		}
	}
	if err := s.SetSetting(ctx, "TTDF_color", "green"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}

	theme, err := s.ListSettings(ctx, "TTDF_")
	if err != nil {
		t.Fatalf("ListSettings failed: %v", err)
	}
	if len(theme) != 2 || theme["TTDF_color"] != "green" {
		t.Errorf("unexpected theme settings: %v", theme)
	}
	all, err := s.ListSettings(ctx, "")
	if err != nil {
		t.Fatalf("ListSettings failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 settings, got %d", len(all))
	}
}

func TestSearchPattern(t *testing.T) {
	tests := []struct {
		keyword string
		want    string
	}{
		{"go", "*go*"},
		{"go tips", "*go*tips*"},
		{"a*b?[c", "*a[*]b[?][[]c*"},
	}
	for _, tt := range tests {
		if got := searchPattern(tt.keyword); got != tt.want {
			t.Errorf("searchPattern(%q) = %q, want %q", tt.keyword, got, tt.want)
		}
	}
}
