package tyjson

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements ContentStore on a SQLite database laid out like the
// CMS it fronts: contents, metas, relationships, fields, comments, options
// plus a settings table for theme options.
type SQLiteStore struct {
	db *sql.DB
}

var _ ContentStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the SQLite database at path, ensures the
// data directory exists, and creates any missing tables.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while a comment or setting is written;
	// writers wait on busy_timeout instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS contents (
    cid INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL DEFAULT '',
    slug TEXT UNIQUE,
    created INTEGER NOT NULL DEFAULT 0,
    modified INTEGER NOT NULL DEFAULT 0,
    text TEXT NOT NULL DEFAULT '',
    "order" INTEGER NOT NULL DEFAULT 0,
    authorId INTEGER NOT NULL DEFAULT 0,
    type TEXT NOT NULL DEFAULT 'post',
    status TEXT NOT NULL DEFAULT 'publish',
    parent INTEGER NOT NULL DEFAULT 0,
    commentsNum INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_contents_type_status ON contents (type, status, created);
CREATE TABLE IF NOT EXISTS metas (
    mid INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL DEFAULT '',
    slug TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    count INTEGER NOT NULL DEFAULT 0,
    "order" INTEGER NOT NULL DEFAULT 0,
    parent INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_metas_slug ON metas (type, slug);
CREATE TABLE IF NOT EXISTS relationships (
    cid INTEGER NOT NULL,
    mid INTEGER NOT NULL,
    PRIMARY KEY (cid, mid)
);
CREATE TABLE IF NOT EXISTS fields (
    cid INTEGER NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'str',
    str_value TEXT,
    int_value INTEGER NOT NULL DEFAULT 0,
    float_value REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (cid, name)
);
CREATE TABLE IF NOT EXISTS comments (
    coid INTEGER PRIMARY KEY AUTOINCREMENT,
    cid INTEGER NOT NULL DEFAULT 0,
    created INTEGER NOT NULL DEFAULT 0,
    author TEXT NOT NULL DEFAULT '',
    authorId INTEGER NOT NULL DEFAULT 0,
    ownerId INTEGER NOT NULL DEFAULT 0,
    mail TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    ip TEXT NOT NULL DEFAULT '',
    agent TEXT NOT NULL DEFAULT '',
    text TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT 'comment',
    status TEXT NOT NULL DEFAULT 'approved',
    parent INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_comments_cid ON comments (cid, created);
CREATE TABLE IF NOT EXISTS options (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS settings (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL DEFAULT ''
);
`)
	return err
}

const contentColumns = `c.cid, c.title, COALESCE(c.slug, ''), c.type, c.status, c.text, c.created, c.modified, c.authorId, c.parent, c."order", c.commentsNum`

func scanContents(rows *sql.Rows) ([]ContentRow, error) {
	defer rows.Close()
	var out []ContentRow
	for rows.Next() {
		var r ContentRow
		if err := rows.Scan(&r.CID, &r.Title, &r.Slug, &r.Type, &r.Status, &r.Text,
			&r.Created, &r.Modified, &r.AuthorID, &r.Parent, &r.Order, &r.CommentsNum); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// listContents runs a count and a page query sharing the same FROM/WHERE.
func (s *SQLiteStore) listContents(ctx context.Context, from, where, order string, p Page, args ...any) ([]ContentRow, int, error) {
	var total int
	countQuery := `SELECT COUNT(DISTINCT c.cid) FROM ` + from + ` WHERE ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	listQuery := `SELECT DISTINCT ` + contentColumns + ` FROM ` + from + ` WHERE ` + where +
		` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, listQuery, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	list, err := scanContents(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListPosts returns published posts, newest first.
func (s *SQLiteStore) ListPosts(ctx context.Context, p Page) ([]ContentRow, int, error) {
	return s.listContents(ctx, "contents c", "c.status = 'publish' AND c.type = 'post'", "c.created DESC", p)
}

// ListPages returns published pages, newest first.
func (s *SQLiteStore) ListPages(ctx context.Context, p Page) ([]ContentRow, int, error) {
	return s.listContents(ctx, "contents c", "c.status = 'publish' AND c.type = 'page'", "c.created DESC", p)
}

// ListAttachments returns attachments, newest first.
func (s *SQLiteStore) ListAttachments(ctx context.Context, p Page) ([]ContentRow, int, error) {
	return s.listContents(ctx, "contents c", "c.type = 'attachment'", "c.created DESC", p)
}

func (s *SQLiteStore) getContent(ctx context.Context, where string, arg any) (ContentRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+contentColumns+` FROM contents c WHERE `+where+` LIMIT 1`, arg)
	if err != nil {
		return ContentRow{}, err
	}
	list, err := scanContents(rows)
	if err != nil {
		return ContentRow{}, err
	}
	if len(list) == 0 {
		return ContentRow{}, ErrNotFound
	}
	return list[0], nil
}

// GetContent returns a content row of any type by id.
func (s *SQLiteStore) GetContent(ctx context.Context, cid int64) (ContentRow, error) {
	return s.getContent(ctx, "c.cid = ?", cid)
}

// GetContentBySlug returns a content row of any type by slug.
func (s *SQLiteStore) GetContentBySlug(ctx context.Context, slug string) (ContentRow, error) {
	return s.getContent(ctx, "c.slug = ?", slug)
}

// PostFields returns the custom fields of a content item, each value taken
// from the column matching the field's declared type.
func (s *SQLiteStore) PostFields(ctx context.Context, cid int64) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type, str_value, int_value, float_value FROM fields WHERE cid = ?`, cid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]any)
	for rows.Next() {
		var name, typ string
		var str sql.NullString
		var i int64
		var f float64
		if err := rows.Scan(&name, &typ, &str, &i, &f); err != nil {
			return nil, err
		}
		switch typ {
		case "int":
			out[name] = i
		case "float":
			out[name] = f
		default:
			if str.Valid {
				out[name] = str.String
			} else {
				out[name] = nil
			}
		}
	}
	return out, rows.Err()
}

// SetStringField upserts a str-typed custom field.
func (s *SQLiteStore) SetStringField(ctx context.Context, cid int64, name, value string) error {
	return s.SetField(ctx, cid, name, value)
}

// SetField upserts a custom field. The stored type follows the Go type of
// value: integers are int, floats are float, everything else is str.
func (s *SQLiteStore) SetField(ctx context.Context, cid int64, name string, value any) error {
	typ := "str"
	var str sql.NullString
	var i int64
	var f float64
	switch v := value.(type) {
	case int:
		typ, i = "int", int64(v)
	case int64:
		typ, i = "int", v
	case float64:
		typ, f = "float", v
	case string:
		str = sql.NullString{String: v, Valid: true}
	default:
		str = sql.NullString{String: fmt.Sprint(v), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO fields (cid, name, type, str_value, int_value, float_value) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(cid, name) DO UPDATE SET type = excluded.type, str_value = excluded.str_value,
    int_value = excluded.int_value, float_value = excluded.float_value`,
		cid, name, typ, str, i, f)
	return err
}

const termColumns = `m.mid, m.name, m.slug, m.type, m.description, m.count, m."order", m.parent`

func scanTerms(rows *sql.Rows) ([]TermRow, error) {
	defer rows.Close()
	var out []TermRow
	for rows.Next() {
		var t TermRow
		if err := rows.Scan(&t.MID, &t.Name, &t.Slug, &t.Type, &t.Description, &t.Count, &t.Order, &t.Parent); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// PostTerms returns the categories or tags attached to a post.
func (s *SQLiteStore) PostTerms(ctx context.Context, cid int64, termType string) ([]TermRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+termColumns+` FROM metas m
JOIN relationships r ON r.mid = m.mid WHERE r.cid = ? AND m.type = ? ORDER BY m."order" ASC, m.mid ASC`, cid, termType)
	if err != nil {
		return nil, err
	}
	return scanTerms(rows)
}

// ListTerms returns all categories ordered by their sort order, or all tags
// ordered by usage count.
func (s *SQLiteStore) ListTerms(ctx context.Context, termType string) ([]TermRow, error) {
	order := `m."order" ASC, m.mid ASC`
	if termType == "tag" {
		order = `m.count DESC, m.mid ASC`
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+termColumns+` FROM metas m WHERE m.type = ? ORDER BY `+order, termType)
	if err != nil {
		return nil, err
	}
	return scanTerms(rows)
}

func (s *SQLiteStore) getTerm(ctx context.Context, where string, args ...any) (TermRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+termColumns+` FROM metas m WHERE `+where+` LIMIT 1`, args...)
	if err != nil {
		return TermRow{}, err
	}
	list, err := scanTerms(rows)
	if err != nil {
		return TermRow{}, err
	}
	if len(list) == 0 {
		return TermRow{}, ErrNotFound
	}
	return list[0], nil
}

// GetTerm looks a term up by id.
func (s *SQLiteStore) GetTerm(ctx context.Context, termType string, mid int64) (TermRow, error) {
	return s.getTerm(ctx, "m.mid = ? AND m.type = ?", mid, termType)
}

// GetTermBySlug looks a term up by slug.
func (s *SQLiteStore) GetTermBySlug(ctx context.Context, termType, slug string) (TermRow, error) {
	return s.getTerm(ctx, "m.slug = ? AND m.type = ?", slug, termType)
}

// ListPostsInTerm returns published posts attached to the term.
func (s *SQLiteStore) ListPostsInTerm(ctx context.Context, mid int64, p Page) ([]ContentRow, int, error) {
	return s.listContents(ctx, "contents c JOIN relationships r ON r.cid = c.cid",
		"r.mid = ? AND c.status = 'publish' AND c.type = 'post'", "c.created DESC", p, mid)
}

// SearchPosts matches the keyword against title and body of published
// posts. The match is case sensitive and each space in the keyword is a
// gap of any length.
func (s *SQLiteStore) SearchPosts(ctx context.Context, keyword string, p Page) ([]ContentRow, int, error) {
	pattern := searchPattern(keyword)
	return s.listContents(ctx, "contents c",
		"c.status = 'publish' AND c.type = 'post' AND (c.title GLOB ? OR c.text GLOB ?)", "c.created DESC", p,
		pattern, pattern)
}

// searchPattern builds a GLOB pattern. GLOB is used instead of LIKE because
// it is case sensitive; its metacharacters in the keyword are escaped.
func searchPattern(keyword string) string {
	var b strings.Builder
	b.WriteByte('*')
	for _, r := range keyword {
		switch r {
		case ' ':
			b.WriteByte('*')
		case '*', '?', '[':
			b.WriteByte('[')
			b.WriteRune(r)
			b.WriteByte(']')
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('*')
	return b.String()
}

// ListPostsByField returns published posts whose field name has the given
// string value.
func (s *SQLiteStore) ListPostsByField(ctx context.Context, name, value string, p Page) ([]ContentRow, int, error) {
	return s.listContents(ctx, "contents c JOIN fields f ON f.cid = c.cid",
		"f.name = ? AND f.str_value = ? AND c.status = 'publish' AND c.type = 'post'", "c.created DESC", p,
		name, value)
}

var (
	conditionOperators = map[string]bool{
		"=": true, "!=": true, ">": true, ">=": true, "<": true, "<=": true,
		"LIKE": true, "NOT LIKE": true, "IN": true, "NOT IN": true,
	}
	conditionColumns = map[string]string{
		"str":   "str_value",
		"int":   "int_value",
		"float": "float_value",
	}
)

// ListPostsByConditions returns published posts matching every condition.
// Each condition is checked against its own field row. Conditions with an
// operator or value type outside the allowed sets are ignored.
func (s *SQLiteStore) ListPostsByConditions(ctx context.Context, conds []FieldCondition, p Page) ([]ContentRow, int, error) {
	where := []string{"c.status = 'publish' AND c.type = 'post'"}
	var args []any
	for _, cond := range conds {
		col, ok := conditionColumns[cond.ValueType]
		if !ok || !conditionOperators[cond.Operator] {
			continue
		}
		clause := "EXISTS (SELECT 1 FROM fields f WHERE f.cid = c.cid AND f.name = ? AND f." + col + " " + cond.Operator
		args = append(args, cond.Name)
		values := cond.Values
		if cond.Operator == "IN" || cond.Operator == "NOT IN" {
			if len(values) == 0 {
				values = []string{""}
			}
			clause += " (" + strings.TrimSuffix(strings.Repeat("?,", len(values)), ",") + "))"
			for _, v := range values {
				args = append(args, conditionArg(cond.ValueType, v))
			}
		} else {
			v := ""
			if len(values) > 0 {
				v = values[0]
			}
			clause += " ?)"
			args = append(args, conditionArg(cond.ValueType, v))
		}
		where = append(where, clause)
	}
	return s.listContents(ctx, "contents c", strings.Join(where, " AND "), "c.created DESC", p, args...)
}

// conditionArg converts a comparison value to the column's type so numeric
// comparisons are not done as text.
func conditionArg(valueType, v string) any {
	switch valueType {
	case "int":
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	case "float":
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return v
}

const commentColumns = `coid, cid, created, author, authorId, ownerId, mail, url, ip, agent, text, type, status, parent`

func scanComments(rows *sql.Rows) ([]CommentRow, error) {
	defer rows.Close()
	var out []CommentRow
	for rows.Next() {
		var c CommentRow
		if err := rows.Scan(&c.COID, &c.CID, &c.Created, &c.Author, &c.AuthorID, &c.OwnerID, &c.Mail,
			&c.URL, &c.IP, &c.Agent, &c.Text, &c.Type, &c.Status, &c.Parent); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) listComments(ctx context.Context, where, order string, p Page, args ...any) ([]CommentRow, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE `+where+
		` ORDER BY `+order+` LIMIT ? OFFSET ?`, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	list, err := scanComments(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListComments returns all comments, newest first.
func (s *SQLiteStore) ListComments(ctx context.Context, p Page) ([]CommentRow, int, error) {
	return s.listComments(ctx, "1 = 1", "created DESC, coid DESC", p)
}

// ListPostComments returns a post's comments in thread order, oldest first.
func (s *SQLiteStore) ListPostComments(ctx context.Context, cid int64, p Page) ([]CommentRow, int, error) {
	return s.listComments(ctx, "cid = ?", "created ASC, coid ASC", p, cid)
}

// GetComment returns one comment by id.
func (s *SQLiteStore) GetComment(ctx context.Context, coid int64) (CommentRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE coid = ? LIMIT 1`, coid)
	if err != nil {
		return CommentRow{}, err
	}
	list, err := scanComments(rows)
	if err != nil {
		return CommentRow{}, err
	}
	if len(list) == 0 {
		return CommentRow{}, ErrNotFound
	}
	return list[0], nil
}

// InsertComment stores a comment and bumps the post's comment counter when
// the comment is approved. It returns the new comment id.
func (s *SQLiteStore) InsertComment(ctx context.Context, c CommentRow) (int64, error) {
	if c.Created == 0 {
		c.Created = time.Now().Unix()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `INSERT INTO comments (cid, created, author, authorId, ownerId, mail, url, ip, agent, text, type, status, parent)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CID, c.Created, c.Author, c.AuthorID, c.OwnerID, c.Mail, c.URL, c.IP, c.Agent, c.Text, c.Type, c.Status, c.Parent)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if c.Status == "approved" {
		if _, err := tx.ExecContext(ctx, `UPDATE contents SET commentsNum = commentsNum + 1 WHERE cid = ?`, c.CID); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

// Options returns every site option.
func (s *SQLiteStore) Options(ctx context.Context) (map[string]string, error) {
	return s.nameValues(ctx, `SELECT name, value FROM options`)
}

// Option returns one site option, or ErrNotFound.
func (s *SQLiteStore) Option(ctx context.Context, name string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM options WHERE name = ?`, name).Scan(&v)
	return v, err
}

// SetOption upserts a site option.
func (s *SQLiteStore) SetOption(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO options (name, value) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET value = excluded.value`, name, value)
	return err
}

// GetSetting returns one stored theme setting, or ErrNotFound.
func (s *SQLiteStore) GetSetting(ctx context.Context, name string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = ?`, name).Scan(&v)
	return v, err
}

// SetSetting upserts a theme setting.
func (s *SQLiteStore) SetSetting(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (name, value) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET value = excluded.value`, name, value)
	return err
}

// ListSettings returns settings whose name starts with prefix; an empty
// prefix returns all of them.
func (s *SQLiteStore) ListSettings(ctx context.Context, prefix string) (map[string]string, error) {
	if prefix == "" {
		return s.nameValues(ctx, `SELECT name, value FROM settings`)
	}
	return s.nameValues(ctx, `SELECT name, value FROM settings WHERE substr(name, 1, ?) = ?`, len(prefix), prefix)
}

func (s *SQLiteStore) nameValues(ctx context.Context, query string, args ...any) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

// SaveContent inserts a content row, or replaces it when CID is set, and
// returns its id. Posts and pages without a slug get one from the title.
func (s *SQLiteStore) SaveContent(ctx context.Context, r ContentRow) (int64, error) {
	now := time.Now().Unix()
	if r.Created == 0 {
		r.Created = now
	}
	if r.Modified == 0 {
		r.Modified = r.Created
	}
	if r.Type == "" {
		r.Type = "post"
	}
	if r.Status == "" {
		r.Status = "publish"
	}
	if r.Slug == "" && r.Type != "attachment" {
		r.Slug = Slugify(r.Title)
	}
	var slug any
	if r.Slug != "" {
		slug = r.Slug
	}
	var cid any
	if r.CID > 0 {
		cid = r.CID
	}
	res, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO contents
(cid, title, slug, created, modified, text, "order", authorId, type, status, parent, commentsNum)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cid, r.Title, slug, r.Created, r.Modified, r.Text, r.Order, r.AuthorID, r.Type, r.Status, r.Parent, r.CommentsNum)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SaveTerm inserts a category or tag and returns its id. An empty slug is
// derived from the name.
func (s *SQLiteStore) SaveTerm(ctx context.Context, t TermRow) (int64, error) {
	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO metas (name, slug, type, description, count, "order", parent)
VALUES (?, ?, ?, ?, ?, ?, ?)`, t.Name, t.Slug, t.Type, t.Description, t.Count, t.Order, t.Parent)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Relate attaches a term to a content item and refreshes the term's count.
func (s *SQLiteStore) Relate(ctx context.Context, cid, mid int64) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO relationships (cid, mid) VALUES (?, ?)`, cid, mid); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE metas SET count = (
    SELECT COUNT(*) FROM relationships r JOIN contents c ON c.cid = r.cid
    WHERE r.mid = metas.mid AND c.status = 'publish' AND c.type = 'post'
) WHERE mid = ?`, mid)
	return err
}
