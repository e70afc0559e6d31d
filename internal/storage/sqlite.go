package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"website/internal/filter"
	"website/internal/model"
	"website/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

var pageColumns = []string{
	"id", "parent_id", "title", "slug", "template_key", "active",
	"publication_date", "publication_end_date", "created_at",
}

var entryColumns = []string{"id", "guid", "title", "slug", "description", "link", "published_date"}

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time

	// active narrows ListActivePages. Clauses are added during startup.
	active filter.Set
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dsn == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLite{db: db, now: time.Now}
	s.active.Add(func(any) sq.Sqlizer { return sq.Eq{"active": 1} })
	return s, nil
}

// SetClock replaces the clock used for active filtering and timestamps.
func (s *SQLite) SetClock(now func() time.Time) {
	s.now = now
}

// AddToActiveFilters narrows the pages considered active.
func (s *SQLite) AddToActiveFilters(c filter.Clause) {
	s.active.Add(c)
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) nowText() string {
	return formatTime(s.now())
}

// CreatePage inserts a new page and populates its ID and CreatedAt.
// A zero PublicationDate is set to the current time.
func (s *SQLite) CreatePage(ctx context.Context, p *model.Page) error {
	now := s.nowText()
	if p.PublicationDate.IsZero() {
		p.PublicationDate, _ = time.Parse(timeLayout, now)
	}
	query, args, err := sq.Insert("pages").
		Columns(pageColumns[1:]...).
		Values(p.ParentID, p.Title, p.Slug, p.TemplateKey, boolToInt(p.Active),
			formatTime(p.PublicationDate), formatTimePtr(p.PublicationEndDate), now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert page: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetPage returns a single page by its ID.
func (s *SQLite) GetPage(ctx context.Context, id int64) (*model.Page, error) {
	return s.getPage(ctx, sq.Eq{"id": id})
}

// GetPageBySlug returns a single page by its slug, active or not.
func (s *SQLite) GetPageBySlug(ctx context.Context, slug string) (*model.Page, error) {
	return s.getPage(ctx, sq.Eq{"slug": slug})
}

// GetActivePageBySlug returns the page with slug if it is active now.
func (s *SQLite) GetActivePageBySlug(ctx context.Context, slug string) (*model.Page, error) {
	return s.getPage(ctx, sq.And{sq.Eq{"slug": slug}, s.active.Where(s.nowText())})
}

func (s *SQLite) getPage(ctx context.Context, where sq.Sqlizer) (*model.Page, error) {
	query, args, err := sq.Select(pageColumns...).From("pages").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build page query: %w", err)
	}
	return scanPage(s.db.QueryRowContext(ctx, query, args...))
}

// ListPages returns every page ordered by ID.
func (s *SQLite) ListPages(ctx context.Context) ([]model.Page, error) {
	return s.listPages(ctx, sq.Select(pageColumns...).From("pages").OrderBy("id"))
}

// ListActivePages returns the pages matching the active filter now,
// ordered by ID.
func (s *SQLite) ListActivePages(ctx context.Context) ([]model.Page, error) {
	return s.listPages(ctx, sq.Select(pageColumns...).From("pages").
		Where(s.active.Where(s.nowText())).
		OrderBy("id"))
}

func (s *SQLite) listPages(ctx context.Context, b sq.SelectBuilder) ([]model.Page, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pages query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []model.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// UpdatePage persists changes to an existing page.
func (s *SQLite) UpdatePage(ctx context.Context, p *model.Page) error {
	query, args, err := sq.Update("pages").
		SetMap(map[string]any{
			"parent_id":            p.ParentID,
			"title":                p.Title,
			"slug":                 p.Slug,
			"template_key":         p.TemplateKey,
			"active":               boolToInt(p.Active),
			"publication_date":     formatTime(p.PublicationDate),
			"publication_end_date": formatTimePtr(p.PublicationEndDate),
		}).
		Where(sq.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update page: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return requireRow(res)
}

// DeletePage removes a page and its content blocks. Children are detached
// from the deleted page.
func (s *SQLite) DeletePage(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM content_blocks WHERE page_id = ?`, id); err != nil {
		return fmt.Errorf("delete content_blocks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE pages SET parent_id = NULL WHERE parent_id = ?`, id); err != nil {
		return fmt.Errorf("detach children: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateBlock inserts a content block and populates its ID.
func (s *SQLite) CreateBlock(ctx context.Context, b *model.ContentBlock) error {
	query, args, err := sq.Insert("content_blocks").
		Columns("page_id", "region", "ordering", "type", "data").
		Values(b.PageID, b.Region, b.Ordering, b.Type, string(b.Data)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert block: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	b.ID = id
	return nil
}

// ListBlocks returns the blocks of a page ordered by region and ordering.
func (s *SQLite) ListBlocks(ctx context.Context, pageID int64) ([]model.ContentBlock, error) {
	query, args, err := sq.Select("id", "page_id", "region", "ordering", "type", "data").
		From("content_blocks").
		Where(sq.Eq{"page_id": pageID}).
		OrderBy("region", "ordering", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build blocks query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var blocks []model.ContentBlock
	for rows.Next() {
		var b model.ContentBlock
		var data string
		if err := rows.Scan(&b.ID, &b.PageID, &b.Region, &b.Ordering, &b.Type, &data); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		b.Data = []byte(data)
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// DeleteBlock removes a content block by its ID.
func (s *SQLite) DeleteBlock(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM content_blocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return requireRow(res)
}

// UpsertEntry inserts e unless an entry with the same GUID exists. It
// populates e.ID either way and reports whether a row was created.
func (s *SQLite) UpsertEntry(ctx context.Context, e *model.Entry) (bool, error) {
	query, args, err := sq.Insert("entries").
		Columns(entryColumns[1:]...).
		Values(e.GUID, e.Title, e.Slug, e.Description, e.Link, formatTime(e.PublishedDate)).
		Suffix("ON CONFLICT(guid) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert entry: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("last insert id: %w", err)
		}
		e.ID = id
		return true, nil
	}

	if err := s.db.QueryRowContext(ctx, `SELECT id FROM entries WHERE guid = ?`, e.GUID).Scan(&e.ID); err != nil {
		return false, fmt.Errorf("lookup entry: %w", err)
	}
	return false, nil
}

// ListEntries returns up to limit entries, newest first. A non-positive
// limit returns all entries.
func (s *SQLite) ListEntries(ctx context.Context, limit int) ([]model.Entry, error) {
	b := sq.Select(entryColumns...).From("entries").OrderBy("published_date DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entries query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// GetEntry returns a single entry by its ID.
func (s *SQLite) GetEntry(ctx context.Context, id int64) (*model.Entry, error) {
	query, args, err := sq.Select(entryColumns...).From("entries").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entry query: %w", err)
	}
	return scanEntry(s.db.QueryRowContext(ctx, query, args...))
}

// CreateSnip inserts a wiki snippet and populates its ID.
func (s *SQLite) CreateSnip(ctx context.Context, w *model.WikiSnip) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO wiki_snips (name, body) VALUES (?, ?)`, w.Name, w.Body)
	if err != nil {
		return fmt.Errorf("insert snip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	w.ID = id
	return nil
}

// GetSnip returns a single wiki snippet by its ID.
func (s *SQLite) GetSnip(ctx context.Context, id int64) (*model.WikiSnip, error) {
	var w model.WikiSnip
	err := s.db.QueryRowContext(ctx, `SELECT id, name, body FROM wiki_snips WHERE id = ?`, id).
		Scan(&w.ID, &w.Name, &w.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan snip: %w", err)
	}
	return &w, nil
}

// ListSnips returns every wiki snippet ordered by name.
func (s *SQLite) ListSnips(ctx context.Context) ([]model.WikiSnip, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, body FROM wiki_snips ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query snips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snips []model.WikiSnip
	for rows.Next() {
		var w model.WikiSnip
		if err := rows.Scan(&w.ID, &w.Name, &w.Body); err != nil {
			return nil, fmt.Errorf("scan snip: %w", err)
		}
		snips = append(snips, w)
	}
	return snips, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := formatTime(*t)
	return &v
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPage(row scannable) (*model.Page, error) {
	var p model.Page
	var parent sql.NullInt64
	var active int
	var pub string
	var end, created sql.NullString
	err := row.Scan(&p.ID, &parent, &p.Title, &p.Slug, &p.TemplateKey, &active, &pub, &end, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan page: %w", err)
	}
	if parent.Valid {
		p.ParentID = &parent.Int64
	}
	p.Active = active == 1
	p.PublicationDate, _ = time.Parse(timeLayout, pub)
	if end.Valid {
		t, _ := time.Parse(timeLayout, end.String)
		p.PublicationEndDate = &t
	}
	if created.Valid {
		p.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &p, nil
}

func scanEntry(row scannable) (*model.Entry, error) {
	var e model.Entry
	var published string
	err := row.Scan(&e.ID, &e.GUID, &e.Title, &e.Slug, &e.Description, &e.Link, &published)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	e.PublishedDate, _ = time.Parse(timeLayout, published)
	return &e, nil
}
