// Package datepublisher gives pages a publication window. A page is only
// listed as active between its publication date and its optional end date,
// and the admin list shows the window in a compact form.
package datepublisher

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"website/internal/admin"
	"website/internal/model"
	"website/internal/page"
)

// Schema field and admin column names.
const (
	FieldPublicationDate    = "publication_date"
	FieldPublicationEndDate = "publication_end_date"
	ColumnName              = "datepublisher_admin"
)

// IsActive reports whether a window starting at start and ending at end
// contains now. The start is inclusive, the end exclusive; a nil end never
// expires.
func IsActive(start time.Time, end *time.Time, now time.Time) bool {
	if start.After(now) {
		return false
	}
	return end == nil || end.After(now)
}

// PageIsActive applies IsActive to the window of p.
func PageIsActive(p *model.Page, now time.Time) bool {
	return IsActive(p.PublicationDate, p.PublicationEndDate, now)
}

// ActiveClause is IsActive as a filter clause over the page columns.
func ActiveClause(now any) sq.Sqlizer {
	return sq.And{
		sq.LtOrEq{FieldPublicationDate: now},
		sq.Or{
			sq.Eq{FieldPublicationEndDate: nil},
			sq.Gt{FieldPublicationEndDate: now},
		},
	}
}

// FormatDate renders d as DD.MM when it falls in the same year as now and
// as DD.MM.YYYY otherwise. A nil d yields ifNone.
func FormatDate(d *time.Time, ifNone string, now time.Time) string {
	if d == nil {
		return ifNone
	}
	t := d.In(now.Location())
	if t.Year() == now.Year() {
		return t.Format("02.01")
	}
	return t.Format("02.01.2006")
}

// FormatWindow renders the publication window of p for the admin list.
func FormatWindow(p *model.Page, now time.Time) string {
	start := p.PublicationDate
	return FormatDate(&start, "", now) + " – " + FormatDate(p.PublicationEndDate, "∞", now)
}

// AdminColumn returns the admin list column showing the publication window.
func AdminColumn(now func() time.Time) admin.Column {
	return admin.Column{
		Name:             ColumnName,
		ShortDescription: "visible from - to",
		AllowTags:        true,
		Render: func(p *model.Page) string {
			return FormatWindow(p, now())
		},
	}
}

// Extension registers the publication window on the page type.
type Extension struct {
	// Now is the clock used for defaults and the admin column.
	// time.Now is used when nil.
	Now func() time.Time
}

// Name implements page.Extension.
func (Extension) Name() string {
	return "datepublisher"
}

// Register implements page.Extension.
func (e Extension) Register(t *page.Type) error {
	now := e.Now
	if now == nil {
		now = time.Now
	}

	if err := t.AddField(page.Field{
		Name:  FieldPublicationDate,
		Label: "publication date",
		Default: func(p *model.Page, now time.Time) {
			if p.PublicationDate.IsZero() {
				p.PublicationDate = now
			}
		},
	}); err != nil {
		return err
	}
	if err := t.AddField(page.Field{
		Name:     FieldPublicationEndDate,
		Label:    "publication end date",
		Null:     true,
		HelpText: "Leave empty if the entry should stay active forever.",
	}); err != nil {
		return err
	}

	if t.Filters != nil {
		t.Filters.AddToActiveFilters(ActiveClause)
	}

	if err := t.Admin.RegisterColumn(AdminColumn(now)); err != nil {
		return err
	}
	_, err := t.Admin.ListDisplay.InsertAfter(page.ColumnVisible, ColumnName, true)
	return err
}
