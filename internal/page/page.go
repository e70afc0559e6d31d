// Package page describes the page entity to the rest of the system:
// its extensible schema, admin list, templates and content types.
//
// A Type is mutable while the site is being wired at startup. Seal turns it
// into a Registry that is read-only and safe to share between requests.
package page

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"website/internal/admin"
	"website/internal/content"
	"website/internal/filter"
	"website/internal/model"
)

// ErrSealed is returned when registering on a Type after Seal. The admin
// configuration reports the same error.
var ErrSealed = admin.ErrSealed

// Default admin column names.
const (
	ColumnTitle    = "title"
	ColumnVisible  = "is_visible_admin"
	ColumnTemplate = "template"
	ColumnSlug     = "slug"
)

// ActiveFilterAcceptor is implemented by page managers that narrow the
// list of active pages with contributed clauses.
type ActiveFilterAcceptor interface {
	AddToActiveFilters(c filter.Clause)
}

// Extension adds behavior to the page entity.
type Extension interface {
	Name() string
	Register(t *Type) error
}

// Field describes a column added to the page schema by an extension.
type Field struct {
	Name     string
	Label    string
	Null     bool
	HelpText string
	// Default fills the field on a page that is about to be created.
	Default func(p *model.Page, now time.Time)
}

// Region is a named slot of a template.
type Region struct {
	Key   string
	Title string
	// Inherited regions show the parent's content when a page has none.
	Inherited bool
}

// Template is a page layout with its regions.
type Template struct {
	Key     string
	Title   string
	Regions []Region
}

// Region returns the region with the given key.
func (t Template) Region(key string) (Region, bool) {
	for _, r := range t.Regions {
		if r.Key == key {
			return r, true
		}
	}
	return Region{}, false
}

// Type is the page entity under construction.
type Type struct {
	// Filters is nil when the page manager cannot accept active filters.
	Filters ActiveFilterAcceptor
	Admin   *admin.ModelAdmin

	fields       []Field
	templates    []Template
	contentTypes []content.Type
	extensions   []string
	sealed       bool
}

// NewType returns a page type with the default admin columns. filters may
// be nil.
func NewType(filters ActiveFilterAcceptor) (*Type, error) {
	a, err := admin.NewModelAdmin(DefaultColumns()...)
	if err != nil {
		return nil, fmt.Errorf("page admin: %w", err)
	}
	return &Type{Filters: filters, Admin: a}, nil
}

// DefaultColumns returns the admin columns every page list shows.
func DefaultColumns() []admin.Column {
	return []admin.Column{
		{Name: ColumnTitle, ShortDescription: "title", Render: func(p *model.Page) string { return p.Title }},
		{Name: ColumnVisible, ShortDescription: "is active", Render: func(p *model.Page) string {
			if p.Active {
				return "yes"
			}
			return "no"
		}},
		{Name: ColumnTemplate, ShortDescription: "template", Render: func(p *model.Page) string { return p.TemplateKey }},
		{Name: ColumnSlug, ShortDescription: "slug", Render: func(p *model.Page) string { return p.Slug }},
	}
}

// AddField adds a field descriptor to the page schema.
func (t *Type) AddField(f Field) error {
	if t.sealed {
		return ErrSealed
	}
	if f.Name == "" {
		return errors.New("field name is required")
	}
	if slices.ContainsFunc(t.fields, func(o Field) bool { return o.Name == f.Name }) {
		return fmt.Errorf("field %q already added", f.Name)
	}
	t.fields = append(t.fields, f)
	return nil
}

// RegisterExtensions registers each extension once, in order.
func (t *Type) RegisterExtensions(exts ...Extension) error {
	for _, ext := range exts {
		if t.sealed {
			return ErrSealed
		}
		if slices.Contains(t.extensions, ext.Name()) {
			return fmt.Errorf("extension %q already registered", ext.Name())
		}
		if err := ext.Register(t); err != nil {
			return fmt.Errorf("register extension %q: %w", ext.Name(), err)
		}
		t.extensions = append(t.extensions, ext.Name())
	}
	return nil
}

// RegisterTemplates makes templates available to pages.
func (t *Type) RegisterTemplates(tmpls ...Template) error {
	for _, tmpl := range tmpls {
		if t.sealed {
			return ErrSealed
		}
		if tmpl.Key == "" {
			return errors.New("template key is required")
		}
		if slices.ContainsFunc(t.templates, func(o Template) bool { return o.Key == tmpl.Key }) {
			return fmt.Errorf("template %q already registered", tmpl.Key)
		}
		if len(tmpl.Regions) == 0 {
			return fmt.Errorf("template %q has no regions", tmpl.Key)
		}
		seen := make(map[string]bool, len(tmpl.Regions))
		for _, r := range tmpl.Regions {
			if r.Key == "" || seen[r.Key] {
				return fmt.Errorf("template %q: invalid or duplicate region %q", tmpl.Key, r.Key)
			}
			seen[r.Key] = true
		}
		tmpl.Regions = slices.Clone(tmpl.Regions)
		t.templates = append(t.templates, tmpl)
	}
	return nil
}

// CreateContentType makes a block type usable in every template region.
func (t *Type) CreateContentType(ct content.Type) error {
	if t.sealed {
		return ErrSealed
	}
	if ct.Name == "" {
		return errors.New("content type name is required")
	}
	if slices.ContainsFunc(t.contentTypes, func(o content.Type) bool { return o.Name == ct.Name }) {
		return fmt.Errorf("content type %q already registered", ct.Name)
	}
	t.contentTypes = append(t.contentTypes, ct)
	return nil
}

// Seal freezes the type and returns its read-only registry. At least one
// template must be registered.
func (t *Type) Seal() (*Registry, error) {
	if t.sealed {
		return nil, ErrSealed
	}
	if len(t.templates) == 0 {
		return nil, errors.New("no templates registered")
	}
	t.sealed = true
	t.Admin.Seal()
	return &Registry{
		admin:        t.Admin,
		fields:       slices.Clone(t.fields),
		templates:    slices.Clone(t.templates),
		contentTypes: slices.Clone(t.contentTypes),
		extensions:   slices.Clone(t.extensions),
	}, nil
}
