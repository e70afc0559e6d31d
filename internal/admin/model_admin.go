package admin

import (
	"fmt"
	"html"

	"website/internal/model"
)

// Column renders one cell of the page list.
type Column struct {
	Name             string
	ShortDescription string
	// AllowTags marks the rendered value as HTML; other values are escaped.
	AllowTags bool
	Render    func(p *model.Page) string
}

// ModelAdmin is the admin configuration of the page list.
type ModelAdmin struct {
	ListDisplay *ListDisplay
	columns     map[string]Column
	sealed      bool
}

// NewModelAdmin creates a ModelAdmin showing the given columns in order.
// Each displayed column must be registered before rows are rendered.
func NewModelAdmin(columns ...Column) (*ModelAdmin, error) {
	a := &ModelAdmin{
		ListDisplay: NewListDisplay(),
		columns:     make(map[string]Column, len(columns)),
	}
	for _, c := range columns {
		if err := a.RegisterColumn(c); err != nil {
			return nil, err
		}
		if err := a.ListDisplay.Append(c.Name); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// RegisterColumn makes a column renderer available under its name.
// It does not change the list display.
func (a *ModelAdmin) RegisterColumn(c Column) error {
	if a.sealed {
		return ErrSealed
	}
	if c.Name == "" {
		return fmt.Errorf("column name is required")
	}
	if c.Render == nil {
		return fmt.Errorf("column %q has no renderer", c.Name)
	}
	if _, ok := a.columns[c.Name]; ok {
		return fmt.Errorf("column %q already registered", c.Name)
	}
	a.columns[c.Name] = c
	return nil
}

// Seal freezes the registered columns and the list display.
func (a *ModelAdmin) Seal() {
	a.sealed = true
	a.ListDisplay.Seal()
}

// Column returns the registered column with the given name.
func (a *ModelAdmin) Column(name string) (Column, bool) {
	c, ok := a.columns[name]
	return c, ok
}

// Header returns the short descriptions of the displayed columns.
func (a *ModelAdmin) Header() []string {
	names := a.ListDisplay.Names()
	out := make([]string, 0, len(names))
	for _, n := range names {
		c, ok := a.columns[n]
		if !ok || c.ShortDescription == "" {
			out = append(out, n)
			continue
		}
		out = append(out, c.ShortDescription)
	}
	return out
}

// Row renders the displayed columns of p as HTML-safe cells.
// Columns that are displayed but not registered render empty.
func (a *ModelAdmin) Row(p *model.Page) []string {
	names := a.ListDisplay.Names()
	out := make([]string, 0, len(names))
	for _, n := range names {
		c, ok := a.columns[n]
		if !ok {
			out = append(out, "")
			continue
		}
		v := c.Render(p)
		if !c.AllowTags {
			v = html.EscapeString(v)
		}
		out = append(out, v)
	}
	return out
}
