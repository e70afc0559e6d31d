// Package site wires the page entity of this website: its extensions,
// templates and content types. Setup runs once at startup.
package site

import (
	"fmt"
	"time"

	"website/internal/content"
	"website/internal/datepublisher"
	"website/internal/news"
	"website/internal/page"
	"website/internal/wiki"
)

// Template and region keys.
const (
	TemplateStandard = "feincms.html"
	RegionMain       = "main"
	RegionSidebar    = "sidebar"
)

const defaultNewsLimit = 10

// Deps are the collaborators the registered content types need.
type Deps struct {
	// Filters receives the active-page clauses; nil skips them.
	Filters page.ActiveFilterAcceptor
	Entries news.EntryLister
	Snips   wiki.Store
	// Now defaults to time.Now.
	Now       func() time.Time
	NewsLimit int
}

// ImagePositions are the placements offered for image content.
var ImagePositions = []content.Choice{
	{Key: "block", Title: "block"},
	{Key: "left", Title: "left"},
	{Key: "right", Title: "right"},
}

// Setup registers everything pages need and returns the sealed registry.
func Setup(d Deps) (*page.Registry, error) {
	if d.Entries == nil || d.Snips == nil {
		return nil, fmt.Errorf("site setup: entries and snips are required")
	}
	limit := d.NewsLimit
	if limit <= 0 {
		limit = defaultNewsLimit
	}

	t, err := page.NewType(d.Filters)
	if err != nil {
		return nil, err
	}

	if err := t.RegisterExtensions(datepublisher.Extension{Now: d.Now}); err != nil {
		return nil, err
	}

	if err := t.RegisterTemplates(page.Template{
		Key:   TemplateStandard,
		Title: "Standard template",
		Regions: []page.Region{
			{Key: RegionMain, Title: "Main content area"},
			{Key: RegionSidebar, Title: "Sidebar", Inherited: true},
		},
	}); err != nil {
		return nil, err
	}

	types := []content.Type{
		content.RichTextType(),
		content.ImageType(ImagePositions...),
		content.ApplicationType(news.ListApp(d.Entries, limit)),
		content.MarkupType(),
		content.WikiSnippetType(wiki.NewSource(d.Snips)),
	}
	for _, ct := range types {
		if err := t.CreateContentType(ct); err != nil {
			return nil, err
		}
	}

	return t.Seal()
}
