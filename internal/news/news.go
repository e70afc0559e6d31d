// Package news provides the news list application that pages embed
// through application content.
package news

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"website/internal/content"
	"website/internal/model"
)

// AppKey identifies the news list among embeddable applications.
const AppKey = "website.entry_urls"

// EntryLister lists news entries, newest first.
type EntryLister interface {
	ListEntries(ctx context.Context, limit int) ([]model.Entry, error)
}

// URL returns the public address of an entry.
func URL(e model.Entry) string {
	return fmt.Sprintf("/news/%d/", e.ID)
}

var listTmpl = template.Must(template.New("news").Funcs(template.FuncMap{"url": URL}).Parse(
	`<ul class="news">{{range .}}<li><a href="{{url .}}">{{.Title}}</a> <time datetime="{{.PublishedDate.Format "2006-01-02"}}">{{.PublishedDate.Format "02.01.2006"}}</time></li>{{else}}<li>No news yet.</li>{{end}}</ul>`,
))

type list struct {
	store EntryLister
	limit int
}

func (l list) Render(ctx context.Context) (template.HTML, error) {
	entries, err := l.store.ListEntries(ctx, l.limit)
	if err != nil {
		return "", fmt.Errorf("list entries: %w", err)
	}
	var buf bytes.Buffer
	if err := listTmpl.Execute(&buf, entries); err != nil {
		return "", fmt.Errorf("render news list: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}

// ListApp returns the news list application showing up to limit entries.
func ListApp(store EntryLister, limit int) content.App {
	return content.App{
		Choice:   content.Choice{Key: AppKey, Title: "News list"},
		Renderer: list{store: store, limit: limit},
	}
}
