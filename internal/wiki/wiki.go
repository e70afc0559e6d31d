// Package wiki renders wiki snippets that pages embed by reference.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"

	bm "github.com/microcosm-cc/bluemonday"
	bf "github.com/russross/blackfriday"

	"website/internal/content"
	"website/internal/model"
	"website/internal/storage"
)

// Store loads snippets by ID.
type Store interface {
	GetSnip(ctx context.Context, id int64) (*model.WikiSnip, error)
}

// Snip is a stored snippet that knows how to render itself.
type Snip struct {
	model.WikiSnip
}

var policy = bm.UGCPolicy()

// Render returns the snippet body as sanitized HTML wrapped in a container
// named after the snippet.
func (s Snip) Render(_ context.Context) (template.HTML, error) {
	body := policy.SanitizeBytes(bf.MarkdownCommon([]byte(s.Body)))
	out := fmt.Sprintf(`<div class="wikisnip" data-snip="%s">%s</div>`, html.EscapeString(s.Name), body)
	return template.HTML(out), nil //nolint:gosec // body sanitized, name escaped
}

// Source resolves snippet references for wiki snippet blocks.
type Source struct {
	store Store
}

// NewSource returns a Source reading from store.
func NewSource(store Store) *Source {
	return &Source{store: store}
}

// LookupSnip implements content.SnipSource. A missing snippet yields a nil
// renderer and no error.
func (s *Source) LookupSnip(ctx context.Context, id int64) (content.Renderer, error) {
	snip, err := s.store.GetSnip(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Snip{WikiSnip: *snip}, nil
}
