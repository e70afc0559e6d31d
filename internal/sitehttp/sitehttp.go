// Package sitehttp serves the public website: the list of active pages,
// the pages themselves and news entries.
package sitehttp

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"website/internal/model"
	"website/internal/page"
	"website/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	indexTmpl = parseView("index.html")
	pageTmpl  = parseView("page.html")
	entryTmpl = parseView("entry.html")
)

func parseView(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+name))
}

// Store is the read side of storage used by the site.
type Store interface {
	ListActivePages(ctx context.Context) ([]model.Page, error)
	GetActivePageBySlug(ctx context.Context, slug string) (*model.Page, error)
	GetPage(ctx context.Context, id int64) (*model.Page, error)
	ListBlocks(ctx context.Context, pageID int64) ([]model.ContentBlock, error)
	GetEntry(ctx context.Context, id int64) (*model.Entry, error)
}

// Site renders pages from the store using the page registry.
type Site struct {
	store Store
	reg   *page.Registry
	log   *slog.Logger
}

// New creates a Site.
func New(store Store, reg *page.Registry, log *slog.Logger) *Site {
	return &Site{store: store, reg: reg, log: log}
}

// Handler builds the router with its middleware. main owns the
// http.Server so it can shut down gracefully.
func (s *Site) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(AccessLog(s.log))
	r.Use(middleware.Compress(5, "text/html"))

	r.Get("/-/healthy", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/", s.handleIndex)
	r.Get("/news/{id}/", s.handleEntry)
	r.Get("/{slug}/", s.handlePage)
	return r
}

type indexView struct {
	Title string
	Pages []model.Page
}

type pageView struct {
	Title   string
	Page    *model.Page
	Regions []RenderedRegion
}

type entryView struct {
	Title string
	Entry *model.Entry
}

func (s *Site) handleIndex(w http.ResponseWriter, r *http.Request) {
	pages, err := s.store.ListActivePages(r.Context())
	if err != nil {
		s.serverError(w, r, "list active pages", err)
		return
	}
	s.render(w, r, indexTmpl, indexView{Title: "Pages", Pages: pages})
}

func (s *Site) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.store.GetActivePageBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, "get page", err)
		return
	}

	tmpl, ok := s.reg.Template(p.TemplateKey)
	if !ok {
		s.log.Warn("page uses unknown template", "page_id", p.ID, "template", p.TemplateKey)
		tmpl = s.reg.DefaultTemplate()
	}
	regions, err := s.RenderRegions(ctx, p, tmpl)
	if err != nil {
		s.serverError(w, r, "render regions", err)
		return
	}
	s.render(w, r, pageTmpl, pageView{Title: p.Title, Page: p, Regions: regions})
}

func (s *Site) handleEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}
	e, err := s.store.GetEntry(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, "get entry", err)
		return
	}
	s.render(w, r, entryTmpl, entryView{Title: e.Title, Entry: e})
}

func (s *Site) render(w http.ResponseWriter, r *http.Request, t *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		s.log.Error("execute template", "path", r.URL.Path, "error", err)
	}
}

func (s *Site) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.log.Error(msg, "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
