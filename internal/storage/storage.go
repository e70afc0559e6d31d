// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"website/internal/filter"
	"website/internal/model"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	CreatePage(ctx context.Context, p *model.Page) error
	GetPage(ctx context.Context, id int64) (*model.Page, error)
	GetPageBySlug(ctx context.Context, slug string) (*model.Page, error)
	ListPages(ctx context.Context) ([]model.Page, error)
	UpdatePage(ctx context.Context, p *model.Page) error
	DeletePage(ctx context.Context, id int64) error

	// ListActivePages and GetActivePageBySlug only see pages matching the
	// active filter at the current instant.
	ListActivePages(ctx context.Context) ([]model.Page, error)
	GetActivePageBySlug(ctx context.Context, slug string) (*model.Page, error)
	AddToActiveFilters(c filter.Clause)

	CreateBlock(ctx context.Context, b *model.ContentBlock) error
	ListBlocks(ctx context.Context, pageID int64) ([]model.ContentBlock, error)
	DeleteBlock(ctx context.Context, id int64) error

	UpsertEntry(ctx context.Context, e *model.Entry) (bool, error)
	ListEntries(ctx context.Context, limit int) ([]model.Entry, error)
	GetEntry(ctx context.Context, id int64) (*model.Entry, error)

	CreateSnip(ctx context.Context, s *model.WikiSnip) error
	GetSnip(ctx context.Context, id int64) (*model.WikiSnip, error)
	ListSnips(ctx context.Context) ([]model.WikiSnip, error)

	Close() error
}
