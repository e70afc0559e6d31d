// Package model defines the domain types used across the application.
package model

import "time"

// Page is a node of the site tree. Pages are assembled from content blocks
// placed in the regions of their template.
type Page struct {
	ID          int64
	ParentID    *int64
	Title       string
	Slug        string
	TemplateKey string
	Active      bool

	// PublicationDate is when the page becomes visible. It is never unset
	// once the page has been stored.
	PublicationDate time.Time
	// PublicationEndDate is when the page stops being visible; nil means never.
	PublicationEndDate *time.Time

	CreatedAt time.Time
}

// ContentBlock is one piece of content placed in a region of a page.
// Data is the JSON payload interpreted by the block's content type.
type ContentBlock struct {
	ID       int64
	PageID   int64
	Region   string
	Ordering int
	Type     string
	Data     []byte
}

// Entry is a news item shown by the news list application.
type Entry struct {
	ID            int64
	GUID          string
	Title         string
	Slug          string
	Description   string
	Link          string
	PublishedDate time.Time
}

// WikiSnip is a named piece of wiki text that can be embedded in pages.
type WikiSnip struct {
	ID   int64
	Name string
	Body string
}
