// Package scheduler imports the news feed into the entries table on a
// fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"website/internal/fetcher"
	"website/internal/model"
)

// EntryStore persists imported entries.
type EntryStore interface {
	UpsertEntry(ctx context.Context, e *model.Entry) (bool, error)
}

// Scheduler periodically imports a news feed.
type Scheduler struct {
	store   EntryStore
	fetcher *fetcher.Fetcher
	url     string
	log     *slog.Logger
	tick    time.Duration
	now     func() time.Time
}

// New creates a Scheduler importing url every interval with the default
// HTTP client.
func New(store EntryStore, url string, interval time.Duration, log *slog.Logger) *Scheduler {
	return NewWithFetcher(store, fetcher.New(http.DefaultClient), url, interval, log)
}

// NewWithFetcher creates a Scheduler with a custom fetcher (useful for testing).
func NewWithFetcher(store EntryStore, f *fetcher.Fetcher, url string, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		fetcher: f,
		url:     url,
		log:     log,
		tick:    interval,
		now:     time.Now,
	}
}

// Run imports immediately and then on every tick, blocking until ctx is
// cancelled. Import failures are logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	created, err := s.Import(ctx)
	if err != nil {
		s.log.Error("import news", "url", s.url, "error", err)
		return
	}
	if created > 0 {
		s.log.Info("imported news", "url", s.url, "count", created)
	} else {
		s.log.Debug("no new news", "url", s.url)
	}
}

// Import fetches the feed once and stores entries not seen before. It
// returns the number of entries created. A failing entry is logged and
// does not stop the others.
func (s *Scheduler) Import(ctx context.Context) (int, error) {
	feed, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return 0, fmt.Errorf("fetch feed: %w", err)
	}

	created := 0
	for _, e := range fetcher.ToEntries(feed.Items, s.now()) {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		ok, err := s.store.UpsertEntry(ctx, &e)
		if err != nil {
			s.log.Error("store entry", "guid", e.GUID, "error", err)
			continue
		}
		if ok {
			created++
		}
	}
	return created, nil
}
