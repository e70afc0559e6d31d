package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"website/internal/model"
)

type fakeLister struct {
	entries []model.Entry
	err     error
	limit   int
}

func (f *fakeLister) ListEntries(_ context.Context, limit int) ([]model.Entry, error) {
	f.limit = limit
	return f.entries, f.err
}

func TestURL(t *testing.T) {
	if diff := cmp.Diff("/news/7/", URL(model.Entry{ID: 7})); diff != "" {
		t.Errorf("URL() mismatch (-want +got):\n%s", diff)
	}
}

func TestListApp(t *testing.T) {
	ctx := context.Background()

	t.Run("choice", func(t *testing.T) {
		app := ListApp(&fakeLister{}, 5)
		if diff := cmp.Diff(AppKey, app.Key); diff != "" {
			t.Errorf("key (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff("News list", app.Title); diff != "" {
			t.Errorf("title (-want +got):\n%s", diff)
		}
	})

	t.Run("renders entries with the limit", func(t *testing.T) {
		l := &fakeLister{entries: []model.Entry{
			{ID: 2, Title: "B & C", PublishedDate: time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)},
		}}
		got, err := ListApp(l, 5).Renderer.Render(ctx)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		want := `<ul class="news"><li><a href="/news/2/">B &amp; C</a> <time datetime="2024-05-02">02.05.2024</time></li></ul>`
		if diff := cmp.Diff(want, string(got)); diff != "" {
			t.Errorf("Render() mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(5, l.limit); diff != "" {
			t.Errorf("limit (-want +got):\n%s", diff)
		}
	})

	t.Run("empty", func(t *testing.T) {
		got, err := ListApp(&fakeLister{}, 5).Renderer.Render(ctx)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if diff := cmp.Diff(`<ul class="news"><li>No news yet.</li></ul>`, string(got)); diff != "" {
			t.Errorf("Render() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("store error", func(t *testing.T) {
		boom := errors.New("locked")
		_, err := ListApp(&fakeLister{err: boom}, 5).Renderer.Render(ctx)
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
	})
}
