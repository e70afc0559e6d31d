package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"website/internal/config"
	"website/internal/model"
	"website/internal/site"
	"website/internal/storage"
)

// --- mocks ---

type sentMsg struct {
	ChatID    int64
	Text      string
	ParseMode string
	Keyboard  bool
	Callbacks []string
}

type mockAPI struct {
	mu   sync.Mutex
	sent []sentMsg
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		kb, keyboard := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		var callbacks []string
		for _, row := range kb.InlineKeyboard {
			for _, btn := range row {
				if btn.CallbackData != nil {
					callbacks = append(callbacks, *btn.CallbackData)
				}
			}
		}
		m.mu.Lock()
		m.sent = append(m.sent, sentMsg{ChatID: msg.ChatID, Text: msg.Text, ParseMode: msg.ParseMode, Keyboard: keyboard, Callbacks: callbacks})
		m.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(tgbotapi.UpdatesChannel)
}

func (m *mockAPI) StopReceivingUpdates() {}

func (m *mockAPI) last() sentMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMsg{}
	}
	return m.sent[len(m.sent)-1]
}

func (m *mockAPI) lastText() string {
	return m.last().Text
}

func (m *mockAPI) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockAPI) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

type mockImporter struct {
	created int
	err     error
	calls   int
}

func (m *mockImporter) Import(context.Context) (int, error) {
	m.calls++
	return m.created, m.err
}

// --- helpers ---

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestBot(t *testing.T) (*Bot, *mockAPI, *storage.SQLite) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	now := func() time.Time { return testNow }
	store.SetClock(now)

	reg, err := site.Setup(site.Deps{Filters: store, Entries: store, Snips: store, Now: now})
	if err != nil {
		t.Fatalf("site setup: %v", err)
	}

	api := &mockAPI{}
	b := &Bot{
		api:   api,
		store: store,
		reg:   reg,
		cfg:   &config.Config{AllowedUsers: []int64{1}},
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   now,
		loc:   time.UTC,
	}
	return b, api, store
}

func seedPage(t *testing.T, store *storage.SQLite, slug, title string) *model.Page {
	t.Helper()
	p := &model.Page{
		Title:           title,
		Slug:            slug,
		TemplateKey:     site.TemplateStandard,
		Active:          true,
		PublicationDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.CreatePage(context.Background(), p); err != nil {
		t.Fatalf("seed page: %v", err)
	}
	return p
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("reply missing %q, got:\n%s", want, got)
	}
}

func makeMsg(userID int64, cmd, args string) *tgbotapi.Message {
	text := "/" + cmd
	if args != "" {
		text += " " + args
	}
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "admin"},
		Chat: &tgbotapi.Chat{ID: 100},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len("/" + cmd)},
		},
	}
}

// --- handler tests ---

func TestHandleStart(t *testing.T) {
	b, api, _ := newTestBot(t)
	b.handleStart(100)
	requireContains(t, api.lastText(), "Welcome to the website admin console")
}

func TestHandleHelp(t *testing.T) {
	b, api, _ := newTestBot(t)
	b.handleHelp(100)
	requireContains(t, api.lastText(), "/add")
	requireContains(t, api.lastText(), "/until")
	requireContains(t, api.lastText(), "/parent")
	requireContains(t, api.lastText(), "/import")
}

func TestHandleAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("empty args", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handleAdd(ctx, 100, "")
		requireContains(t, api.lastText(), "usage: /add")
	})

	t.Run("invalid slug", func(t *testing.T) {
		b, api, store := newTestBot(t)
		b.handleAdd(ctx, 100, "about_us About us")
		requireContains(t, api.lastText(), "Invalid page")
		pages, _ := store.ListPages(ctx)
		if diff := cmp.Diff(0, len(pages)); diff != "" {
			t.Errorf("page count (-want +got):\n%s", diff)
		}
	})

	t.Run("success applies defaults", func(t *testing.T) {
		b, api, store := newTestBot(t)
		b.handleAdd(ctx, 100, "About About us")
		requireContains(t, api.lastText(), "Page created!")
		requireContains(t, api.lastText(), "URL: /about/")

		p, err := store.GetPageBySlug(ctx, "about")
		if err != nil {
			t.Fatalf("get page: %v", err)
		}
		want := model.Page{
			ID:              p.ID,
			Title:           "About us",
			Slug:            "about",
			TemplateKey:     site.TemplateStandard,
			Active:          true,
			PublicationDate: testNow,
			CreatedAt:       testNow,
		}
		if diff := cmp.Diff(want, *p); diff != "" {
			t.Errorf("stored page (-want +got):\n%s", diff)
		}
	})

	t.Run("duplicate slug", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handleAdd(ctx, 100, "about About us")
		b.handleAdd(ctx, 100, "about Another")
		requireContains(t, api.lastText(), `A page with slug "about" already exists.`)
	})
}

func TestHandlePages(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handlePages(ctx, 100)
		requireContains(t, api.lastText(), "no pages yet")
	})

	t.Run("uses the admin list display", func(t *testing.T) {
		b, api, store := newTestBot(t)
		seedPage(t, store, "about", "About <us>")
		b.handlePages(ctx, 100)

		got := api.last()
		if diff := cmp.Diff(tgbotapi.ModeHTML, got.ParseMode); diff != "" {
			t.Errorf("parse mode (-want +got):\n%s", diff)
		}
		requireContains(t, got.Text, "visible from - to")
		requireContains(t, got.Text, "#1 About &lt;us&gt;")
		requireContains(t, got.Text, "01.01 – ∞")
		if diff := cmp.Diff([]string{"page:1", "delete_confirm:1"}, got.Callbacks); diff != "" {
			t.Errorf("list buttons (-want +got):\n%s", diff)
		}
	})

	t.Run("empty list has no buttons", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handlePages(ctx, 100)
		if api.last().Keyboard {
			t.Error("empty page list should not carry a keyboard")
		}
	})
}

func TestHandlePage(t *testing.T) {
	ctx := context.Background()

	t.Run("bad id", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handlePage(ctx, 100, "abc")
		requireContains(t, api.lastText(), "Usage: /page <id>")
	})

	t.Run("not found", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handlePage(ctx, 100, "99")
		requireContains(t, api.lastText(), "Page #99 not found.")
	})

	t.Run("shows blocks", func(t *testing.T) {
		b, api, store := newTestBot(t)
		p := seedPage(t, store, "about", "About")
		if err := store.CreateBlock(ctx, &model.ContentBlock{
			PageID: p.ID, Region: site.RegionMain, Type: "richtext", Data: []byte(`{"text":"<p>Hi</p>"}`),
		}); err != nil {
			t.Fatalf("create block: %v", err)
		}
		b.handlePage(ctx, 100, "1")
		requireContains(t, api.lastText(), "#1 About [live]")
		requireContains(t, api.lastText(), "B1: richtext")
	})
}

func TestHandleRename(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedPage(t, store, "about", "About")

	b.handleRename(ctx, 100, "1")
	requireContains(t, api.lastText(), "usage: /rename")

	b.handleRename(ctx, 100, "1 About the company")
	requireContains(t, api.lastText(), `Page #1 renamed to "About the company".`)

	p, _ := store.GetPage(ctx, 1)
	if diff := cmp.Diff("About the company", p.Title); diff != "" {
		t.Errorf("title (-want +got):\n%s", diff)
	}
}

func TestHandlePublicationWindow(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedPage(t, store, "about", "About")

	b.handleFrom(ctx, 100, "1 2024-07-01")
	requireContains(t, api.lastText(), "Page #1 is published 01.07 – ∞.")

	active, _ := store.ListActivePages(ctx)
	if diff := cmp.Diff(0, len(active)); diff != "" {
		t.Errorf("future page should not be active (-want +got):\n%s", diff)
	}

	b.handleFrom(ctx, 100, "1 2024-05-01")
	b.handleUntil(ctx, 100, "1 2024-05-01")
	requireContains(t, api.lastText(), "Invalid page")

	b.handleUntil(ctx, 100, "1 2025-01-31 18:00")
	requireContains(t, api.lastText(), "Page #1 is published 01.05 – 31.01.2025.")
	p, _ := store.GetPage(ctx, 1)
	want := time.Date(2025, 1, 31, 18, 0, 0, 0, time.UTC)
	if p.PublicationEndDate == nil || !p.PublicationEndDate.Equal(want) {
		t.Errorf("end date = %v, want %v", p.PublicationEndDate, want)
	}

	b.handleUntil(ctx, 100, "1 never")
	requireContains(t, api.lastText(), "01.05 – ∞")
	p, _ = store.GetPage(ctx, 1)
	if p.PublicationEndDate != nil {
		t.Errorf("end date should be cleared, got %v", p.PublicationEndDate)
	}

	b.handleFrom(ctx, 100, "1 never")
	requireContains(t, api.lastText(), "Usage: /from")
}

func TestHandleParent(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedPage(t, store, "company", "Company")
	seedPage(t, store, "team", "Team")
	seedPage(t, store, "jobs", "Jobs")

	parentOf := func(id int64) *int64 {
		t.Helper()
		p, err := store.GetPage(ctx, id)
		if err != nil {
			t.Fatalf("get page %d: %v", id, err)
		}
		return p.ParentID
	}

	tests := []struct {
		name       string
		args       string
		want       string
		page       int64
		wantParent *int64
	}{
		{name: "usage", args: "2", want: "usage: /parent"},
		{name: "bad parent id", args: "2 abc", want: "invalid ID"},
		{name: "self", args: "2 2", want: "A page cannot be its own parent.", page: 2},
		{name: "missing parent", args: "2 9", want: "Page #9 not found.", page: 2},
		{name: "set parent", args: "2 1", want: `Page #2 now inherits from #1 "Company".`, page: 2, wantParent: int64Ptr(1)},
		{name: "grandchild", args: "3 2", want: `Page #3 now inherits from #2 "Team".`, page: 3, wantParent: int64Ptr(2)},
		{name: "direct cycle", args: "2 3", want: "would create a cycle", page: 2, wantParent: int64Ptr(1)},
		{name: "indirect cycle", args: "1 3", want: "would create a cycle", page: 1},
		{name: "clear parent", args: "3 none", want: "Page #3 is now a top-level page.", page: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.handleParent(ctx, 100, tt.args)
			requireContains(t, api.lastText(), tt.want)
			if tt.page == 0 {
				return
			}
			if diff := cmp.Diff(tt.wantParent, parentOf(tt.page)); diff != "" {
				t.Errorf("parent of #%d (-want +got):\n%s", tt.page, diff)
			}
		})
	}

	b.handlePage(ctx, 100, "2")
	requireContains(t, api.lastText(), "Parent: #1")
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestHandleVisibility(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedPage(t, store, "about", "About")

	b.handleVisibility(ctx, 100, "1", false)
	requireContains(t, api.lastText(), `Page #1 "About" is now hidden.`)
	if _, err := store.GetActivePageBySlug(ctx, "about"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("hidden page should not be active, err = %v", err)
	}

	b.handleVisibility(ctx, 100, "1", true)
	requireContains(t, api.lastText(), `Page #1 "About" is now visible.`)
	if _, err := store.GetActivePageBySlug(ctx, "about"); err != nil {
		t.Errorf("visible page should be active, err = %v", err)
	}

	b.handleVisibility(ctx, 100, "", true)
	requireContains(t, api.lastText(), "Usage: /show <id>")
}

func TestHandleBlock(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		args string
		want string
	}{
		{name: "rich text", args: `1 main richtext {"text":"<p>Hello</p>"}`, want: "Block B1 (richtext) added to main of #1."},
		{name: "news list", args: `1 sidebar application {"urls":"website.entry_urls"}`, want: "Block B1 (application) added to sidebar of #1."},
		{name: "unknown region", args: `1 footer richtext {"text":"x"}`, want: `template "feincms.html" has no region "footer"`},
		{name: "unknown type", args: `1 main video {}`, want: `unknown content type "video"`},
		{name: "missing text", args: `1 main richtext`, want: "Invalid block"},
		{name: "unknown page", args: `9 main richtext {"text":"x"}`, want: "Page #9 not found."},
		{name: "bad json", args: `1 main richtext {"text"`, want: "JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api, store := newTestBot(t)
			seedPage(t, store, "about", "About")
			b.handleBlock(ctx, 100, tt.args)
			requireContains(t, api.lastText(), tt.want)
		})
	}

	t.Run("ordering grows per region", func(t *testing.T) {
		b, _, store := newTestBot(t)
		seedPage(t, store, "about", "About")
		b.handleBlock(ctx, 100, `1 main richtext {"text":"a"}`)
		b.handleBlock(ctx, 100, `1 sidebar richtext {"text":"b"}`)
		b.handleBlock(ctx, 100, `1 main richtext {"text":"c"}`)

		blocks, err := store.ListBlocks(ctx, 1)
		if err != nil {
			t.Fatalf("list blocks: %v", err)
		}
		type slot struct {
			Region   string
			Ordering int
		}
		var got []slot
		for _, bl := range blocks {
			got = append(got, slot{bl.Region, bl.Ordering})
		}
		want := []slot{{"main", 0}, {"main", 1}, {"sidebar", 0}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("block slots (-want +got):\n%s", diff)
		}
	})
}

func TestHandleRmBlock(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedPage(t, store, "about", "About")
	b.handleBlock(ctx, 100, `1 main richtext {"text":"a"}`)

	b.handleRmBlock(ctx, 100, "1")
	requireContains(t, api.lastText(), "Block B1 removed.")

	b.handleRmBlock(ctx, 100, "1")
	requireContains(t, api.lastText(), "Block B1 not found.")

	b.handleRmBlock(ctx, 100, "")
	requireContains(t, api.lastText(), "Usage: /rmblock")
}

func TestHandleSnips(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)

	b.handleSnips(ctx, 100)
	requireContains(t, api.lastText(), "no wiki snippets")

	b.handleSnip(ctx, 100, "footer")
	requireContains(t, api.lastText(), "Usage: /snip")

	b.handleSnip(ctx, 100, "footer Call us *today*")
	requireContains(t, api.lastText(), `Wiki snippet S1 "footer" saved.`)

	b.handleSnips(ctx, 100)
	requireContains(t, api.lastText(), "S1 footer: Call us *today*")

	seedPage(t, store, "about", "About")
	b.handleBlock(ctx, 100, `1 sidebar wikisnippet {"snip_id":1}`)
	requireContains(t, api.lastText(), "Block B1 (wikisnippet) added to sidebar of #1.")
}

func TestHandleImport(t *testing.T) {
	ctx := context.Background()

	t.Run("no feed configured", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handleImport(ctx, 100)
		requireContains(t, api.lastText(), "No news feed is configured.")
	})

	tests := []struct {
		name     string
		importer *mockImporter
		want     string
	}{
		{name: "one entry", importer: &mockImporter{created: 1}, want: "Imported 1 new news entry."},
		{name: "several entries", importer: &mockImporter{created: 3}, want: "Imported 3 new news entries."},
		{name: "failure", importer: &mockImporter{err: errors.New("feed down")}, want: "Import failed: feed down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api, _ := newTestBot(t)
			b.importer = tt.importer
			b.handleImport(ctx, 100)
			requireContains(t, api.lastText(), tt.want)
			if diff := cmp.Diff(1, tt.importer.calls); diff != "" {
				t.Errorf("import calls (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("denies unknown users", func(t *testing.T) {
		b, api, store := newTestBot(t)
		b.handleUpdate(ctx, tgbotapi.Update{Message: makeMsg(2, "add", "about About")})
		requireContains(t, api.lastText(), "Access denied.")
		pages, _ := store.ListPages(ctx)
		if diff := cmp.Diff(0, len(pages)); diff != "" {
			t.Errorf("page count (-want +got):\n%s", diff)
		}
	})

	t.Run("ignores plain text", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 1},
			Chat: &tgbotapi.Chat{ID: 100},
			Text: "hello",
		}})
		if diff := cmp.Diff(0, api.count()); diff != "" {
			t.Errorf("expected no messages (-want +got):\n%s", diff)
		}
	})

	t.Run("ignores callbacks from unknown users", func(t *testing.T) {
		b, api, store := newTestBot(t)
		seedPage(t, store, "about", "About")
		b.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: 2},
			Data:    "delete:1",
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}},
		}})
		if diff := cmp.Diff(0, api.count()); diff != "" {
			t.Errorf("expected no messages (-want +got):\n%s", diff)
		}
		if _, err := store.GetPage(ctx, 1); err != nil {
			t.Errorf("page should survive, err = %v", err)
		}
	})
}

func TestHandleCommand(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedPage(t, store, "about", "About")

	cmds := []struct {
		cmd      string
		args     string
		contains string
	}{
		{"start", "", "Welcome"},
		{"help", "", "/block"},
		{"pages", "", "#1 About"},
		{"page", "1", "URL: /about/"},
		{"rename", "1 Company", "renamed"},
		{"from", "1 2024-02-01", "01.02"},
		{"until", "1 never", "∞"},
		{"parent", "1 none", "top-level"},
		{"hide", "1", "hidden"},
		{"show", "1", "visible"},
		{"block", `1 main markup {"content":"*hi*"}`, "Block B1 (markup)"},
		{"rmblock", "1", "removed"},
		{"snip", "greeting Hello", "S1"},
		{"snips", "", "greeting"},
		{"import", "", "No news feed"},
		{"unknown_cmd", "", "Unknown command"},
	}

	for _, tc := range cmds {
		api.reset()
		b.handleUpdate(ctx, tgbotapi.Update{Message: makeMsg(1, tc.cmd, tc.args)})
		requireContains(t, api.lastText(), tc.contains)
	}
}

func TestRemoveFlow(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t)
	seedPage(t, store, "about", "About")
	b.handleBlock(ctx, 100, `1 main richtext {"text":"a"}`)

	b.handleCommand(ctx, makeMsg(1, "remove", "1"))
	got := api.last()
	requireContains(t, got.Text, `Delete #1 "About"`)
	if !got.Keyboard {
		t.Error("confirmation should carry an inline keyboard")
	}
	if _, err := store.GetPage(ctx, 1); err != nil {
		t.Fatalf("page should not be deleted before confirmation: %v", err)
	}

	cb := func(data string) *tgbotapi.CallbackQuery {
		return &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: 1},
			Data:    data,
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}},
		}
	}

	api.reset()
	b.handleCallback(ctx, cb("noop:0"))
	if diff := cmp.Diff(0, api.count()); diff != "" {
		t.Errorf("cancel should send nothing (-want +got):\n%s", diff)
	}

	b.handleCallback(ctx, cb("page:1"))
	requireContains(t, api.lastText(), "#1 About [live]")

	b.handleCallback(ctx, cb("delete_confirm:1"))
	requireContains(t, api.lastText(), "cannot be undone")

	b.handleCallback(ctx, cb("delete:1"))
	requireContains(t, api.lastText(), `Page #1 "About" deleted.`)
	if _, err := store.GetPage(ctx, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("page should be gone, err = %v", err)
	}
	blocks, _ := store.ListBlocks(ctx, 1)
	if diff := cmp.Diff(0, len(blocks)); diff != "" {
		t.Errorf("blocks should be deleted (-want +got):\n%s", diff)
	}

	b.handleCallback(ctx, cb("page:1"))
	requireContains(t, api.lastText(), "Page #1 not found.")

	api.reset()
	b.handleCallback(ctx, cb("nocolon"))
	b.handleCallback(ctx, cb("delete:abc"))
	if diff := cmp.Diff(0, api.count()); diff != "" {
		t.Errorf("malformed callbacks should send nothing (-want +got):\n%s", diff)
	}
}
