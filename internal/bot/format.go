package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"website/internal/admin"
	"website/internal/datepublisher"
	"website/internal/model"
)

const (
	statusLive    = "live"
	statusOffline = "offline"
)

// FormatPageList renders the admin page list as Telegram HTML: one line
// per page with the cells of the configured list display.
func FormatPageList(a *admin.ModelAdmin, pages []model.Page) string {
	if len(pages) == 0 {
		return "There are no pages yet. Use /add &lt;slug&gt; &lt;title&gt; to create one."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Pages</b>\n<i>%s</i>\n", html.EscapeString(strings.Join(a.Header(), " | ")))
	for i := range pages {
		fmt.Fprintf(&b, "\n#%d %s", pages[i].ID, strings.Join(a.Row(&pages[i]), " | "))
	}
	return b.String()
}

// FormatPageInfo formats detailed information about a single page.
func FormatPageInfo(p *model.Page, blocks []model.ContentBlock, now time.Time) string {
	var b strings.Builder
	status := statusOffline
	if p.Active && datepublisher.PageIsActive(p, now) {
		status = statusLive
	}
	fmt.Fprintf(&b, "#%d %s [%s]\n", p.ID, p.Title, status)
	fmt.Fprintf(&b, "URL: /%s/\n", p.Slug)
	fmt.Fprintf(&b, "Template: %s\n", p.TemplateKey)
	if p.ParentID != nil {
		fmt.Fprintf(&b, "Parent: #%d\n", *p.ParentID)
	}
	visible := "no"
	if p.Active {
		visible = "yes"
	}
	fmt.Fprintf(&b, "Visible: %s\n", visible)
	fmt.Fprintf(&b, "Published: %s\n", datepublisher.FormatWindow(p, now))
	b.WriteString("\n")
	b.WriteString(FormatBlockList(p, blocks))
	return b.String()
}

// FormatBlockList formats the content blocks of a page grouped by region.
func FormatBlockList(p *model.Page, blocks []model.ContentBlock) string {
	if len(blocks) == 0 {
		return fmt.Sprintf("No content on #%d yet.\nUse /block %d <region> <type> <json> to add some.", p.ID, p.ID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Content of #%d:\n", p.ID)
	region := ""
	for _, bl := range blocks {
		if bl.Region != region {
			region = bl.Region
			fmt.Fprintf(&b, "\n%s:\n", region)
		}
		fmt.Fprintf(&b, "  B%d: %s %s\n", bl.ID, bl.Type, summarize(string(bl.Data), 60))
	}
	return b.String()
}

// FormatSnipList formats wiki snippets for display.
func FormatSnipList(snips []model.WikiSnip) string {
	if len(snips) == 0 {
		return "There are no wiki snippets yet. Use /snip <name> <text> to add one."
	}
	var b strings.Builder
	b.WriteString("Wiki snippets:\n")
	for _, s := range snips {
		fmt.Fprintf(&b, "\nS%d %s: %s", s.ID, s.Name, summarize(s.Body, 60))
	}
	return b.String()
}

func summarize(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
