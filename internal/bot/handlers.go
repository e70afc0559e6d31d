package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"website/internal/datepublisher"
	"website/internal/model"
	"website/internal/storage"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to the website admin console!

Manage pages, their publication window and their content.

Quick start:
1. /add <slug> <title> — create a page
2. /block <id> main richtext {"text":"<p>Hello</p>"} — add content
3. /from <id> <date> and /until <id> <date> — schedule it

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Pages:
/pages — list all pages
/page <id> — page details and content
/add <slug> <title> — create a page
/rename <id> <title> — change the title
/from <id> <date> — publish from date
/until <id> <date|never> — publish until date
/parent <id> <parent_id|none> — inherit sidebar content from a parent
/hide <id> — take a page offline
/show <id> — make a page visible
/remove <id> — delete a page

Content:
/block <id> <region> <type> <json> — add a content block
/rmblock <block_id> — remove a content block
/snip <name> <text> — add a wiki snippet
/snips — list wiki snippets

News:
/import — import the news feed now

Dates: YYYY-MM-DD or YYYY-MM-DD HH:MM`)
}

// getPage loads a page and replies on failure.
func (b *Bot) getPage(ctx context.Context, chatID, id int64) (*model.Page, bool) {
	p, err := b.store.GetPage(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Page #%d not found.", id))
		return nil, false
	}
	if err != nil {
		b.log.Error("get page", "page_id", id, "error", err)
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return nil, false
	}
	return p, true
}

// savePage validates and stores p, then replies with done.
func (b *Bot) savePage(ctx context.Context, chatID int64, p *model.Page, done string) {
	if err := ValidatePage(p); err != nil {
		b.reply(chatID, fmt.Sprintf("Invalid page: %v", err))
		return
	}
	if err := b.store.UpdatePage(ctx, p); err != nil {
		b.log.Error("update page", "page_id", p.ID, "error", err)
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.log.Info("page updated", "page_id", p.ID)
	b.reply(chatID, done)
}

func (b *Bot) handlePages(ctx context.Context, chatID int64) {
	pages, err := b.store.ListPages(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	var markup any
	if len(pages) > 0 {
		markup = pageListKeyboard(pages)
	}
	b.sendHTML(chatID, FormatPageList(b.reg.Admin(), pages), markup)
}

func (b *Bot) handlePage(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /page <id>")
		return
	}
	p, ok := b.getPage(ctx, chatID, id)
	if !ok {
		return
	}
	blocks, err := b.store.ListBlocks(ctx, p.ID)
	if err != nil {
		b.log.Error("list blocks", "page_id", p.ID, "error", err)
	}
	b.reply(chatID, FormatPageInfo(p, blocks, b.now()))
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) {
	parsed, err := ParseAddArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	p := &model.Page{Title: parsed.Title, Slug: parsed.Slug, Active: true}
	b.reg.ApplyDefaults(p, b.now())
	if err := ValidatePage(p); err != nil {
		b.reply(chatID, fmt.Sprintf("Invalid page: %v", err))
		return
	}
	if _, err := b.store.GetPageBySlug(ctx, p.Slug); err == nil {
		b.reply(chatID, fmt.Sprintf("A page with slug %q already exists.", p.Slug))
		return
	}
	if err := b.store.CreatePage(ctx, p); err != nil {
		b.log.Error("create page", "slug", p.Slug, "error", err)
		b.reply(chatID, fmt.Sprintf("Failed to save page: %v", err))
		return
	}

	b.log.Info("page created", "page_id", p.ID, "slug", p.Slug)
	b.reply(chatID, fmt.Sprintf("Page created!\n#%d %s\nURL: /%s/\nNo content yet. Use /block %d <region> <type> <json> to add some.",
		p.ID, p.Title, p.Slug, p.ID))
}

func (b *Bot) handleRename(ctx context.Context, chatID int64, args string) {
	id, title, err := ParseTextArgs(args, "/rename <id> <title>")
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	p, ok := b.getPage(ctx, chatID, id)
	if !ok {
		return
	}
	p.Title = title
	b.savePage(ctx, chatID, p, fmt.Sprintf("Page #%d renamed to %q.", id, title))
}

func (b *Bot) handleFrom(ctx context.Context, chatID int64, args string) {
	id, date, err := ParseWindowArgs(args, b.loc, false)
	if err != nil {
		b.reply(chatID, "Usage: /from <id> <date>\n"+err.Error())
		return
	}
	p, ok := b.getPage(ctx, chatID, id)
	if !ok {
		return
	}
	p.PublicationDate = *date
	b.savePage(ctx, chatID, p, fmt.Sprintf("Page #%d is published %s.", id, datepublisher.FormatWindow(p, b.now())))
}

func (b *Bot) handleUntil(ctx context.Context, chatID int64, args string) {
	id, date, err := ParseWindowArgs(args, b.loc, true)
	if err != nil {
		b.reply(chatID, "Usage: /until <id> <date|never>\n"+err.Error())
		return
	}
	p, ok := b.getPage(ctx, chatID, id)
	if !ok {
		return
	}
	p.PublicationEndDate = date
	b.savePage(ctx, chatID, p, fmt.Sprintf("Page #%d is published %s.", id, datepublisher.FormatWindow(p, b.now())))
}

func (b *Bot) handleParent(ctx context.Context, chatID int64, args string) {
	id, parentID, err := ParseParentArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	p, ok := b.getPage(ctx, chatID, id)
	if !ok {
		return
	}
	if parentID == nil {
		p.ParentID = nil
		b.savePage(ctx, chatID, p, fmt.Sprintf("Page #%d is now a top-level page.", id))
		return
	}
	if *parentID == id {
		b.reply(chatID, "A page cannot be its own parent.")
		return
	}
	parent, ok := b.getPage(ctx, chatID, *parentID)
	if !ok {
		return
	}
	cycle, err := b.isAncestor(ctx, id, parent)
	if err != nil {
		b.log.Error("walk ancestors", "page_id", parent.ID, "error", err)
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if cycle {
		b.reply(chatID, fmt.Sprintf("Page #%d is below #%d, making it the parent would create a cycle.", parent.ID, id))
		return
	}
	p.ParentID = &parent.ID
	b.savePage(ctx, chatID, p, fmt.Sprintf("Page #%d now inherits from #%d %q.", id, parent.ID, parent.Title))
}

// isAncestor reports whether the page with the given id is p or one of
// its ancestors.
func (b *Bot) isAncestor(ctx context.Context, id int64, p *model.Page) (bool, error) {
	seen := map[int64]bool{}
	for p != nil && !seen[p.ID] {
		if p.ID == id {
			return true, nil
		}
		seen[p.ID] = true
		if p.ParentID == nil {
			return false, nil
		}
		next, err := b.store.GetPage(ctx, *p.ParentID)
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		p = next
	}
	return false, nil
}

func (b *Bot) handleVisibility(ctx context.Context, chatID int64, args string, visible bool) {
	id, err := ParseIDArg(args)
	if err != nil {
		if visible {
			b.reply(chatID, "Usage: /show <id>")
		} else {
			b.reply(chatID, "Usage: /hide <id>")
		}
		return
	}
	p, ok := b.getPage(ctx, chatID, id)
	if !ok {
		return
	}
	p.Active = visible
	state := "hidden"
	if visible {
		state = "visible"
	}
	b.savePage(ctx, chatID, p, fmt.Sprintf("Page #%d %q is now %s.", id, p.Title, state))
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /remove <id>")
		return
	}
	p, ok := b.getPage(ctx, chatID, id)
	if !ok {
		return
	}
	if err := b.store.DeletePage(ctx, id); err != nil {
		b.log.Error("delete page", "page_id", id, "error", err)
		b.reply(chatID, fmt.Sprintf("Error deleting page: %v", err))
		return
	}
	b.log.Info("page deleted", "page_id", id)
	b.reply(chatID, fmt.Sprintf("Page #%d %q deleted.", id, p.Title))
}

func (b *Bot) handleBlock(ctx context.Context, chatID int64, args string) {
	parsed, err := ParseBlockArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	p, ok := b.getPage(ctx, chatID, parsed.PageID)
	if !ok {
		return
	}
	tmpl, ok := b.reg.Template(p.TemplateKey)
	if !ok {
		b.reply(chatID, fmt.Sprintf("Page #%d uses unknown template %q.", p.ID, p.TemplateKey))
		return
	}

	existing, err := b.store.ListBlocks(ctx, p.ID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	ordering := 0
	for _, bl := range existing {
		if bl.Region == parsed.Region && bl.Ordering >= ordering {
			ordering = bl.Ordering + 1
		}
	}

	block := &model.ContentBlock{
		PageID:   p.ID,
		Region:   parsed.Region,
		Ordering: ordering,
		Type:     parsed.Type,
		Data:     parsed.Data,
	}
	if _, err := b.reg.Block(tmpl, *block); err != nil {
		b.reply(chatID, fmt.Sprintf("Invalid block: %v", err))
		return
	}
	if err := b.store.CreateBlock(ctx, block); err != nil {
		b.log.Error("create block", "page_id", p.ID, "error", err)
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.log.Info("block created", "page_id", p.ID, "block_id", block.ID, "type", block.Type)
	b.reply(chatID, fmt.Sprintf("Block B%d (%s) added to %s of #%d.", block.ID, block.Type, block.Region, p.ID))
}

func (b *Bot) handleRmBlock(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /rmblock <block_id>")
		return
	}
	err = b.store.DeleteBlock(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Block B%d not found.", id))
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Block B%d removed.", id))
}

func (b *Bot) handleSnip(ctx context.Context, chatID int64, args string) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		b.reply(chatID, "Usage: /snip <name> <text>")
		return
	}
	s := &model.WikiSnip{Name: parts[0], Body: strings.TrimSpace(parts[1])}
	if err := b.store.CreateSnip(ctx, s); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Wiki snippet S%d %q saved. Embed it with {\"snip_id\":%d}.", s.ID, s.Name, s.ID))
}

func (b *Bot) handleSnips(ctx context.Context, chatID int64) {
	snips, err := b.store.ListSnips(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatSnipList(snips))
}

func (b *Bot) handleImport(ctx context.Context, chatID int64) {
	if b.importer == nil {
		b.reply(chatID, "No news feed is configured.")
		return
	}
	created, err := b.importer.Import(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Import failed: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Imported %d new news entr%s.", created, pluralY(created)))
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
