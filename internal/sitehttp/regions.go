package sitehttp

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"website/internal/model"
	"website/internal/page"
	"website/internal/storage"
)

// RenderedRegion is the HTML of one template region.
type RenderedRegion struct {
	Key   string
	Title string
	HTML  template.HTML
	// From is the page the blocks were taken from. It differs from the
	// rendered page when the region is inherited.
	From int64
}

// RenderRegions renders every region of tmpl for p. An inherited region
// without blocks of its own shows the blocks of the nearest ancestor that
// has some. A block that fails to decode or render is logged and skipped.
func (s *Site) RenderRegions(ctx context.Context, p *model.Page, tmpl page.Template) ([]RenderedRegion, error) {
	own, err := s.blocksByRegion(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	out := make([]RenderedRegion, 0, len(tmpl.Regions))
	for _, region := range tmpl.Regions {
		blocks, from := own[region.Key], p.ID
		if len(blocks) == 0 && region.Inherited {
			blocks, from, err = s.inheritedBlocks(ctx, p, region.Key)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, RenderedRegion{
			Key:   region.Key,
			Title: region.Title,
			HTML:  s.renderBlocks(ctx, tmpl, blocks),
			From:  from,
		})
	}
	return out, nil
}

// inheritedBlocks walks up the parents of p until one has blocks in region.
func (s *Site) inheritedBlocks(ctx context.Context, p *model.Page, region string) ([]model.ContentBlock, int64, error) {
	seen := map[int64]bool{p.ID: true}
	parentID := p.ParentID
	for parentID != nil && !seen[*parentID] {
		seen[*parentID] = true
		parent, err := s.store.GetPage(ctx, *parentID)
		if errors.Is(err, storage.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("get parent %d: %w", *parentID, err)
		}
		byRegion, err := s.blocksByRegion(ctx, parent.ID)
		if err != nil {
			return nil, 0, err
		}
		if blocks := byRegion[region]; len(blocks) > 0 {
			return blocks, parent.ID, nil
		}
		parentID = parent.ParentID
	}
	return nil, p.ID, nil
}

func (s *Site) blocksByRegion(ctx context.Context, pageID int64) (map[string][]model.ContentBlock, error) {
	blocks, err := s.store.ListBlocks(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("list blocks of page %d: %w", pageID, err)
	}
	out := make(map[string][]model.ContentBlock)
	for _, b := range blocks {
		out[b.Region] = append(out[b.Region], b)
	}
	return out, nil
}

func (s *Site) renderBlocks(ctx context.Context, tmpl page.Template, blocks []model.ContentBlock) template.HTML {
	var b strings.Builder
	for _, block := range blocks {
		r, err := s.reg.Block(tmpl, block)
		if err != nil {
			s.log.Warn("skip invalid block", "block_id", block.ID, "type", block.Type, "error", err)
			continue
		}
		html, err := r.Render(ctx)
		if err != nil {
			s.log.Warn("skip failing block", "block_id", block.ID, "type", block.Type, "error", err)
			continue
		}
		b.WriteString(string(html))
	}
	return template.HTML(b.String()) //nolint:gosec // blocks render sanitized HTML
}
