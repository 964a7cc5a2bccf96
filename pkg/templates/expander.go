package templates

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/notebase/notebase/pkg/blocks"
	"github.com/notebase/notebase/pkg/editor"
	"github.com/notebase/notebase/pkg/models"
)

// Expander stamps templates onto pages through the editor engine, so every
// materialized block is authorized, ordered, and broadcast like any other
// insert.
type Expander struct {
	catalog Catalog
	engine  *editor.Engine
	log     zerolog.Logger
}

func NewExpander(catalog Catalog, engine *editor.Engine, log zerolog.Logger) *Expander {
	return &Expander{catalog: catalog, engine: engine, log: log}
}

// Expand materializes the template's scaffold as fresh blocks appended
// under parent (nil for top level). Every expansion mints new block ids,
// so repeated expansions of one template coexist on a page.
//
// Expansion is not atomic across blocks; on failure the roots inserted so
// far are removed again, which cascades over any children already placed.
func (e *Expander) Expand(ctx context.Context, actor models.UserID, pageID models.PageID, templateID string, parent *models.BlockID) ([]*models.Block, error) {
	tpl, ok := e.catalog.Get(templateID)
	if !ok {
		return nil, fmt.Errorf("template %q: %w", templateID, blocks.ErrNotFound)
	}

	inserted := []*models.Block{}
	roots := []models.BlockID{}

	var place func(tb TemplateBlock, parent *models.BlockID, isRoot bool) error
	place = func(tb TemplateBlock, parent *models.BlockID, isRoot bool) error {
		b, err := e.engine.InsertBlock(ctx, actor, &models.Block{
			PageID:        pageID,
			Type:          tb.Type,
			Content:       tb.Content,
			ParentBlockID: parent,
		}, nil)
		if err != nil {
			return err
		}
		inserted = append(inserted, b)
		if isRoot {
			roots = append(roots, b.ID)
		}
		for _, child := range tb.Children {
			if err := place(child, &b.ID, false); err != nil {
				return err
			}
		}
		return nil
	}

	for _, tb := range tpl.Blocks {
		if err := place(tb, parent, true); err != nil {
			e.rollback(ctx, actor, pageID, roots)
			return nil, fmt.Errorf("expand template %q: %w", templateID, err)
		}
	}

	e.log.Info().
		Str("template", templateID).
		Str("page", pageID.String()).
		Int("blocks", len(inserted)).
		Msg("template expanded")
	return inserted, nil
}

// rollback removes the roots placed before a failure. Each delete cascades
// over the root's subtree; a root that is somehow gone already is skipped
// by the delete's idempotency.
func (e *Expander) rollback(ctx context.Context, actor models.UserID, pageID models.PageID, roots []models.BlockID) {
	for _, id := range roots {
		if _, err := e.engine.DeleteBlock(ctx, actor, pageID, id); err != nil {
			e.log.Error().Err(err).
				Str("page", pageID.String()).
				Str("block", id.String()).
				Msg("template rollback failed")
		}
	}
}
