// Package blocks is the tree-integrity layer of the notebase core: the
// authoritative view of a page's blocks with ordering and parent/child
// links guaranteed.
//
// Every structural rule lives here, enforced at write time:
//
//   - a non-nil parent must exist and belong to the same page,
//   - the parent/child relation is a forest (cycles rejected on reparent),
//   - sibling order keys are gap-based and unique only within the sibling
//     group, ties broken by creation time,
//   - removing a block cascades over its whole subtree and is idempotent.
//
// The package does not serialize writers or check access; that is the
// editor package's job. Callers must not write through the row store
// directly.
package blocks

import (
	"context"
	"fmt"

	"github.com/notebase/notebase/pkg/models"
	"github.com/notebase/notebase/pkg/store"
)

// Store serves reads and structural writes for page block trees on top of
// the row-level persistence collaborator.
type Store struct {
	rows store.Store
}

// NewStore wraps the row store.
func NewStore(rows store.Store) *Store {
	return &Store{rows: rows}
}

// GetTree returns the ordered forest of the page. The write-time invariants
// guarantee the result is cycle-free; no query-time cycle detection is done.
func (s *Store) GetTree(ctx context.Context, pageID models.PageID) ([]*Node, error) {
	page, err := s.rows.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, fmt.Errorf("page %s: %w", pageID, ErrNotFound)
	}
	flat, err := s.rows.ListBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return Assemble(flat), nil
}

// Insert stores a new block, placing it immediately after the sibling
// identified by after, or at the end of its sibling group when after is
// nil. The target page and the parent (when set) must resolve.
func (s *Store) Insert(ctx context.Context, block *models.Block, after *models.BlockID) (*models.Block, error) {
	page, err := s.rows.GetPage(ctx, block.PageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, fmt.Errorf("page %s: %w", block.PageID, ErrNotFound)
	}

	flat, err := s.rows.ListBlocks(ctx, block.PageID)
	if err != nil {
		return nil, err
	}
	byID := indexBlocks(flat)

	if block.ParentBlockID != nil {
		parent, ok := byID[*block.ParentBlockID]
		if !ok {
			return nil, fmt.Errorf("parent block %s: %w", *block.ParentBlockID, ErrNotFound)
		}
		if parent.PageID != block.PageID {
			return nil, fmt.Errorf("parent block %s is on another page: %w", parent.ID, ErrNotFound)
		}
	}

	var afterBlock *models.Block
	if after != nil {
		b, ok := byID[*after]
		if !ok || !sameParent(b.ParentBlockID, block.ParentBlockID) {
			return nil, fmt.Errorf("sibling block %s: %w", *after, ErrNotFound)
		}
		afterBlock = b
	}

	siblings := siblingsOf(flat, block.ParentBlockID, models.BlockID{})
	order, batch := orderAfter(siblings, afterBlock)
	if batch != nil {
		if err := s.rows.UpdateBlockOrders(ctx, block.PageID, batch); err != nil {
			return nil, err
		}
	}
	block.Order = order

	if err := s.rows.CreateBlock(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// UpdateContent replaces a block's payload, and its type when changed.
// Order and parent are never touched here.
func (s *Store) UpdateContent(ctx context.Context, pageID models.PageID, blockID models.BlockID, typ models.BlockType, content models.JSONMap) (*models.Block, error) {
	block, err := s.getPageBlock(ctx, pageID, blockID)
	if err != nil {
		return nil, err
	}
	block.Type = typ
	block.Content = content
	if err := s.rows.UpdateBlock(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// Reparent moves a block under a new parent (nil for top level), placed
// after the given sibling or at the group end. The destination must not be
// the block itself or any of its descendants.
func (s *Store) Reparent(ctx context.Context, pageID models.PageID, blockID models.BlockID, newParent *models.BlockID, after *models.BlockID) (*models.Block, error) {
	flat, err := s.rows.ListBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}
	byID := indexBlocks(flat)

	block, ok := byID[blockID]
	if !ok {
		return nil, fmt.Errorf("block %s: %w", blockID, ErrNotFound)
	}

	if newParent != nil {
		parent, ok := byID[*newParent]
		if !ok {
			return nil, fmt.Errorf("parent block %s: %w", *newParent, ErrNotFound)
		}
		if wouldCycle(byID, blockID, parent) {
			return nil, fmt.Errorf("block %s under %s: %w", blockID, *newParent, ErrCycle)
		}
	}

	var afterBlock *models.Block
	if after != nil {
		b, ok := byID[*after]
		if !ok || !sameParent(b.ParentBlockID, newParent) {
			return nil, fmt.Errorf("sibling block %s: %w", *after, ErrNotFound)
		}
		afterBlock = b
	}

	siblings := siblingsOf(flat, newParent, blockID)
	order, batch := orderAfter(siblings, afterBlock)
	if batch != nil {
		if err := s.rows.UpdateBlockOrders(ctx, pageID, batch); err != nil {
			return nil, err
		}
	}

	block.ParentBlockID = newParent
	block.Order = order
	if err := s.rows.UpdateBlock(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// Remove deletes the block and its entire subtree in one batch and returns
// the removed ids, parents before children. Removing an id that is already
// gone is a no-op: duplicate delete messages from concurrent clients must
// not fail.
func (s *Store) Remove(ctx context.Context, pageID models.PageID, blockID models.BlockID) ([]models.BlockID, error) {
	flat, err := s.rows.ListBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}
	byID := indexBlocks(flat)
	if _, ok := byID[blockID]; !ok {
		return nil, nil
	}

	children := make(map[models.BlockID][]models.BlockID, len(flat))
	for _, b := range flat {
		if b.ParentBlockID != nil {
			children[*b.ParentBlockID] = append(children[*b.ParentBlockID], b.ID)
		}
	}

	doomed := []models.BlockID{}
	var collect func(models.BlockID)
	collect = func(id models.BlockID) {
		doomed = append(doomed, id)
		for _, child := range children[id] {
			collect(child)
		}
	}
	collect(blockID)

	if err := s.rows.DeleteBlocks(ctx, doomed); err != nil {
		return nil, err
	}
	return doomed, nil
}

// ReorderSiblings applies a batch of order-key changes atomically. A single
// missing block fails the whole batch with no partial effect.
func (s *Store) ReorderSiblings(ctx context.Context, pageID models.PageID, updates []store.BlockOrder) error {
	flat, err := s.rows.ListBlocks(ctx, pageID)
	if err != nil {
		return err
	}
	byID := indexBlocks(flat)
	for _, u := range updates {
		if _, ok := byID[u.BlockID]; !ok {
			return fmt.Errorf("block %s: %w", u.BlockID, ErrNotFound)
		}
	}
	return s.rows.UpdateBlockOrders(ctx, pageID, updates)
}

// SaveFlattened persists a client-rebuilt forest for the page in one pass:
// order keys and parent links are re-derived from the tree shape and
// written as a single batch.
func (s *Store) SaveFlattened(ctx context.Context, pageID models.PageID, forest []*Node) error {
	flat := Flatten(forest)
	updates := make([]store.BlockOrder, 0, len(flat))
	for _, b := range flat {
		updates = append(updates, store.BlockOrder{BlockID: b.ID, Order: b.Order})
	}
	if err := s.ReorderSiblings(ctx, pageID, updates); err != nil {
		return err
	}
	// Parent links may have changed across groups; save any that moved.
	current, err := s.rows.ListBlocks(ctx, pageID)
	if err != nil {
		return err
	}
	byID := indexBlocks(current)
	for _, b := range flat {
		cur, ok := byID[b.ID]
		if !ok {
			return fmt.Errorf("block %s: %w", b.ID, ErrNotFound)
		}
		if !sameParent(cur.ParentBlockID, b.ParentBlockID) {
			cur.ParentBlockID = b.ParentBlockID
			if err := s.rows.UpdateBlock(ctx, cur); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) getPageBlock(ctx context.Context, pageID models.PageID, blockID models.BlockID) (*models.Block, error) {
	block, err := s.rows.GetBlock(ctx, blockID)
	if err != nil {
		return nil, err
	}
	if block == nil || block.PageID != pageID {
		return nil, fmt.Errorf("block %s: %w", blockID, ErrNotFound)
	}
	return block, nil
}

// wouldCycle walks the ancestor chain of the destination parent; hitting
// the moving block means the move would make it its own ancestor.
func wouldCycle(byID map[models.BlockID]*models.Block, moving models.BlockID, parent *models.Block) bool {
	for p := parent; p != nil; {
		if p.ID == moving {
			return true
		}
		if p.ParentBlockID == nil {
			return false
		}
		p = byID[*p.ParentBlockID]
	}
	return false
}

func indexBlocks(flat []*models.Block) map[models.BlockID]*models.Block {
	byID := make(map[models.BlockID]*models.Block, len(flat))
	for _, b := range flat {
		byID[b.ID] = b
	}
	return byID
}
