// Package editor serializes and authorizes page mutations. All block
// writes flow through the Engine: it checks access, takes the page's
// writer lock with a bounded wait, applies the structural change through
// the blocks layer, and publishes a change record before the lock is
// released. That last point is the ordering guarantee collaborators rely
// on: records observed for a page match the order the mutations committed.
package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/notebase/notebase/pkg/blocks"
	"github.com/notebase/notebase/pkg/models"
	"github.com/notebase/notebase/pkg/store"
)

// DefaultLockWait bounds how long a mutation waits for a contended page
// before failing with ErrBusy.
const DefaultLockWait = 2 * time.Second

type Engine struct {
	blocks   *blocks.Store
	auth     Authorizer
	pub      Publisher
	locks    *pageLocks
	lockWait time.Duration
	log      zerolog.Logger
}

func New(bs *blocks.Store, auth Authorizer, pub Publisher, log zerolog.Logger) *Engine {
	return &Engine{
		blocks:   bs,
		auth:     auth,
		pub:      pub,
		locks:    newPageLocks(),
		lockWait: DefaultLockWait,
		log:      log,
	}
}

// SetLockWait overrides the writer-lock wait bound.
func (e *Engine) SetLockWait(d time.Duration) { e.lockWait = d }

// GetPageTree returns the assembled block forest for readers. Reads take
// no lock; they see whichever committed state the store serves.
func (e *Engine) GetPageTree(ctx context.Context, actor models.UserID, pageID models.PageID) ([]*blocks.Node, error) {
	if err := e.requireRead(ctx, actor, pageID); err != nil {
		return nil, err
	}
	return e.blocks.GetTree(ctx, pageID)
}

// InsertBlock validates the payload against the block type and places the
// block after the given sibling, or at the end of its group.
func (e *Engine) InsertBlock(ctx context.Context, actor models.UserID, block *models.Block, after *models.BlockID) (*models.Block, error) {
	if err := e.requireWrite(ctx, actor, block.PageID); err != nil {
		return nil, err
	}
	if err := models.ValidateBlockContent(block.Type, block.Content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	block.CreatedBy = actor

	if err := e.locks.acquire(ctx, block.PageID, e.lockWait); err != nil {
		return nil, err
	}
	defer e.locks.release(block.PageID)

	inserted, err := e.blocks.Insert(ctx, block, after)
	if err != nil {
		return nil, err
	}
	e.publish(ctx, ChangeRecord{
		Op:      OpInsert,
		PageID:  inserted.PageID,
		BlockID: inserted.ID,
		ActorID: actor,
		Payload: blockPayload(inserted),
	})
	return inserted, nil
}

// UpdateBlockContent replaces the block's type and payload. Concurrent
// updates to the same block resolve last-writer-wins in lock order.
func (e *Engine) UpdateBlockContent(ctx context.Context, actor models.UserID, pageID models.PageID, blockID models.BlockID, typ models.BlockType, content models.JSONMap) (*models.Block, error) {
	if err := e.requireWrite(ctx, actor, pageID); err != nil {
		return nil, err
	}
	if err := models.ValidateBlockContent(typ, content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	if err := e.locks.acquire(ctx, pageID, e.lockWait); err != nil {
		return nil, err
	}
	defer e.locks.release(pageID)

	updated, err := e.blocks.UpdateContent(ctx, pageID, blockID, typ, content)
	if err != nil {
		return nil, err
	}
	e.publish(ctx, ChangeRecord{
		Op:      OpUpdateContent,
		PageID:  pageID,
		BlockID: blockID,
		ActorID: actor,
		Payload: models.JSONMap{"type": string(typ), "content": map[string]any(content)},
	})
	return updated, nil
}

// DeleteBlock removes the block and its subtree. Deleting a block that is
// already gone succeeds with no record published.
func (e *Engine) DeleteBlock(ctx context.Context, actor models.UserID, pageID models.PageID, blockID models.BlockID) ([]models.BlockID, error) {
	if err := e.requireWrite(ctx, actor, pageID); err != nil {
		return nil, err
	}
	if err := e.locks.acquire(ctx, pageID, e.lockWait); err != nil {
		return nil, err
	}
	defer e.locks.release(pageID)

	deleted, err := e.blocks.Remove(ctx, pageID, blockID)
	if err != nil {
		return nil, err
	}
	if len(deleted) == 0 {
		return nil, nil
	}
	e.publish(ctx, ChangeRecord{
		Op:      OpDelete,
		PageID:  pageID,
		BlockID: blockID,
		ActorID: actor,
		Deleted: deleted,
	})
	return deleted, nil
}

// ReparentBlock moves the block under a new parent, after the given
// sibling or at the group end.
func (e *Engine) ReparentBlock(ctx context.Context, actor models.UserID, pageID models.PageID, blockID models.BlockID, newParent, after *models.BlockID) (*models.Block, error) {
	if err := e.requireWrite(ctx, actor, pageID); err != nil {
		return nil, err
	}
	if err := e.locks.acquire(ctx, pageID, e.lockWait); err != nil {
		return nil, err
	}
	defer e.locks.release(pageID)

	moved, err := e.blocks.Reparent(ctx, pageID, blockID, newParent, after)
	if err != nil {
		return nil, err
	}
	payload := models.JSONMap{"order": moved.Order}
	if moved.ParentBlockID != nil {
		payload["parent_block_id"] = moved.ParentBlockID.String()
	}
	e.publish(ctx, ChangeRecord{
		Op:      OpReparent,
		PageID:  pageID,
		BlockID: blockID,
		ActorID: actor,
		Payload: payload,
	})
	return moved, nil
}

// ReorderBlocks applies a batch of sibling order changes atomically.
func (e *Engine) ReorderBlocks(ctx context.Context, actor models.UserID, pageID models.PageID, updates []store.BlockOrder) error {
	if err := e.requireWrite(ctx, actor, pageID); err != nil {
		return err
	}
	if err := e.locks.acquire(ctx, pageID, e.lockWait); err != nil {
		return err
	}
	defer e.locks.release(pageID)

	if err := e.blocks.ReorderSiblings(ctx, pageID, updates); err != nil {
		return err
	}
	orders := make([]any, 0, len(updates))
	for _, u := range updates {
		orders = append(orders, map[string]any{"id": u.BlockID.String(), "order": u.Order})
	}
	e.publish(ctx, ChangeRecord{
		Op:      OpReorder,
		PageID:  pageID,
		ActorID: actor,
		Payload: models.JSONMap{"orders": orders},
	})
	return nil
}

// SaveTree persists a client-rebuilt forest for the page in one pass.
// Order keys and parent links are re-derived from the tree shape, so an
// edit that moves blocks across several parents commits as one mutation
// and one change record.
func (e *Engine) SaveTree(ctx context.Context, actor models.UserID, pageID models.PageID, forest []*blocks.Node) error {
	if err := e.requireWrite(ctx, actor, pageID); err != nil {
		return err
	}
	if err := e.locks.acquire(ctx, pageID, e.lockWait); err != nil {
		return err
	}
	defer e.locks.release(pageID)

	if err := e.blocks.SaveFlattened(ctx, pageID, forest); err != nil {
		return err
	}
	placed := []any{}
	for _, b := range blocks.Flatten(forest) {
		entry := map[string]any{"id": b.ID.String(), "order": b.Order}
		if b.ParentBlockID != nil {
			entry["parent_block_id"] = b.ParentBlockID.String()
		}
		placed = append(placed, entry)
	}
	e.publish(ctx, ChangeRecord{
		Op:      OpSaveTree,
		PageID:  pageID,
		ActorID: actor,
		Payload: models.JSONMap{"blocks": placed},
	})
	return nil
}

func (e *Engine) requireRead(ctx context.Context, actor models.UserID, pageID models.PageID) error {
	ok, err := e.auth.CanRead(ctx, actor, pageID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s read page %s: %w", actor, pageID, ErrAccessDenied)
	}
	return nil
}

func (e *Engine) requireWrite(ctx context.Context, actor models.UserID, pageID models.PageID) error {
	ok, err := e.auth.CanWrite(ctx, actor, pageID)
	if err != nil {
		return err
	}
	if !ok {
		e.log.Warn().
			Str("user", actor.String()).
			Str("page", pageID.String()).
			Msg("write denied")
		return fmt.Errorf("user %s write page %s: %w", actor, pageID, ErrAccessDenied)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, rec ChangeRecord) {
	rec.Timestamp = time.Now().UTC()
	e.log.Debug().
		Str("op", string(rec.Op)).
		Str("page", rec.PageID.String()).
		Str("block", rec.BlockID.String()).
		Msg("change committed")
	if e.pub != nil {
		e.pub.Publish(ctx, rec)
	}
}

func blockPayload(b *models.Block) models.JSONMap {
	p := models.JSONMap{
		"type":    string(b.Type),
		"content": map[string]any(b.Content),
		"order":   b.Order,
	}
	if b.ParentBlockID != nil {
		p["parent_block_id"] = b.ParentBlockID.String()
	}
	return p
}
