package editor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebase/notebase/pkg/blocks"
	"github.com/notebase/notebase/pkg/editor"
	"github.com/notebase/notebase/pkg/models"
	"github.com/notebase/notebase/pkg/store/memory"
)

type allowAll struct{}

func (allowAll) CanRead(context.Context, models.UserID, models.PageID) (bool, error) {
	return true, nil
}
func (allowAll) CanWrite(context.Context, models.UserID, models.PageID) (bool, error) {
	return true, nil
}

type readOnlyAuth struct{}

func (readOnlyAuth) CanRead(context.Context, models.UserID, models.PageID) (bool, error) {
	return true, nil
}
func (readOnlyAuth) CanWrite(context.Context, models.UserID, models.PageID) (bool, error) {
	return false, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	recs []editor.ChangeRecord
}

func (p *recordingPublisher) Publish(_ context.Context, rec editor.ChangeRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recs = append(p.recs, rec)
}

func (p *recordingPublisher) records() []editor.ChangeRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]editor.ChangeRecord, len(p.recs))
	copy(out, p.recs)
	return out
}

func newTestEngine(t *testing.T, auth editor.Authorizer) (context.Context, *editor.Engine, *recordingPublisher, models.PageID) {
	t.Helper()
	ctx := context.Background()
	rows := memory.New()
	page := &models.Page{Title: "Doc", WorkspaceID: models.NewWorkspaceID()}
	require.NoError(t, rows.CreatePage(ctx, page))
	pub := &recordingPublisher{}
	eng := editor.New(blocks.NewStore(rows), auth, pub, zerolog.Nop())
	return ctx, eng, pub, page.ID
}

func TestAccessDenied(t *testing.T) {
	ctx, eng, pub, pageID := newTestEngine(t, readOnlyAuth{})
	actor := models.NewUserID()

	_, err := eng.InsertBlock(ctx, actor, &models.Block{
		PageID:  pageID,
		Type:    models.BlockTypeText,
		Content: models.JSONMap{"text": "hi"},
	}, nil)
	assert.ErrorIs(t, err, editor.ErrAccessDenied)

	err = eng.SaveTree(ctx, actor, pageID, nil)
	assert.ErrorIs(t, err, editor.ErrAccessDenied)
	assert.Empty(t, pub.records(), "denied mutations publish nothing")

	_, err = eng.GetPageTree(ctx, actor, pageID)
	assert.NoError(t, err, "read access is independent of write access")
}

func TestInvalidContentRejected(t *testing.T) {
	ctx, eng, pub, pageID := newTestEngine(t, allowAll{})
	actor := models.NewUserID()

	_, err := eng.InsertBlock(ctx, actor, &models.Block{
		PageID:  pageID,
		Type:    models.BlockTypeHeading,
		Content: models.JSONMap{"text": "too deep", "level": float64(7)},
	}, nil)
	assert.ErrorIs(t, err, editor.ErrInvalidContent)
	assert.Empty(t, pub.records())
}

func TestLastWriterWins(t *testing.T) {
	ctx, eng, _, pageID := newTestEngine(t, allowAll{})
	actor := models.NewUserID()

	b, err := eng.InsertBlock(ctx, actor, &models.Block{
		PageID:  pageID,
		Type:    models.BlockTypeText,
		Content: models.JSONMap{"text": "v0"},
	}, nil)
	require.NoError(t, err)

	_, err = eng.UpdateBlockContent(ctx, actor, pageID, b.ID, models.BlockTypeText, models.JSONMap{"text": "v1"})
	require.NoError(t, err)
	updated, err := eng.UpdateBlockContent(ctx, actor, pageID, b.ID, models.BlockTypeText, models.JSONMap{"text": "v2"})
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Content["text"], "whole-payload replacement, last write wins")
}

func TestDeleteIdempotent(t *testing.T) {
	ctx, eng, pub, pageID := newTestEngine(t, allowAll{})
	actor := models.NewUserID()

	b, err := eng.InsertBlock(ctx, actor, &models.Block{
		PageID:  pageID,
		Type:    models.BlockTypeText,
		Content: models.JSONMap{"text": "bye"},
	}, nil)
	require.NoError(t, err)

	deleted, err := eng.DeleteBlock(ctx, actor, pageID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.BlockID{b.ID}, deleted)

	deleted, err = eng.DeleteBlock(ctx, actor, pageID, b.ID)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	var deletes int
	for _, rec := range pub.records() {
		if rec.Op == editor.OpDelete {
			deletes++
		}
	}
	assert.Equal(t, 1, deletes, "a repeated delete publishes no second record")
}

func TestChangeRecordOrdering(t *testing.T) {
	ctx, eng, pub, pageID := newTestEngine(t, allowAll{})
	actor := models.NewUserID()

	b, err := eng.InsertBlock(ctx, actor, &models.Block{
		PageID:  pageID,
		Type:    models.BlockTypeText,
		Content: models.JSONMap{"text": "one"},
	}, nil)
	require.NoError(t, err)
	_, err = eng.UpdateBlockContent(ctx, actor, pageID, b.ID, models.BlockTypeText, models.JSONMap{"text": "two"})
	require.NoError(t, err)
	_, err = eng.DeleteBlock(ctx, actor, pageID, b.ID)
	require.NoError(t, err)

	recs := pub.records()
	require.Len(t, recs, 3)
	assert.Equal(t, editor.OpInsert, recs[0].Op)
	assert.Equal(t, editor.OpUpdateContent, recs[1].Op)
	assert.Equal(t, editor.OpDelete, recs[2].Op)
	for _, rec := range recs {
		assert.Equal(t, pageID, rec.PageID)
		assert.Equal(t, actor, rec.ActorID)
		assert.False(t, rec.Timestamp.IsZero())
	}
}

// blockingPublisher parks the committing goroutine inside the page lock
// until released, so a second writer observes a held lock.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPublisher) Publish(context.Context, editor.ChangeRecord) {
	close(p.entered)
	<-p.release
}

func TestBusyOnContendedPage(t *testing.T) {
	ctx := context.Background()
	rows := memory.New()
	page := &models.Page{Title: "Doc", WorkspaceID: models.NewWorkspaceID()}
	require.NoError(t, rows.CreatePage(ctx, page))

	pub := &blockingPublisher{entered: make(chan struct{}), release: make(chan struct{})}
	eng := editor.New(blocks.NewStore(rows), allowAll{}, pub, zerolog.Nop())
	eng.SetLockWait(20 * time.Millisecond)

	actor := models.NewUserID()
	done := make(chan error, 1)
	go func() {
		_, err := eng.InsertBlock(ctx, actor, &models.Block{
			PageID:  page.ID,
			Type:    models.BlockTypeText,
			Content: models.JSONMap{"text": "holder"},
		}, nil)
		done <- err
	}()

	select {
	case <-pub.entered:
	case <-time.After(time.Second):
		t.Fatal("first writer never reached the publish stage")
	}

	_, err := eng.InsertBlock(ctx, actor, &models.Block{
		PageID:  page.ID,
		Type:    models.BlockTypeText,
		Content: models.JSONMap{"text": "blocked"},
	}, nil)
	assert.ErrorIs(t, err, editor.ErrBusy, "second writer times out while the lock is held")

	close(pub.release)
	require.NoError(t, <-done)
}

func TestReparentStaleReference(t *testing.T) {
	ctx, eng, pub, pageID := newTestEngine(t, allowAll{})
	actor := models.NewUserID()

	x, err := eng.InsertBlock(ctx, actor, &models.Block{
		PageID:  pageID,
		Type:    models.BlockTypeText,
		Content: models.JSONMap{"text": "x"},
	}, nil)
	require.NoError(t, err)
	y, err := eng.InsertBlock(ctx, actor, &models.Block{
		PageID:  pageID,
		Type:    models.BlockTypeText,
		Content: models.JSONMap{"text": "y"},
	}, nil)
	require.NoError(t, err)

	t.Run("missing block", func(t *testing.T) {
		_, err := eng.ReparentBlock(ctx, actor, pageID, models.NewBlockID(), nil, nil)
		assert.ErrorIs(t, err, blocks.ErrNotFound)
	})

	t.Run("destination deleted first", func(t *testing.T) {
		_, err := eng.DeleteBlock(ctx, actor, pageID, x.ID)
		require.NoError(t, err)

		_, err = eng.ReparentBlock(ctx, actor, pageID, y.ID, &x.ID, nil)
		assert.ErrorIs(t, err, blocks.ErrNotFound, "the loser of the race gets a stale reference")

		forest, err := eng.GetPageTree(ctx, actor, pageID)
		require.NoError(t, err)
		require.Len(t, forest, 1)
		assert.Equal(t, y.ID, forest[0].ID)
		assert.Equal(t, y.Order, forest[0].Order, "the failed move leaves the block untouched")

		for _, rec := range pub.records() {
			assert.NotEqual(t, editor.OpReparent, rec.Op, "a failed move publishes no record")
		}
	})
}

func TestSaveTree(t *testing.T) {
	ctx, eng, pub, pageID := newTestEngine(t, allowAll{})
	actor := models.NewUserID()

	a, err := eng.InsertBlock(ctx, actor, &models.Block{
		PageID:  pageID,
		Type:    models.BlockTypeText,
		Content: models.JSONMap{"text": "a"},
	}, nil)
	require.NoError(t, err)
	b, err := eng.InsertBlock(ctx, actor, &models.Block{
		PageID:  pageID,
		Type:    models.BlockTypeText,
		Content: models.JSONMap{"text": "b"},
	}, nil)
	require.NoError(t, err)
	c, err := eng.InsertBlock(ctx, actor, &models.Block{
		PageID:  pageID,
		Type:    models.BlockTypeText,
		Content: models.JSONMap{"text": "c"},
	}, nil)
	require.NoError(t, err)

	// One pass moves b under c and swaps the root order.
	rebuilt := []*blocks.Node{
		{Block: *c, Children: []*blocks.Node{{Block: *b}}},
		{Block: *a},
	}
	require.NoError(t, eng.SaveTree(ctx, actor, pageID, rebuilt))

	forest, err := eng.GetPageTree(ctx, actor, pageID)
	require.NoError(t, err)
	require.Len(t, forest, 2)
	assert.Equal(t, c.ID, forest[0].ID)
	assert.Equal(t, a.ID, forest[1].ID)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, b.ID, forest[0].Children[0].ID)

	recs := pub.records()
	require.NotEmpty(t, recs)
	last := recs[len(recs)-1]
	assert.Equal(t, editor.OpSaveTree, last.Op)
	assert.Equal(t, pageID, last.PageID)
	assert.Equal(t, actor, last.ActorID)
	assert.Len(t, last.Payload["blocks"], 3, "the record carries every placed block")
}
