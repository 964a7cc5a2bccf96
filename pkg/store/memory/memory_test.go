package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebase/notebase/pkg/models"
	"github.com/notebase/notebase/pkg/store"
	"github.com/notebase/notebase/pkg/store/memory"
)

func TestMissingRowsAreNilNil(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	page, err := s.GetPage(ctx, models.NewPageID())
	require.NoError(t, err)
	assert.Nil(t, page)

	block, err := s.GetBlock(ctx, models.NewBlockID())
	require.NoError(t, err)
	assert.Nil(t, block)

	user, err := s.GetUser(ctx, models.NewUserID())
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestListsAreNeverNil(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	blocks, err := s.ListBlocks(ctx, models.NewPageID())
	require.NoError(t, err)
	assert.NotNil(t, blocks)
	assert.Empty(t, blocks)

	pages, err := s.ListPages(ctx, models.NewWorkspaceID())
	require.NoError(t, err)
	assert.NotNil(t, pages)
}

func TestCopyOnReadIsolation(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	block := &models.Block{
		PageID:  models.NewPageID(),
		Type:    models.BlockTypeText,
		Content: models.JSONMap{"text": "original"},
	}
	require.NoError(t, s.CreateBlock(ctx, block))

	got, err := s.GetBlock(ctx, block.ID)
	require.NoError(t, err)
	got.Content["text"] = "mutated"

	again, err := s.GetBlock(ctx, block.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Content["text"], "callers cannot reach into stored state")
}

func TestDeletePageCascades(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	page := &models.Page{Title: "Parent", WorkspaceID: models.NewWorkspaceID()}
	require.NoError(t, s.CreatePage(ctx, page))
	child := &models.Page{Title: "Child", WorkspaceID: page.WorkspaceID, ParentPageID: &page.ID}
	require.NoError(t, s.CreatePage(ctx, child))

	block := &models.Block{PageID: page.ID, Type: models.BlockTypeText, Content: models.JSONMap{"text": "x"}}
	require.NoError(t, s.CreateBlock(ctx, block))

	require.NoError(t, s.DeletePage(ctx, page.ID))

	gone, err := s.GetBlock(ctx, block.ID)
	require.NoError(t, err)
	assert.Nil(t, gone, "page blocks are deleted with the page")

	orphan, err := s.GetPage(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, orphan)
	assert.Nil(t, orphan.ParentPageID, "child pages are orphaned, not deleted")
}

func TestUpdateBlockOrdersAtomic(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	pageID := models.NewPageID()
	a := &models.Block{PageID: pageID, Type: models.BlockTypeText, Content: models.JSONMap{}, Order: 1}
	b := &models.Block{PageID: pageID, Type: models.BlockTypeText, Content: models.JSONMap{}, Order: 2}
	require.NoError(t, s.CreateBlock(ctx, a))
	require.NoError(t, s.CreateBlock(ctx, b))

	err := s.UpdateBlockOrders(ctx, pageID, []store.BlockOrder{
		{BlockID: a.ID, Order: 10},
		{BlockID: models.NewBlockID(), Order: 20},
	})
	require.Error(t, err)

	current, err := s.GetBlock(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(1), current.Order, "failed batch touches nothing")

	require.NoError(t, s.UpdateBlockOrders(ctx, pageID, []store.BlockOrder{
		{BlockID: b.ID, Order: 0},
	}))
	ordered, err := s.ListBlocks(ctx, pageID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, ordered[0].ID)
}

func TestDeleteBlocksIgnoresMissing(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	block := &models.Block{PageID: models.NewPageID(), Type: models.BlockTypeText, Content: models.JSONMap{}}
	require.NoError(t, s.CreateBlock(ctx, block))

	err := s.DeleteBlocks(ctx, []models.BlockID{block.ID, models.NewBlockID()})
	require.NoError(t, err)

	gone, err := s.GetBlock(ctx, block.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.CreateUser(ctx, &models.User{Name: "A", Email: "dup@example.com"}))
	err := s.CreateUser(ctx, &models.User{Name: "B", Email: "dup@example.com"})
	assert.Error(t, err)

	found, err := s.GetUserByEmail(ctx, "DUP@example.com")
	require.NoError(t, err)
	assert.NotNil(t, found, "email lookup is case-insensitive")
}

func TestCheckPermissionHierarchy(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	userID := models.NewUserID()
	resource := models.NewResourceIDFromUUID(models.NewPageID().UUID())
	require.NoError(t, s.CreatePermission(ctx, &models.Permission{
		ResourceType:    models.ResourcePage,
		ResourceID:      resource,
		UserID:          userID,
		PermissionLevel: models.PermissionWrite,
	}))

	ok, err := s.CheckPermission(ctx, userID, models.ResourcePage, resource, models.PermissionRead)
	require.NoError(t, err)
	assert.True(t, ok, "write covers read")

	ok, err = s.CheckPermission(ctx, userID, models.ResourcePage, resource, models.PermissionAdmin)
	require.NoError(t, err)
	assert.False(t, ok, "write does not cover admin")
}

func TestResolveComment(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	comment := &models.Comment{
		BlockID: models.NewBlockID(),
		UserID:  models.NewUserID(),
		Content: "looks wrong",
	}
	require.NoError(t, s.CreateComment(ctx, comment))
	require.NoError(t, s.ResolveComment(ctx, comment.ID))

	got, err := s.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ResolvedAt)
}
