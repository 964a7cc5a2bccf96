package notebase_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebase/notebase/pkg/blocks"
	"github.com/notebase/notebase/pkg/client"
	"github.com/notebase/notebase/pkg/collab"
	"github.com/notebase/notebase/pkg/models"
	"github.com/notebase/notebase/pkg/notebase"
	"github.com/notebase/notebase/pkg/store"
)

type fixture struct {
	app    *notebase.App
	server *httptest.Server
	client *client.Client
	user   *models.User
	page   *models.Page
}

func newFixture(t *testing.T) (context.Context, *fixture) {
	t.Helper()
	ctx := context.Background()

	app, err := notebase.New(&notebase.Config{InMemory: true, ServerPort: "0"})
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	server := httptest.NewServer(app.Router())
	t.Cleanup(server.Close)

	c := client.NewClient(server.URL)

	user, err := c.CreateUser(ctx, &models.User{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	c.SetActingUser(user.ID)

	workspace, err := c.CreateWorkspace(ctx, &models.Workspace{Name: "Docs", OwnerID: user.ID})
	require.NoError(t, err)

	page, err := c.CreatePage(ctx, &models.Page{
		Title:       "Welcome",
		WorkspaceID: workspace.ID,
		CreatedBy:   user.ID,
	})
	require.NoError(t, err)

	return ctx, &fixture{app: app, server: server, client: c, user: user, page: page}
}

func TestHealth(t *testing.T) {
	ctx, f := newFixture(t)

	health, err := f.client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["read_only"])
}

func TestBlockLifecycleOverHTTP(t *testing.T) {
	ctx, f := newFixture(t)

	first, err := f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeHeading,
		models.JSONMap{"text": "Title", "level": float64(1)}, nil, nil)
	require.NoError(t, err)

	second, err := f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeText,
		models.JSONMap{"text": "body"}, nil, nil)
	require.NoError(t, err)

	child, err := f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeTodo,
		models.JSONMap{"text": "task", "checked": false}, &second.ID, nil)
	require.NoError(t, err)

	forest, err := f.client.GetTree(ctx, f.page.ID)
	require.NoError(t, err)
	require.Len(t, forest, 2)
	assert.Equal(t, first.ID, forest[0].ID)
	require.Len(t, forest[1].Children, 1)
	assert.Equal(t, child.ID, forest[1].Children[0].ID)

	updated, err := f.client.UpdateBlock(ctx, f.page.ID, second.ID, models.BlockTypeQuote,
		models.JSONMap{"text": "quoted"})
	require.NoError(t, err)
	assert.Equal(t, models.BlockTypeQuote, updated.Type)

	moved, err := f.client.MoveBlock(ctx, f.page.ID, child.ID, &first.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentBlockID)
	assert.Equal(t, first.ID, *moved.ParentBlockID)

	err = f.client.ReorderBlocks(ctx, f.page.ID, []store.BlockOrder{
		{BlockID: second.ID, Order: 1},
		{BlockID: first.ID, Order: 2},
	})
	require.NoError(t, err)

	forest, err = f.client.GetTree(ctx, f.page.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, forest[0].ID)

	deleted, err := f.client.DeleteBlock(ctx, f.page.ID, first.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.BlockID{first.ID, child.ID}, deleted)
}

func TestSaveTreeOverHTTP(t *testing.T) {
	ctx, f := newFixture(t)

	a, err := f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeText,
		models.JSONMap{"text": "a"}, nil, nil)
	require.NoError(t, err)
	b, err := f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeText,
		models.JSONMap{"text": "b"}, nil, nil)
	require.NoError(t, err)
	c, err := f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeText,
		models.JSONMap{"text": "c"}, nil, nil)
	require.NoError(t, err)

	forest, err := f.client.GetTree(ctx, f.page.ID)
	require.NoError(t, err)
	require.Len(t, forest, 3)

	// Rebuild client-side: c leads, b nests under a.
	rebuilt := []*blocks.Node{
		forest[2],
		{Block: forest[0].Block, Children: []*blocks.Node{forest[1]}},
	}
	saved, err := f.client.SaveTree(ctx, f.page.ID, rebuilt)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, c.ID, saved[0].ID)
	assert.Equal(t, a.ID, saved[1].ID)
	require.Len(t, saved[1].Children, 1)
	assert.Equal(t, b.ID, saved[1].Children[0].ID)

	t.Run("unknown block is 404", func(t *testing.T) {
		ghost := &blocks.Node{Block: models.Block{ID: models.NewBlockID()}}
		_, err := f.client.SaveTree(ctx, f.page.ID, []*blocks.Node{ghost})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=404")
	})
}

func TestHTTPStatusMapping(t *testing.T) {
	ctx, f := newFixture(t)

	t.Run("missing page is 404", func(t *testing.T) {
		_, err := f.client.GetTree(ctx, models.NewPageID())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=404")
	})

	t.Run("invalid content is 422", func(t *testing.T) {
		_, err := f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeImage,
			models.JSONMap{"caption": "no url"}, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=422")
	})

	t.Run("cycle is 422", func(t *testing.T) {
		parent, err := f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeText,
			models.JSONMap{"text": "p"}, nil, nil)
		require.NoError(t, err)
		child, err := f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeText,
			models.JSONMap{"text": "c"}, &parent.ID, nil)
		require.NoError(t, err)

		_, err = f.client.MoveBlock(ctx, f.page.ID, parent.ID, &child.ID, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=422")
	})

	t.Run("stranger is 403", func(t *testing.T) {
		stranger := client.NewClient(f.server.URL)
		other, err := f.client.CreateUser(ctx, &models.User{Name: "Mallory", Email: "mallory@example.com"})
		require.NoError(t, err)
		stranger.SetActingUser(other.ID)

		_, err = stranger.InsertBlock(ctx, f.page.ID, models.BlockTypeText,
			models.JSONMap{"text": "nope"}, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=403")
	})

	t.Run("no identity is 401", func(t *testing.T) {
		anon := client.NewClient(f.server.URL)
		_, err := anon.GetTree(ctx, f.page.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=401")
	})

	t.Run("read-only mode is 503", func(t *testing.T) {
		f.app.SetReadOnly(true)
		defer f.app.SetReadOnly(false)

		_, err := f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeText,
			models.JSONMap{"text": "blocked"}, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=503")

		_, err = f.client.GetTree(ctx, f.page.ID)
		assert.NoError(t, err, "reads keep working in read-only mode")
	})
}

func TestPermissionGrantsAccess(t *testing.T) {
	ctx, f := newFixture(t)

	guest, err := f.client.CreateUser(ctx, &models.User{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	_, err = f.client.CreatePermission(ctx, &models.Permission{
		ResourceType:    models.ResourcePage,
		ResourceID:      models.NewResourceIDFromUUID(f.page.ID.UUID()),
		UserID:          guest.ID,
		PermissionLevel: models.PermissionWrite,
	})
	require.NoError(t, err)

	guestClient := client.NewClient(f.server.URL)
	guestClient.SetActingUser(guest.ID)
	_, err = guestClient.InsertBlock(ctx, f.page.ID, models.BlockTypeText,
		models.JSONMap{"text": "invited"}, nil, nil)
	assert.NoError(t, err, "a write grant on the page admits the guest")
}

func TestTemplatesOverHTTP(t *testing.T) {
	ctx, f := newFixture(t)

	list, err := f.client.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	inserted, err := f.client.ExpandTemplate(ctx, f.page.ID, "meeting-notes", nil)
	require.NoError(t, err)
	assert.Len(t, inserted, 9)

	_, err = f.client.ExpandTemplate(ctx, f.page.ID, "bogus", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
}

func TestCommentsOverHTTP(t *testing.T) {
	ctx, f := newFixture(t)

	block, err := f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeText,
		models.JSONMap{"text": "discuss"}, nil, nil)
	require.NoError(t, err)

	comment, err := f.client.CreateComment(ctx, &models.Comment{
		BlockID: block.ID,
		UserID:  f.user.ID,
		Content: "needs a source",
	})
	require.NoError(t, err)

	require.NoError(t, f.client.ResolveComment(ctx, comment.ID))

	comments, err := f.client.ListComments(ctx, block.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.NotNil(t, comments[0].ResolvedAt)
}

func wsURL(serverURL string, page models.PageID, user models.UserID) string {
	return strings.Replace(serverURL, "http://", "ws://", 1) +
		"/api/pages/" + page.String() + "/ws?user_id=" + user.String()
}

func TestCollabSocket(t *testing.T) {
	ctx, f := newFixture(t)

	observer, err := f.client.CreateUser(ctx, &models.User{Name: "Observer", Email: "observer@example.com"})
	require.NoError(t, err)
	_, err = f.client.CreatePermission(ctx, &models.Permission{
		ResourceType:    models.ResourcePage,
		ResourceID:      models.NewResourceIDFromUUID(f.page.ID.UUID()),
		UserID:          observer.ID,
		PermissionLevel: models.PermissionRead,
	})
	require.NoError(t, err)

	dialer := websocket.Dialer{Subprotocols: collab.Subprotocols()}
	conn, _, err := dialer.Dial(wsURL(f.server.URL, f.page.ID, observer.ID), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, collab.SubprotocolCBOR, conn.Subprotocol(), "cbor wins the negotiation")
	codec := collab.NegotiateCodec(conn.Subprotocol())

	// Give the subscription a moment to register before mutating.
	require.Eventually(t, func() bool {
		return len(f.app.Hub().Presence(f.page.ID)) == 1
	}, time.Second, 10*time.Millisecond)

	_, err = f.client.InsertBlock(ctx, f.page.ID, models.BlockTypeText,
		models.JSONMap{"text": "live"}, nil, nil)
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev collab.Event
	require.NoError(t, codec.Decode(data, &ev))
	assert.Equal(t, collab.KindBlockUpdated, ev.Kind)
	assert.Equal(t, f.page.ID, ev.PageID)
	assert.Equal(t, f.user.ID, ev.ActorID)
}

func TestCollabSocketDeniedWithoutAccess(t *testing.T) {
	ctx, f := newFixture(t)

	stranger, err := f.client.CreateUser(ctx, &models.User{Name: "Eve", Email: "eve@example.com"})
	require.NoError(t, err)

	dialer := websocket.Dialer{}
	conn, resp, err := dialer.Dial(wsURL(f.server.URL, f.page.ID, stranger.ID), nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
}
