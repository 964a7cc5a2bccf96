// Package client is a typed HTTP client for the notebase API, used by
// integration tests and tooling. All operations share the models package
// with the server, so ids and payloads travel with full type safety.
//
// Mutating endpoints act on behalf of a user; set one with
// [Client.SetActingUser] and the client sends it as the X-User-ID header
// on every request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/notebase/notebase/pkg/blocks"
	"github.com/notebase/notebase/pkg/models"
	"github.com/notebase/notebase/pkg/store"
	"github.com/notebase/notebase/pkg/templates"
)

// Client provides strongly-typed access to the notebase REST API. Safe
// for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	actingUser models.UserID
}

// NewClient creates a client for the server at baseURL, which should
// include protocol and host without a trailing slash.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetActingUser sets the user all subsequent requests act as.
func (c *Client) SetActingUser(id models.UserID) {
	c.actingUser = id
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if !c.actingUser.IsZero() {
		req.Header.Set("X-User-ID", c.actingUser.String())
	}

	return c.httpClient.Do(req)
}

func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Health checks the health status of the server.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// User management

func (c *Client) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/users", user)
	if err != nil {
		return nil, err
	}
	var result models.User
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/users/%s", id), nil)
	if err != nil {
		return nil, err
	}
	var result models.User
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteUser(ctx context.Context, id models.UserID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/users/%s", id), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// Workspace management

func (c *Client) CreateWorkspace(ctx context.Context, workspace *models.Workspace) (*models.Workspace, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/workspaces", workspace)
	if err != nil {
		return nil, err
	}
	var result models.Workspace
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetWorkspace(ctx context.Context, id models.WorkspaceID) (*models.Workspace, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/workspaces/%s", id), nil)
	if err != nil {
		return nil, err
	}
	var result models.Workspace
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListWorkspaces(ctx context.Context, userID models.UserID) ([]*models.Workspace, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/users/%s/workspaces", userID), nil)
	if err != nil {
		return nil, err
	}
	var result []*models.Workspace
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Page management

func (c *Client) CreatePage(ctx context.Context, page *models.Page) (*models.Page, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/pages", page)
	if err != nil {
		return nil, err
	}
	var result models.Page
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetPage(ctx context.Context, id models.PageID) (*models.Page, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/pages/%s", id), nil)
	if err != nil {
		return nil, err
	}
	var result models.Page
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeletePage(ctx context.Context, id models.PageID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/pages/%s", id), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

func (c *Client) ListPages(ctx context.Context, workspaceID models.WorkspaceID) ([]*models.Page, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/workspaces/%s/pages", workspaceID), nil)
	if err != nil {
		return nil, err
	}
	var result []*models.Page
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Block operations

// GetTree fetches the assembled block forest of a page.
func (c *Client) GetTree(ctx context.Context, pageID models.PageID) ([]*blocks.Node, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/pages/%s/tree", pageID), nil)
	if err != nil {
		return nil, err
	}
	var result []*blocks.Node
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveTree replaces the page's block arrangement with the given forest in
// one request. Only ids and nesting are sent; the server re-derives order
// keys and parent links from the shape. Returns the saved tree.
func (c *Client) SaveTree(ctx context.Context, pageID models.PageID, forest []*blocks.Node) ([]*blocks.Node, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/pages/%s/tree", pageID), map[string]any{"blocks": treeShape(forest)})
	if err != nil {
		return nil, err
	}
	var result []*blocks.Node
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func treeShape(forest []*blocks.Node) []map[string]any {
	out := make([]map[string]any, 0, len(forest))
	for _, n := range forest {
		node := map[string]any{"id": n.ID}
		if len(n.Children) > 0 {
			node["children"] = treeShape(n.Children)
		}
		out = append(out, node)
	}
	return out
}

// InsertBlock places a new block on the page, after the given sibling or
// at the end of its group when after is nil.
func (c *Client) InsertBlock(ctx context.Context, pageID models.PageID, typ models.BlockType, content models.JSONMap, parent, after *models.BlockID) (*models.Block, error) {
	body := map[string]any{
		"type":    typ,
		"content": content,
	}
	if parent != nil {
		body["parent_block_id"] = parent
	}
	if after != nil {
		body["after"] = after
	}

	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/pages/%s/blocks", pageID), body)
	if err != nil {
		return nil, err
	}
	var result models.Block
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateBlock replaces a block's type and content.
func (c *Client) UpdateBlock(ctx context.Context, pageID models.PageID, blockID models.BlockID, typ models.BlockType, content models.JSONMap) (*models.Block, error) {
	body := map[string]any{
		"type":    typ,
		"content": content,
	}
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/pages/%s/blocks/%s", pageID, blockID), body)
	if err != nil {
		return nil, err
	}
	var result models.Block
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteBlock removes a block and its subtree, returning the deleted ids.
func (c *Client) DeleteBlock(ctx context.Context, pageID models.PageID, blockID models.BlockID) ([]models.BlockID, error) {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/pages/%s/blocks/%s", pageID, blockID), nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Deleted []models.BlockID `json:"deleted"`
	}
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result.Deleted, nil
}

// MoveBlock reparents a block, placing it after the given sibling or at
// the end of its new group.
func (c *Client) MoveBlock(ctx context.Context, pageID models.PageID, blockID models.BlockID, parent, after *models.BlockID) (*models.Block, error) {
	body := map[string]any{}
	if parent != nil {
		body["parent_block_id"] = parent
	}
	if after != nil {
		body["after"] = after
	}

	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/pages/%s/blocks/%s/move", pageID, blockID), body)
	if err != nil {
		return nil, err
	}
	var result models.Block
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReorderBlocks applies a batch of sibling order changes atomically.
func (c *Client) ReorderBlocks(ctx context.Context, pageID models.PageID, updates []store.BlockOrder) error {
	orders := make([]map[string]any, 0, len(updates))
	for _, u := range updates {
		orders = append(orders, map[string]any{"id": u.BlockID, "order": u.Order})
	}

	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/pages/%s/blocks/reorder", pageID), map[string]any{"orders": orders})
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// Templates

func (c *Client) ListTemplates(ctx context.Context) ([]*templates.Template, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/templates", nil)
	if err != nil {
		return nil, err
	}
	var result []*templates.Template
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ExpandTemplate stamps a template onto the page, optionally nested under
// a parent block, and returns the created blocks.
func (c *Client) ExpandTemplate(ctx context.Context, pageID models.PageID, templateID string, parent *models.BlockID) ([]*models.Block, error) {
	body := map[string]any{"template_id": templateID}
	if parent != nil {
		body["parent_block_id"] = parent
	}

	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/pages/%s/expand", pageID), body)
	if err != nil {
		return nil, err
	}
	var result []*models.Block
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Presence lists the users currently live on a page.
func (c *Client) Presence(ctx context.Context, pageID models.PageID) ([]models.UserID, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/pages/%s/presence", pageID), nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Users []models.UserID `json:"users"`
	}
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result.Users, nil
}

// Permissions

func (c *Client) CreatePermission(ctx context.Context, permission *models.Permission) (*models.Permission, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/permissions", permission)
	if err != nil {
		return nil, err
	}
	var result models.Permission
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeletePermission(ctx context.Context, id models.PermissionID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/permissions/%s", id), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// Comments

func (c *Client) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/comments", comment)
	if err != nil {
		return nil, err
	}
	var result models.Comment
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListComments(ctx context.Context, blockID models.BlockID) ([]*models.Comment, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/blocks/%s/comments", blockID), nil)
	if err != nil {
		return nil, err
	}
	var result []*models.Comment
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ResolveComment(ctx context.Context, id models.CommentID) error {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/comments/%s/resolve", id), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}
