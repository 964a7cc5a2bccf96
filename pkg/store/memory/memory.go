// Package memory provides an in-memory implementation of
// [github.com/notebase/notebase/pkg/store.Store].
//
// It backs the test suites and the standalone mode of the server, where no
// PostgreSQL instance is available. Semantics intentionally mirror the
// postgres implementation: Get returns (nil, nil) for missing rows, Update
// saves the full entity, batch operations are all-or-nothing, and list
// results are detached copies so callers can never alias internal state.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/notebase/notebase/pkg/models"
	"github.com/notebase/notebase/pkg/store"
)

// Store implements store.Store with mutex-guarded maps.
type Store struct {
	mu sync.RWMutex

	workspaces  map[models.WorkspaceID]*models.Workspace
	pages       map[models.PageID]*models.Page
	blocks      map[models.BlockID]*models.Block
	users       map[models.UserID]*models.User
	permissions map[models.PermissionID]*models.Permission
	comments    map[models.CommentID]*models.Comment
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		workspaces:  make(map[models.WorkspaceID]*models.Workspace),
		pages:       make(map[models.PageID]*models.Page),
		blocks:      make(map[models.BlockID]*models.Block),
		users:       make(map[models.UserID]*models.User),
		permissions: make(map[models.PermissionID]*models.Permission),
		comments:    make(map[models.CommentID]*models.Comment),
	}
}

// Migrate is a no-op: there is no schema to create.
func (s *Store) Migrate(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Workspace operations

func (s *Store) CreateWorkspace(ctx context.Context, workspace *models.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if workspace.ID.IsZero() {
		workspace.ID = models.NewWorkspaceID()
	}
	now := time.Now().UTC()
	workspace.CreatedAt = now
	workspace.UpdatedAt = now
	cp := *workspace
	s.workspaces[workspace.ID] = &cp
	return nil
}

func (s *Store) GetWorkspace(ctx context.Context, id models.WorkspaceID) (*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workspaces[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (s *Store) UpdateWorkspace(ctx context.Context, workspace *models.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	workspace.UpdatedAt = time.Now().UTC()
	cp := *workspace
	s.workspaces[workspace.ID] = &cp
	return nil
}

func (s *Store) DeleteWorkspace(ctx context.Context, id models.WorkspaceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workspaces, id)
	return nil
}

func (s *Store) ListWorkspaces(ctx context.Context, ownerID models.UserID) ([]*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Workspace{}
	for _, w := range s.workspaces {
		if w.OwnerID == ownerID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Page operations

func (s *Store) CreatePage(ctx context.Context, page *models.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page.ID.IsZero() {
		page.ID = models.NewPageID()
	}
	now := time.Now().UTC()
	page.CreatedAt = now
	page.UpdatedAt = now
	cp := *page
	s.pages[page.ID] = &cp
	return nil
}

func (s *Store) GetPage(ctx context.Context, id models.PageID) (*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpdatePage(ctx context.Context, page *models.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page.UpdatedAt = time.Now().UTC()
	cp := *page
	s.pages[page.ID] = &cp
	return nil
}

func (s *Store) DeletePage(ctx context.Context, id models.PageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for bid, b := range s.blocks {
		if b.PageID == id {
			delete(s.blocks, bid)
		}
	}
	for _, p := range s.pages {
		if p.ParentPageID != nil && *p.ParentPageID == id {
			p.ParentPageID = nil
		}
	}
	delete(s.pages, id)
	return nil
}

func (s *Store) ListPages(ctx context.Context, workspaceID models.WorkspaceID) ([]*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Page{}
	for _, p := range s.pages {
		if p.WorkspaceID == workspaceID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListChildPages(ctx context.Context, parentPageID models.PageID) ([]*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Page{}
	for _, p := range s.pages {
		if p.ParentPageID != nil && *p.ParentPageID == parentPageID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Block operations

func (s *Store) CreateBlock(ctx context.Context, block *models.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if block.ID.IsZero() {
		block.ID = models.NewBlockID()
	}
	now := time.Now().UTC()
	block.CreatedAt = now
	block.UpdatedAt = now
	cp := copyBlock(block)
	s.blocks[block.ID] = cp
	return nil
}

func (s *Store) GetBlock(ctx context.Context, id models.BlockID) (*models.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[id]
	if !ok {
		return nil, nil
	}
	return copyBlock(b), nil
}

func (s *Store) UpdateBlock(ctx context.Context, block *models.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	block.UpdatedAt = time.Now().UTC()
	s.blocks[block.ID] = copyBlock(block)
	return nil
}

func (s *Store) DeleteBlock(ctx context.Context, id models.BlockID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocks, id)
	return nil
}

func (s *Store) DeleteBlocks(ctx context.Context, ids []models.BlockID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.blocks, id)
	}
	return nil
}

func (s *Store) ListBlocks(ctx context.Context, pageID models.PageID) ([]*models.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Block{}
	for _, b := range s.blocks {
		if b.PageID == pageID {
			out = append(out, copyBlock(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return strings.Compare(out[i].ID.String(), out[j].ID.String()) < 0
	})
	return out, nil
}

func (s *Store) UpdateBlockOrders(ctx context.Context, pageID models.PageID, updates []store.BlockOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Validate the whole batch before touching anything.
	for _, u := range updates {
		b, ok := s.blocks[u.BlockID]
		if !ok || b.PageID != pageID {
			return fmt.Errorf("block %s not found on page %s", u.BlockID, pageID)
		}
	}
	now := time.Now().UTC()
	for _, u := range updates {
		b := s.blocks[u.BlockID]
		b.Order = u.Order
		b.UpdatedAt = now
	}
	return nil
}

// User operations

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user email %q already exists", user.Email)
		}
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.UpdatedAt = time.Now().UTC()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id models.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

// Permission operations

func (s *Store) CreatePermission(ctx context.Context, permission *models.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if permission.ID.IsZero() {
		permission.ID = models.NewPermissionID()
	}
	now := time.Now().UTC()
	permission.CreatedAt = now
	permission.UpdatedAt = now
	cp := *permission
	s.permissions[permission.ID] = &cp
	return nil
}

func (s *Store) GetPermission(ctx context.Context, id models.PermissionID) (*models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetPermissions(ctx context.Context, resourceType models.ResourceType, resourceID models.ResourceID) ([]*models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Permission{}
	for _, p := range s.permissions {
		if p.ResourceType == resourceType && p.ResourceID == resourceID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) GetUserPermissions(ctx context.Context, userID models.UserID) ([]*models.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Permission{}
	for _, p := range s.permissions {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) UpdatePermission(ctx context.Context, permission *models.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	permission.UpdatedAt = time.Now().UTC()
	cp := *permission
	s.permissions[permission.ID] = &cp
	return nil
}

func (s *Store) DeletePermission(ctx context.Context, id models.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.permissions, id)
	return nil
}

func (s *Store) CheckPermission(ctx context.Context, userID models.UserID, resourceType models.ResourceType, resourceID models.ResourceID, level models.PermissionLevel) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := store.LevelRank(level)
	for _, p := range s.permissions {
		if p.UserID == userID && p.ResourceType == resourceType && p.ResourceID == resourceID &&
			store.LevelRank(p.PermissionLevel) >= want {
			return true, nil
		}
	}
	return false, nil
}

// Comment operations

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if comment.ID.IsZero() {
		comment.ID = models.NewCommentID()
	}
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	cp := *comment
	s.comments[comment.ID] = &cp
	return nil
}

func (s *Store) GetComment(ctx context.Context, id models.CommentID) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListComments(ctx context.Context, blockID models.BlockID) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Comment{}
	for _, c := range s.comments {
		if c.BlockID == blockID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment.UpdatedAt = time.Now().UTC()
	cp := *comment
	s.comments[comment.ID] = &cp
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id models.CommentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.comments, id)
	return nil
}

func (s *Store) ResolveComment(ctx context.Context, id models.CommentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return fmt.Errorf("comment %s not found", id)
	}
	now := time.Now().UTC()
	c.ResolvedAt = &now
	c.UpdatedAt = now
	return nil
}

func copyBlock(b *models.Block) *models.Block {
	cp := *b
	if b.Content != nil {
		cp.Content = make(models.JSONMap, len(b.Content))
		for k, v := range b.Content {
			cp.Content[k] = v
		}
	}
	if b.ParentBlockID != nil {
		pid := *b.ParentBlockID
		cp.ParentBlockID = &pid
	}
	return &cp
}
