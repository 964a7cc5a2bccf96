// Package store defines the persistence collaborator for the notebase core:
// row-level CRUD keyed by entity id plus page-scoped block queries.
//
// The interface deliberately knows nothing about tree integrity, ordering
// policy, or access control; those live in the blocks and editor packages,
// which are the only writers. Implementations:
//
//   - postgres.Store: GORM over PostgreSQL, ACID per operation
//   - memory.Store: mutex-guarded maps, used by tests and standalone mode
//
// Conventions shared by all implementations:
//   - Get methods return (nil, nil) for missing entities.
//   - Update methods replace the full entity.
//   - List methods return empty slices, never nil, for no results.
//   - Batch methods (DeleteBlocks, UpdateBlockOrders) are atomic: either
//     every row changes or none does.
package store

import (
	"context"
	"errors"

	"github.com/notebase/notebase/pkg/models"
)

// ErrReadOnly is returned by every write operation while the application is
// in read-only mode.
var ErrReadOnly = errors.New("store is in read-only mode")

// BlockOrder pairs a block with its new sibling order key, used for atomic
// batch reordering.
type BlockOrder struct {
	BlockID models.BlockID `json:"block_id"`
	Order   float64        `json:"order"`
}

// Store is the complete persistence interface for the notebase domain.
type Store interface {
	// Workspace operations
	CreateWorkspace(ctx context.Context, workspace *models.Workspace) error
	GetWorkspace(ctx context.Context, id models.WorkspaceID) (*models.Workspace, error)
	UpdateWorkspace(ctx context.Context, workspace *models.Workspace) error
	DeleteWorkspace(ctx context.Context, id models.WorkspaceID) error
	ListWorkspaces(ctx context.Context, ownerID models.UserID) ([]*models.Workspace, error)

	// Page operations
	CreatePage(ctx context.Context, page *models.Page) error
	GetPage(ctx context.Context, id models.PageID) (*models.Page, error)
	UpdatePage(ctx context.Context, page *models.Page) error
	// DeletePage removes the page and every block that belongs to it.
	// Child pages are orphaned (ParentPageID cleared), not deleted.
	DeletePage(ctx context.Context, id models.PageID) error
	ListPages(ctx context.Context, workspaceID models.WorkspaceID) ([]*models.Page, error)
	ListChildPages(ctx context.Context, parentPageID models.PageID) ([]*models.Page, error)

	// Block operations. These are raw row operations; ordering and tree
	// integrity are enforced by the blocks package before any write
	// reaches the store.
	CreateBlock(ctx context.Context, block *models.Block) error
	GetBlock(ctx context.Context, id models.BlockID) (*models.Block, error)
	UpdateBlock(ctx context.Context, block *models.Block) error
	DeleteBlock(ctx context.Context, id models.BlockID) error
	// DeleteBlocks removes all given blocks in one atomic batch. Missing
	// ids are ignored so a cascade can tolerate concurrent deletes.
	DeleteBlocks(ctx context.Context, ids []models.BlockID) error
	// ListBlocks returns every block of the page ordered by the order
	// column ascending, then created_at, then id.
	ListBlocks(ctx context.Context, pageID models.PageID) ([]*models.Block, error)
	// UpdateBlockOrders applies all order changes atomically. If any
	// referenced block does not exist or belongs to a different page the
	// whole batch fails and no row is modified.
	UpdateBlockOrders(ctx context.Context, pageID models.PageID, updates []BlockOrder) error

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id models.UserID) error

	// Permission operations
	CreatePermission(ctx context.Context, permission *models.Permission) error
	GetPermission(ctx context.Context, id models.PermissionID) (*models.Permission, error)
	GetPermissions(ctx context.Context, resourceType models.ResourceType, resourceID models.ResourceID) ([]*models.Permission, error)
	GetUserPermissions(ctx context.Context, userID models.UserID) ([]*models.Permission, error)
	UpdatePermission(ctx context.Context, permission *models.Permission) error
	DeletePermission(ctx context.Context, id models.PermissionID) error
	// CheckPermission reports whether the user holds at least the given
	// level on the resource, directly or via the level hierarchy
	// (admin covers write covers read). Ownership is resolved by the
	// caller, not here.
	CheckPermission(ctx context.Context, userID models.UserID, resourceType models.ResourceType, resourceID models.ResourceID, level models.PermissionLevel) (bool, error)

	// Comment operations
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id models.CommentID) (*models.Comment, error)
	ListComments(ctx context.Context, blockID models.BlockID) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id models.CommentID) error
	ResolveComment(ctx context.Context, id models.CommentID) error

	// Migrate initializes or updates the schema. Idempotent.
	Migrate(ctx context.Context) error
	// Close releases the backing resources. Safe to call more than once.
	Close() error
}

// levelRank orders permission levels for hierarchy checks.
func LevelRank(l models.PermissionLevel) int {
	switch l {
	case models.PermissionRead:
		return 1
	case models.PermissionWrite:
		return 2
	case models.PermissionAdmin:
		return 3
	}
	return 0
}
