// Package postgres provides the PostgreSQL implementation of
// [github.com/notebase/notebase/pkg/store.Store] using GORM.
//
// Each operation is individually atomic: GORM wraps single-statement writes
// in implicit transactions and the batch operations (DeleteBlocks,
// UpdateBlockOrders, DeletePage) run inside explicit ones. Schema management
// is handled by [Store.Migrate] through GORM's AutoMigrate, which only adds
// missing schema elements and is safe to run repeatedly.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/notebase/notebase/pkg/models"
	"github.com/notebase/notebase/pkg/store"
)

// Store implements store.Store on PostgreSQL with GORM.
type Store struct {
	db *gorm.DB
}

// New connects to PostgreSQL and returns the store.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) getDB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the schema for all notebase models.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.Page{},
		&models.Block{},
		&models.Permission{},
		&models.Comment{},
	)
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Workspace operations

func (s *Store) CreateWorkspace(ctx context.Context, workspace *models.Workspace) error {
	return s.getDB().WithContext(ctx).Create(workspace).Error
}

func (s *Store) GetWorkspace(ctx context.Context, id models.WorkspaceID) (*models.Workspace, error) {
	var workspace models.Workspace
	err := s.getDB().WithContext(ctx).First(&workspace, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &workspace, nil
}

func (s *Store) UpdateWorkspace(ctx context.Context, workspace *models.Workspace) error {
	return s.getDB().WithContext(ctx).Save(workspace).Error
}

func (s *Store) DeleteWorkspace(ctx context.Context, id models.WorkspaceID) error {
	return s.getDB().WithContext(ctx).Delete(&models.Workspace{}, "id = ?", id).Error
}

func (s *Store) ListWorkspaces(ctx context.Context, ownerID models.UserID) ([]*models.Workspace, error) {
	workspaces := []*models.Workspace{}
	err := s.getDB().WithContext(ctx).Where("owner_id = ?", ownerID).Find(&workspaces).Error
	return workspaces, err
}

// Page operations

func (s *Store) CreatePage(ctx context.Context, page *models.Page) error {
	return s.getDB().WithContext(ctx).Create(page).Error
}

func (s *Store) GetPage(ctx context.Context, id models.PageID) (*models.Page, error) {
	var page models.Page
	err := s.getDB().WithContext(ctx).First(&page, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &page, nil
}

func (s *Store) UpdatePage(ctx context.Context, page *models.Page) error {
	return s.getDB().WithContext(ctx).Save(page).Error
}

// DeletePage removes the page and all of its blocks in one transaction.
// Child pages are kept and detached from the deleted parent.
func (s *Store) DeletePage(ctx context.Context, id models.PageID) error {
	return s.getDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("page_id = ?", id).Delete(&models.Block{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Page{}).Where("parent_page_id = ?", id).
			Update("parent_page_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Page{}, "id = ?", id).Error
	})
}

func (s *Store) ListPages(ctx context.Context, workspaceID models.WorkspaceID) ([]*models.Page, error) {
	pages := []*models.Page{}
	err := s.getDB().WithContext(ctx).Where("workspace_id = ?", workspaceID).Find(&pages).Error
	return pages, err
}

func (s *Store) ListChildPages(ctx context.Context, parentPageID models.PageID) ([]*models.Page, error) {
	pages := []*models.Page{}
	err := s.getDB().WithContext(ctx).Where("parent_page_id = ?", parentPageID).Find(&pages).Error
	return pages, err
}

// Block operations

func (s *Store) CreateBlock(ctx context.Context, block *models.Block) error {
	return s.getDB().WithContext(ctx).Create(block).Error
}

func (s *Store) GetBlock(ctx context.Context, id models.BlockID) (*models.Block, error) {
	var block models.Block
	err := s.getDB().WithContext(ctx).First(&block, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &block, nil
}

func (s *Store) UpdateBlock(ctx context.Context, block *models.Block) error {
	return s.getDB().WithContext(ctx).Save(block).Error
}

func (s *Store) DeleteBlock(ctx context.Context, id models.BlockID) error {
	return s.getDB().WithContext(ctx).Delete(&models.Block{}, "id = ?", id).Error
}

func (s *Store) DeleteBlocks(ctx context.Context, ids []models.BlockID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.getDB().WithContext(ctx).Delete(&models.Block{}, "id IN ?", ids).Error
}

func (s *Store) ListBlocks(ctx context.Context, pageID models.PageID) ([]*models.Block, error) {
	blocks := []*models.Block{}
	err := s.getDB().WithContext(ctx).
		Where("page_id = ?", pageID).
		Order("\"order\", created_at, id").
		Find(&blocks).Error
	return blocks, err
}

func (s *Store) UpdateBlockOrders(ctx context.Context, pageID models.PageID, updates []store.BlockOrder) error {
	if len(updates) == 0 {
		return nil
	}
	return s.getDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			res := tx.Model(&models.Block{}).
				Where("id = ? AND page_id = ?", u.BlockID, pageID).
				Updates(map[string]any{"order": u.Order, "updated_at": time.Now().UTC()})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("block %s not found on page %s", u.BlockID, pageID)
			}
		}
		return nil
	})
}

// User operations

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.getDB().WithContext(ctx).Create(user).Error
}

func (s *Store) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var user models.User
	err := s.getDB().WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.getDB().WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.getDB().WithContext(ctx).Save(user).Error
}

func (s *Store) DeleteUser(ctx context.Context, id models.UserID) error {
	return s.getDB().WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

// Permission operations

func (s *Store) CreatePermission(ctx context.Context, permission *models.Permission) error {
	return s.getDB().WithContext(ctx).Create(permission).Error
}

func (s *Store) GetPermission(ctx context.Context, id models.PermissionID) (*models.Permission, error) {
	var permission models.Permission
	err := s.getDB().WithContext(ctx).First(&permission, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &permission, nil
}

func (s *Store) GetPermissions(ctx context.Context, resourceType models.ResourceType, resourceID models.ResourceID) ([]*models.Permission, error) {
	permissions := []*models.Permission{}
	err := s.getDB().WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Find(&permissions).Error
	return permissions, err
}

func (s *Store) GetUserPermissions(ctx context.Context, userID models.UserID) ([]*models.Permission, error) {
	permissions := []*models.Permission{}
	err := s.getDB().WithContext(ctx).Where("user_id = ?", userID).Find(&permissions).Error
	return permissions, err
}

func (s *Store) UpdatePermission(ctx context.Context, permission *models.Permission) error {
	return s.getDB().WithContext(ctx).Save(permission).Error
}

func (s *Store) DeletePermission(ctx context.Context, id models.PermissionID) error {
	return s.getDB().WithContext(ctx).Delete(&models.Permission{}, "id = ?", id).Error
}

func (s *Store) CheckPermission(ctx context.Context, userID models.UserID, resourceType models.ResourceType, resourceID models.ResourceID, level models.PermissionLevel) (bool, error) {
	permissions := []*models.Permission{}
	err := s.getDB().WithContext(ctx).
		Where("user_id = ? AND resource_type = ? AND resource_id = ?", userID, resourceType, resourceID).
		Find(&permissions).Error
	if err != nil {
		return false, err
	}
	want := store.LevelRank(level)
	for _, p := range permissions {
		if store.LevelRank(p.PermissionLevel) >= want {
			return true, nil
		}
	}
	return false, nil
}

// Comment operations

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	return s.getDB().WithContext(ctx).Create(comment).Error
}

func (s *Store) GetComment(ctx context.Context, id models.CommentID) (*models.Comment, error) {
	var comment models.Comment
	err := s.getDB().WithContext(ctx).First(&comment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

func (s *Store) ListComments(ctx context.Context, blockID models.BlockID) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := s.getDB().WithContext(ctx).Where("block_id = ?", blockID).Order("created_at").Find(&comments).Error
	return comments, err
}

func (s *Store) UpdateComment(ctx context.Context, comment *models.Comment) error {
	return s.getDB().WithContext(ctx).Save(comment).Error
}

func (s *Store) DeleteComment(ctx context.Context, id models.CommentID) error {
	return s.getDB().WithContext(ctx).Delete(&models.Comment{}, "id = ?", id).Error
}

func (s *Store) ResolveComment(ctx context.Context, id models.CommentID) error {
	now := time.Now().UTC()
	return s.getDB().WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", id).
		Update("resolved_at", &now).Error
}
