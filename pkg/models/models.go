package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PermissionLevel represents the access level for a resource
type PermissionLevel string

const (
	PermissionRead  PermissionLevel = "read"
	PermissionWrite PermissionLevel = "write"
	PermissionAdmin PermissionLevel = "admin"
)

// ResourceType represents the type of resource for permissions
type ResourceType string

const (
	ResourceWorkspace ResourceType = "workspace"
	ResourcePage      ResourceType = "page"
)

// JSONMap is the persisted form of a block's content payload. The shape
// varies by block type (a text block carries "text", an image block carries
// "url"/"alt"/"caption"), so it is stored as a schemaless JSONB column and
// decoded into the typed variant for the block type when validated.
type JSONMap map[string]any

// Value implements the driver.Valuer interface for database storage
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for database retrieval
func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = make(map[string]any)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, j)
}

// Workspace is the top-level container for pages and memberships.
type Workspace struct {
	ID        WorkspaceID    `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	OwnerID   UserID         `gorm:"type:uuid;not null" json:"owner_id"`
	Owner     *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.ID.IsZero() {
		w.ID = NewWorkspaceID()
	}
	return nil
}

// Page is a named document owning an ordered forest of blocks. A page may be
// nested under another page (cross-document hierarchy), which is distinct
// from the block hierarchy inside a single page.
type Page struct {
	ID           PageID         `gorm:"type:uuid;primary_key" json:"id"`
	WorkspaceID  WorkspaceID    `gorm:"type:uuid;not null" json:"workspace_id"`
	Workspace    *Workspace     `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	ParentPageID *PageID        `gorm:"type:uuid" json:"parent_page_id,omitempty"`
	ParentPage   *Page          `gorm:"foreignKey:ParentPageID" json:"parent_page,omitempty"`
	Title        string         `gorm:"not null" json:"title"`
	Icon         string         `json:"icon,omitempty"`
	CoverImage   string         `json:"cover_image,omitempty"`
	CreatedBy    UserID         `gorm:"type:uuid;not null" json:"created_by"`
	Creator      *User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Properties   JSONMap        `gorm:"type:jsonb" json:"properties,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if p.ID.IsZero() {
		p.ID = NewPageID()
	}
	return nil
}

// Block is the atomic content unit and the node of the page tree.
//
// Order is a fractional sort key that is unique only within the sibling
// group (PageID, ParentBlockID); ties are broken by CreatedAt and then ID.
// Gaps between keys are intentional so a reorder can usually rewrite a
// single row instead of the whole group.
type Block struct {
	ID            BlockID        `gorm:"type:uuid;primary_key" json:"id"`
	PageID        PageID         `gorm:"type:uuid;not null;index" json:"page_id"`
	Page          *Page          `gorm:"foreignKey:PageID" json:"page,omitempty"`
	Type          BlockType      `gorm:"not null" json:"type"`
	Content       JSONMap        `gorm:"type:jsonb" json:"content"`
	Order         float64        `gorm:"not null" json:"order"`
	ParentBlockID *BlockID       `gorm:"type:uuid" json:"parent_block_id,omitempty"`
	ParentBlock   *Block         `gorm:"foreignKey:ParentBlockID" json:"parent_block,omitempty"`
	CreatedBy     UserID         `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (b *Block) BeforeCreate(tx *gorm.DB) error {
	if b.ID.IsZero() {
		b.ID = NewBlockID()
	}
	return nil
}

// User represents a user account
type User struct {
	ID        UserID         `gorm:"type:uuid;primary_key" json:"id"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Name      string         `gorm:"not null" json:"name"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID.IsZero() {
		u.ID = NewUserID()
	}
	return nil
}

// Permission grants a user a level of access to a workspace or page.
type Permission struct {
	ID              PermissionID    `gorm:"type:uuid;primary_key" json:"id"`
	ResourceType    ResourceType    `gorm:"not null" json:"resource_type"`
	ResourceID      ResourceID      `gorm:"type:uuid;not null" json:"resource_id"`
	UserID          UserID          `gorm:"type:uuid;not null" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PermissionLevel PermissionLevel `gorm:"not null" json:"permission_level"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (p *Permission) BeforeCreate(tx *gorm.DB) error {
	if p.ID.IsZero() {
		p.ID = NewPermissionID()
	}
	return nil
}

// Comment represents a comment on a block
type Comment struct {
	ID         CommentID      `gorm:"type:uuid;primary_key" json:"id"`
	BlockID    BlockID        `gorm:"type:uuid;not null" json:"block_id"`
	Block      *Block         `gorm:"foreignKey:BlockID" json:"block,omitempty"`
	UserID     UserID         `gorm:"type:uuid;not null" json:"user_id"`
	User       *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewCommentID()
	}
	return nil
}
