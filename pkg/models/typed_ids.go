package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Typed IDs wrap uuid.UUID so that a PageID can never be passed where a
// BlockID is expected. Each type implements JSON, CBOR, driver.Valuer,
// sql.Scanner and GormDataType so the same value travels unchanged through
// the HTTP API, the websocket wire and the database.

// WorkspaceID is a typed ID for workspaces
type WorkspaceID struct {
	uuid uuid.UUID
}

func NewWorkspaceID() WorkspaceID {
	return WorkspaceID{uuid: uuid.New()}
}

func NewWorkspaceIDFromUUID(id uuid.UUID) WorkspaceID {
	return WorkspaceID{uuid: id}
}

func ParseWorkspaceID(s string) (WorkspaceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return WorkspaceID{}, fmt.Errorf("invalid workspace ID: %w", err)
	}
	return WorkspaceID{uuid: id}, nil
}

func (w WorkspaceID) UUID() uuid.UUID { return w.uuid }
func (w WorkspaceID) String() string  { return w.uuid.String() }
func (w WorkspaceID) IsZero() bool    { return w.uuid == uuid.Nil }

func (w WorkspaceID) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.uuid.String())
}

func (w *WorkspaceID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &w.uuid)
}

func (w WorkspaceID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(w.uuid.String())
}

func (w *WorkspaceID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, &w.uuid)
}

func (w WorkspaceID) Value() (driver.Value, error) {
	if w.IsZero() {
		return nil, nil
	}
	return w.uuid.String(), nil
}

func (w *WorkspaceID) Scan(value any) error {
	return scanUUID(value, &w.uuid)
}

func (WorkspaceID) GormDataType() string { return "uuid" }

// PageID is a typed ID for pages
type PageID struct {
	uuid uuid.UUID
}

func NewPageID() PageID {
	return PageID{uuid: uuid.New()}
}

func NewPageIDFromUUID(id uuid.UUID) PageID {
	return PageID{uuid: id}
}

func ParsePageID(s string) (PageID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return PageID{}, fmt.Errorf("invalid page ID: %w", err)
	}
	return PageID{uuid: id}, nil
}

func (p PageID) UUID() uuid.UUID { return p.uuid }
func (p PageID) String() string  { return p.uuid.String() }
func (p PageID) IsZero() bool    { return p.uuid == uuid.Nil }

func (p PageID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.uuid.String())
}

func (p *PageID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &p.uuid)
}

func (p PageID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(p.uuid.String())
}

func (p *PageID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, &p.uuid)
}

func (p PageID) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return p.uuid.String(), nil
}

func (p *PageID) Scan(value any) error {
	return scanUUID(value, &p.uuid)
}

func (PageID) GormDataType() string { return "uuid" }

// BlockID is a typed ID for blocks
type BlockID struct {
	uuid uuid.UUID
}

func NewBlockID() BlockID {
	return BlockID{uuid: uuid.New()}
}

func NewBlockIDFromUUID(id uuid.UUID) BlockID {
	return BlockID{uuid: id}
}

func ParseBlockID(s string) (BlockID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return BlockID{}, fmt.Errorf("invalid block ID: %w", err)
	}
	return BlockID{uuid: id}, nil
}

func (b BlockID) UUID() uuid.UUID { return b.uuid }
func (b BlockID) String() string  { return b.uuid.String() }
func (b BlockID) IsZero() bool    { return b.uuid == uuid.Nil }

func (b BlockID) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.uuid.String())
}

func (b *BlockID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &b.uuid)
}

func (b BlockID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(b.uuid.String())
}

func (b *BlockID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, &b.uuid)
}

func (b BlockID) Value() (driver.Value, error) {
	if b.IsZero() {
		return nil, nil
	}
	return b.uuid.String(), nil
}

func (b *BlockID) Scan(value any) error {
	return scanUUID(value, &b.uuid)
}

func (BlockID) GormDataType() string { return "uuid" }

// UserID is a typed ID for users
type UserID struct {
	uuid uuid.UUID
}

func NewUserID() UserID {
	return UserID{uuid: uuid.New()}
}

func NewUserIDFromUUID(id uuid.UUID) UserID {
	return UserID{uuid: id}
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user ID: %w", err)
	}
	return UserID{uuid: id}, nil
}

func (u UserID) UUID() uuid.UUID { return u.uuid }
func (u UserID) String() string  { return u.uuid.String() }
func (u UserID) IsZero() bool    { return u.uuid == uuid.Nil }

func (u UserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.uuid.String())
}

func (u *UserID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &u.uuid)
}

func (u UserID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(u.uuid.String())
}

func (u *UserID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, &u.uuid)
}

func (u UserID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.uuid.String(), nil
}

func (u *UserID) Scan(value any) error {
	return scanUUID(value, &u.uuid)
}

func (UserID) GormDataType() string { return "uuid" }

// PermissionID is a typed ID for permissions
type PermissionID struct {
	uuid uuid.UUID
}

func NewPermissionID() PermissionID {
	return PermissionID{uuid: uuid.New()}
}

func ParsePermissionID(s string) (PermissionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return PermissionID{}, fmt.Errorf("invalid permission ID: %w", err)
	}
	return PermissionID{uuid: id}, nil
}

func (p PermissionID) UUID() uuid.UUID { return p.uuid }
func (p PermissionID) String() string  { return p.uuid.String() }
func (p PermissionID) IsZero() bool    { return p.uuid == uuid.Nil }

func (p PermissionID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.uuid.String())
}

func (p *PermissionID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &p.uuid)
}

func (p PermissionID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(p.uuid.String())
}

func (p *PermissionID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, &p.uuid)
}

func (p PermissionID) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return p.uuid.String(), nil
}

func (p *PermissionID) Scan(value any) error {
	return scanUUID(value, &p.uuid)
}

func (PermissionID) GormDataType() string { return "uuid" }

// CommentID is a typed ID for comments
type CommentID struct {
	uuid uuid.UUID
}

func NewCommentID() CommentID {
	return CommentID{uuid: uuid.New()}
}

func ParseCommentID(s string) (CommentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CommentID{}, fmt.Errorf("invalid comment ID: %w", err)
	}
	return CommentID{uuid: id}, nil
}

func (c CommentID) UUID() uuid.UUID { return c.uuid }
func (c CommentID) String() string  { return c.uuid.String() }
func (c CommentID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c CommentID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *CommentID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &c.uuid)
}

func (c CommentID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(c.uuid.String())
}

func (c *CommentID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, &c.uuid)
}

func (c CommentID) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return c.uuid.String(), nil
}

func (c *CommentID) Scan(value any) error {
	return scanUUID(value, &c.uuid)
}

func (CommentID) GormDataType() string { return "uuid" }

// ResourceID is an untyped ID used by permissions that may reference either
// a workspace or a page. The resource type column disambiguates it.
type ResourceID struct {
	uuid uuid.UUID
}

func NewResourceIDFromUUID(id uuid.UUID) ResourceID {
	return ResourceID{uuid: id}
}

func ParseResourceID(s string) (ResourceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ResourceID{}, fmt.Errorf("invalid resource ID: %w", err)
	}
	return ResourceID{uuid: id}, nil
}

func (r ResourceID) UUID() uuid.UUID { return r.uuid }
func (r ResourceID) String() string  { return r.uuid.String() }
func (r ResourceID) IsZero() bool    { return r.uuid == uuid.Nil }

func (r ResourceID) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.uuid.String())
}

func (r *ResourceID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &r.uuid)
}

func (r ResourceID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(r.uuid.String())
}

func (r *ResourceID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, &r.uuid)
}

func (r ResourceID) Value() (driver.Value, error) {
	if r.IsZero() {
		return nil, nil
	}
	return r.uuid.String(), nil
}

func (r *ResourceID) Scan(value any) error {
	return scanUUID(value, &r.uuid)
}

func (ResourceID) GormDataType() string { return "uuid" }

func unmarshalJSONID(data []byte, dst *uuid.UUID) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*dst = id
	return nil
}

func unmarshalCBORID(data []byte, dst *uuid.UUID) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*dst = id
	return nil
}

func scanUUID(value any, dst *uuid.UUID) error {
	if value == nil {
		*dst = uuid.Nil
		return nil
	}
	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*dst = id
	case []byte:
		id, err := uuid.Parse(string(v))
		if err != nil {
			return err
		}
		*dst = id
	default:
		return fmt.Errorf("cannot scan %T into uuid", value)
	}
	return nil
}
