package editor

import (
	"context"
	"time"

	"github.com/notebase/notebase/pkg/models"
)

// OpKind names a mutation applied to a page.
type OpKind string

const (
	OpInsert        OpKind = "insert"
	OpUpdateContent OpKind = "update_content"
	OpDelete        OpKind = "delete"
	OpReorder       OpKind = "reorder"
	OpReparent      OpKind = "reparent"
	OpSaveTree      OpKind = "save_tree"
)

// ChangeRecord describes one committed mutation. Records for a page are
// published in the order their mutations were applied; the engine emits
// each record before releasing the page's writer lock.
type ChangeRecord struct {
	Op        OpKind           `json:"op"`
	PageID    models.PageID    `json:"page_id"`
	BlockID   models.BlockID   `json:"block_id"`
	ActorID   models.UserID    `json:"actor_id"`
	Payload   models.JSONMap   `json:"payload,omitempty"`
	Deleted   []models.BlockID `json:"deleted,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Publisher receives committed change records. Implementations must not
// block; the engine calls Publish while holding the page's writer lock.
type Publisher interface {
	Publish(ctx context.Context, rec ChangeRecord)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, rec ChangeRecord)

func (f PublisherFunc) Publish(ctx context.Context, rec ChangeRecord) { f(ctx, rec) }

// Authorizer answers page-level access questions for the engine.
type Authorizer interface {
	CanRead(ctx context.Context, user models.UserID, page models.PageID) (bool, error)
	CanWrite(ctx context.Context, user models.UserID, page models.PageID) (bool, error)
}
