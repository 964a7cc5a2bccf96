package collab

import (
	"context"

	"github.com/notebase/notebase/pkg/editor"
	"github.com/notebase/notebase/pkg/models"
)

// Bridge adapts the hub to the editor's publisher contract, turning each
// committed change record into a block-updated event for the page's room.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge { return &Bridge{hub: hub} }

func (b *Bridge) Publish(_ context.Context, rec editor.ChangeRecord) {
	payload := models.JSONMap{
		"op":      string(rec.Op),
		"blockId": rec.BlockID.String(),
	}
	if rec.Payload != nil {
		payload["change"] = map[string]any(rec.Payload)
	}
	if len(rec.Deleted) > 0 {
		ids := make([]any, 0, len(rec.Deleted))
		for _, id := range rec.Deleted {
			ids = append(ids, id.String())
		}
		payload["deleted"] = ids
	}
	b.hub.Publish(&Event{
		Kind:    KindBlockUpdated,
		PageID:  rec.PageID,
		ActorID: rec.ActorID,
		Payload: payload,
		At:      rec.Timestamp,
	})
}
