// Package collab fans committed page changes and presence events out to
// live subscribers. Each page is a room; each connection is a Session with
// a bounded buffer. Delivery is at-most-once: a subscriber that cannot
// keep up loses events rather than slowing the page down, and clients
// recover by re-fetching the tree.
package collab

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/notebase/notebase/pkg/models"
)

// Hub owns every room and session.
type Hub struct {
	mu    sync.RWMutex
	rooms map[models.PageID]map[*Session]struct{}
	log   zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[models.PageID]map[*Session]struct{}),
		log:   log,
	}
}

// Subscribe joins a user to a page room and announces the join to the
// sessions already there. The same user may hold several sessions on one
// page, one per connection.
func (h *Hub) Subscribe(pageID models.PageID, userID models.UserID, codec Codec) *Session {
	s := newSession(userID, pageID, codec)

	h.mu.Lock()
	room, ok := h.rooms[pageID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[pageID] = room
	}
	room[s] = struct{}{}
	h.mu.Unlock()

	h.log.Debug().
		Str("page", pageID.String()).
		Str("user", userID.String()).
		Msg("session joined")

	h.announce(&Event{
		Kind:    KindUserJoined,
		PageID:  pageID,
		ActorID: userID,
		At:      time.Now().UTC(),
	}, s)
	return s
}

// Unsubscribe removes the session, closing its event stream, and announces
// the leave to the rest of the room. Unsubscribing twice is a no-op.
func (h *Hub) Unsubscribe(s *Session) {
	h.mu.Lock()
	room, ok := h.rooms[s.PageID]
	if ok {
		if _, member := room[s]; !member {
			ok = false
		} else {
			delete(room, s)
			if len(room) == 0 {
				delete(h.rooms, s.PageID)
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	s.close()

	h.log.Debug().
		Str("page", s.PageID.String()).
		Str("user", s.UserID.String()).
		Uint64("dropped", s.Dropped()).
		Msg("session left")

	h.announce(&Event{
		Kind:    KindUserLeft,
		PageID:  s.PageID,
		ActorID: s.UserID,
		At:      time.Now().UTC(),
	}, s)
}

// Publish fans the event out to every session in the page's room except
// those owned by the originating actor, which already applied the change
// locally.
func (h *Hub) Publish(ev *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.rooms[ev.PageID] {
		if s.UserID == ev.ActorID {
			continue
		}
		s.deliver(ev)
	}
}

// announce delivers a presence event to every session in the room except
// the one it is about. Presence is tracked per connection, so a user's
// other sessions still hear that user's own joins and leaves.
func (h *Hub) announce(ev *Event, except *Session) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.rooms[ev.PageID] {
		if s == except {
			continue
		}
		s.deliver(ev)
	}
}

// Presence lists the distinct users currently subscribed to a page.
func (h *Hub) Presence(pageID models.PageID) []models.UserID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[models.UserID]struct{})
	out := []models.UserID{}
	for s := range h.rooms[pageID] {
		if _, ok := seen[s.UserID]; ok {
			continue
		}
		seen[s.UserID] = struct{}{}
		out = append(out, s.UserID)
	}
	return out
}
