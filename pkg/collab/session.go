package collab

import (
	"sync"
	"sync/atomic"

	"github.com/notebase/notebase/pkg/models"
)

// sendBuffer is the per-session outbound queue depth. A session that falls
// this far behind starts losing events instead of stalling the page.
const sendBuffer = 64

// Session is one subscriber on a page. Events arrive on Events in
// broadcast order; delivery is at-most-once and a slow consumer is
// skipped, never waited on.
type Session struct {
	UserID models.UserID
	PageID models.PageID
	Codec  Codec

	events  chan *Event
	dropped atomic.Uint64

	closeOnce sync.Once
}

func newSession(userID models.UserID, pageID models.PageID, codec Codec) *Session {
	return &Session{
		UserID: userID,
		PageID: pageID,
		Codec:  codec,
		events: make(chan *Event, sendBuffer),
	}
}

// Events is the session's outbound stream. It is closed when the session
// is unsubscribed.
func (s *Session) Events() <-chan *Event { return s.events }

// Dropped reports how many events were discarded because the session's
// buffer was full.
func (s *Session) Dropped() uint64 { return s.dropped.Load() }

// deliver enqueues without blocking. The hub holds the room lock here, so
// waiting on one slow session would stall every session on the page.
func (s *Session) deliver(ev *Event) {
	select {
	case s.events <- ev:
	default:
		s.dropped.Add(1)
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.events) })
}
