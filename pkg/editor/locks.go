package editor

import (
	"context"
	"sync"
	"time"

	"github.com/notebase/notebase/pkg/models"
)

// pageLocks hands out one writer lock per page. Entries are reference
// counted and dropped once the last waiter leaves, so the map stays
// proportional to the set of pages being edited right now.
type pageLocks struct {
	mu    sync.Mutex
	locks map[models.PageID]*pageLock
}

type pageLock struct {
	sem  chan struct{}
	refs int
}

func newPageLocks() *pageLocks {
	return &pageLocks{locks: make(map[models.PageID]*pageLock)}
}

// acquire takes the page's writer lock, waiting at most wait. It returns
// ErrBusy when the lock stays held past the deadline and the context error
// when the caller gives up first.
func (p *pageLocks) acquire(ctx context.Context, id models.PageID, wait time.Duration) error {
	p.mu.Lock()
	l, ok := p.locks[id]
	if !ok {
		l = &pageLock{sem: make(chan struct{}, 1)}
		p.locks[id] = l
	}
	l.refs++
	p.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		return nil
	case <-timer.C:
		p.drop(id, l)
		return ErrBusy
	case <-ctx.Done():
		p.drop(id, l)
		return ctx.Err()
	}
}

func (p *pageLocks) release(id models.PageID) {
	p.mu.Lock()
	l, ok := p.locks[id]
	p.mu.Unlock()
	if !ok {
		return
	}
	<-l.sem
	p.drop(id, l)
}

func (p *pageLocks) drop(id models.PageID, l *pageLock) {
	p.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(p.locks, id)
	}
	p.mu.Unlock()
}
