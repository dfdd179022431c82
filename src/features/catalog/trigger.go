package catalog

import (
	"context"
	"sync/atomic"
)

// Trigger decides when a visible end-of-list sentinel loads another page.
// It fires only while more pages remain and no fetch is in flight.
type Trigger struct {
	coordinator *Coordinator
	inFlight    atomic.Bool
	closed      atomic.Bool
}

// NewTrigger registers a trigger over the coordinator.
func NewTrigger(c *Coordinator) *Trigger {
	return &Trigger{coordinator: c}
}

// Visible is called when the sentinel enters view. fired is false when the
// trigger declined to fetch.
func (t *Trigger) Visible(ctx context.Context) (page Page, fired bool, err error) {
	if t.closed.Load() || !t.coordinator.HasMore() {
		return Page{}, false, nil
	}
	if !t.inFlight.CompareAndSwap(false, true) {
		return Page{}, false, nil
	}
	defer t.inFlight.Store(false)

	page, err = t.coordinator.LoadNextPage(ctx)
	if t.closed.Load() {
		return Page{}, false, nil
	}
	return page, true, err
}

// InFlight reports whether a fetch started by the trigger is running.
func (t *Trigger) InFlight() bool { return t.inFlight.Load() }

// Close deregisters the trigger. Later visibility events are ignored.
func (t *Trigger) Close() { t.closed.Store(true) }
