package sweep

import (
	"sync"

	"github.com/bodelab/bodesweep/pkg/models"
)

// Tracker is an Observer that keeps the latest session snapshot behind a
// lock, so the monitor API can read progress while the engine (which is
// strictly single-threaded) keeps sweeping.
type Tracker struct {
	mu     sync.RWMutex
	latest *models.SweepSession
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SessionUpdated stores the snapshot. Implements Observer.
func (t *Tracker) SessionUpdated(s models.SweepSession) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = &s
}

// Latest returns the most recent snapshot, if any sweep has started.
func (t *Tracker) Latest() (models.SweepSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.latest == nil {
		return models.SweepSession{}, false
	}
	return *t.latest, true
}
