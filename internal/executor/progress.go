package executor

import (
	"sync"

	"github.com/goliatone/go-bulk/internal/domain"
)

// tracker owns the progress of one batch. Callbacks run one at a time and
// observe Current counting up by one per resolved item.
type tracker struct {
	emitMu   sync.Mutex
	mu       sync.RWMutex
	state    Progress
	callback ProgressFunc
}

func newTracker(total int, callback ProgressFunc) *tracker {
	return &tracker{
		state:    Progress{Total: total, Status: domain.BatchStatusIdle},
		callback: callback,
	}
}

func (t *tracker) snapshot() Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *tracker) status() domain.BatchStatus {
	return t.snapshot().Status
}

// advance moves Current forward. Smaller values are ignored.
func (t *tracker) advance(current int) {
	t.update(func(p *Progress) bool {
		if current <= p.Current || current > p.Total {
			return false
		}
		p.Current = current
		return true
	})
}

// transition moves the batch to next when the lifecycle allows it.
func (t *tracker) transition(next domain.BatchStatus) bool {
	return t.update(func(p *Progress) bool {
		if !p.Status.CanTransition(next) {
			return false
		}
		p.Status = next
		return true
	})
}

// finish adjusts Total to the attempted count and emits the terminal status.
func (t *tracker) finish(attempted int, next domain.BatchStatus) {
	t.update(func(p *Progress) bool {
		if !p.Status.CanTransition(next) {
			return false
		}
		p.Total = attempted
		p.Current = attempted
		p.Status = next
		return true
	})
}

func (t *tracker) update(fn func(*Progress) bool) bool {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	changed := fn(&t.state)
	snapshot := t.state
	t.mu.Unlock()

	if changed && t.callback != nil {
		t.callback(snapshot)
	}
	return changed
}
