package source

import "sync/atomic"

// Budget is the shared call counter concurrent workers draw from. The
// counter, not a lock, coordinates when a sweep stops: once it reads zero,
// every worker winds down and the run reports a resumption cursor.
type Budget struct {
	capacity  int64
	remaining atomic.Int64
}

func NewBudget(calls int) *Budget {
	b := &Budget{capacity: int64(calls)}
	b.remaining.Store(int64(calls))
	return b
}

// TryAcquire takes one call from the budget, reporting false when none are
// left. A nil budget never limits.
func (b *Budget) TryAcquire() bool {
	if b == nil {
		return true
	}
	for {
		current := b.remaining.Load()
		if current <= 0 {
			return false
		}
		if b.remaining.CompareAndSwap(current, current-1) {
			return true
		}
	}
}

func (b *Budget) Remaining() int {
	if b == nil {
		return 0
	}
	if current := b.remaining.Load(); current > 0 {
		return int(current)
	}
	return 0
}

func (b *Budget) Used() int {
	if b == nil {
		return 0
	}
	return int(b.capacity) - b.Remaining()
}
