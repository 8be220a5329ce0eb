package arbiter

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/boost"
)

// timeoutItem is one pending vote deadline.
type timeoutItem struct {
	sessionID int64
	vote      boost.VoteID
	deadline  time.Time
}

// timeoutQueue is a min-heap of vote deadlines.
type timeoutQueue []timeoutItem

func (q timeoutQueue) Len() int           { return len(q) }
func (q timeoutQueue) Less(i, j int) bool { return q[i].deadline.Before(q[j].deadline) }
func (q timeoutQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *timeoutQueue) Push(x any)        { *q = append(*q, x.(timeoutItem)) }
func (q *timeoutQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// timeoutWorker wakes at the earliest pending vote deadline and hands
// due votes back to the manager. Deadlines that moved while queued are
// re-armed by the manager's handler.
type timeoutWorker struct {
	mgr *Manager

	mu    sync.Mutex
	queue timeoutQueue
	wake  chan struct{}
}

func newTimeoutWorker(m *Manager) *timeoutWorker {
	return &timeoutWorker{
		mgr:  m,
		wake: make(chan struct{}, 1),
	}
}

// schedule queues a wakeup for the vote's deadline.
func (w *timeoutWorker) schedule(sessionID int64, vote boost.VoteID, deadline time.Time) {
	w.mu.Lock()
	heap.Push(&w.queue, timeoutItem{sessionID: sessionID, vote: vote, deadline: deadline})
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *timeoutWorker) run(ctx context.Context) {
	for {
		w.mu.Lock()
		hasNext := len(w.queue) > 0
		var next time.Time
		if hasNext {
			next = w.queue[0].deadline
		}
		w.mu.Unlock()

		if !hasNext {
			select {
			case <-ctx.Done():
				return
			case <-w.wake:
			}
			continue
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-w.wake:
			// A new deadline may be earlier; re-evaluate.
			timer.Stop()
		case <-timer.C:
			for _, item := range w.popDue(time.Now()) {
				w.mgr.handleVoteTimeout(item.sessionID, item.vote)
			}
		}
	}
}

// popDue removes and returns every queued item whose deadline has
// passed.
func (w *timeoutWorker) popDue(now time.Time) []timeoutItem {
	w.mu.Lock()
	defer w.mu.Unlock()

	var due []timeoutItem
	for len(w.queue) > 0 && !w.queue[0].deadline.After(now) {
		due = append(due, heap.Pop(&w.queue).(timeoutItem))
	}
	return due
}
