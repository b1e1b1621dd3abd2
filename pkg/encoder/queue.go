package encoder

import (
	"sync"
	"sync/atomic"

	"github.com/lmshao/remote-desk/pkg/frame"
)

// frameQueue is a bounded drop-oldest queue: when full, Enqueue evicts the oldest pending
// frame rather than refusing the newest one, because a stale frame is
// worse to encode than a fresh one dropped in its favor.
type frameQueue struct {
	mu      sync.Mutex
	items   []*frame.Frame
	max     int
	dropped atomic.Uint64
	signal  chan struct{}
}

func newFrameQueue(max int) *frameQueue {
	return &frameQueue{max: max, signal: make(chan struct{}, 1)}
}

func (q *frameQueue) Enqueue(f *frame.Frame) {
	q.mu.Lock()
	if len(q.items) >= q.max {
		q.items = q.items[1:]
		q.dropped.Add(1)
	}
	q.items = append(q.items, f)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *frameQueue) Dequeue() (*frame.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	f := q.items[0]
	q.items = q.items[1:]
	return f, true
}

func (q *frameQueue) Dropped() uint64 { return q.dropped.Load() }
