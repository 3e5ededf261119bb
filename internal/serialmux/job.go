package serialmux

import (
	"container/heap"
	"sync"

	"github.com/google/uuid"
)

// Priority orders jobs within a port's queue. All pending high-priority
// jobs are dequeued before any low-priority job; equal priorities preserve
// submission order.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityLow
)

type jobKind int

const (
	jobWrite jobKind = iota
	jobQuery
	jobClose
)

// jobResult is delivered exactly once per job on the job's done channel.
type jobResult struct {
	line string
	err  error
}

// job is a unit of work submitted to a PortMux worker. The message and
// metadata are immutable after construction; only the buffered done channel
// carries state back to the caller. An abandoned job is reclaimed by the
// garbage collector together with its channel, so orphaned results cannot
// accumulate in the mux.
type job struct {
	id       string
	kind     jobKind
	message  []byte
	priority Priority
	seq      uint64
	done     chan jobResult
}

func newJob(kind jobKind, msg []byte, pri Priority) *job {
	return &job{
		id:       uuid.NewString(),
		kind:     kind,
		message:  msg,
		priority: pri,
		done:     make(chan jobResult, 1),
	}
}

// jobQueue is the only structure shared between caller goroutines and a
// port's worker. It is a blocking priority queue: pop waits until a job is
// available, push wakes the worker.
type jobQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending jobHeap
	seq     uint64
	closed  bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *jobQueue) push(j *job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrMuxClosed
	}
	q.seq++
	j.seq = q.seq
	heap.Push(&q.pending, j)
	q.cond.Signal()
	return nil
}

// pop returns the highest-priority, earliest-submitted pending job. When
// draining is false it blocks until a job arrives; when true it returns nil
// once the queue is empty.
func (q *jobQueue) pop(draining bool) *job {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) == 0 {
		if draining {
			return nil
		}
		q.cond.Wait()
	}
	return heap.Pop(&q.pending).(*job)
}

// stop rejects all future pushes. Jobs already queued remain poppable.
func (q *jobQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// jobHeap orders by (priority, submission sequence).
type jobHeap []*job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(*job)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return j
}
