package server

import (
	"container/heap"

	"github.com/twitter/sjf/scheduler/domain"
)

// sjfQueue holds Pending jobs ordered by domain.Job.RunsBefore.
// Only the scheduler loop touches it.
type sjfQueue struct {
	h jobHeap
}

func newSJFQueue() *sjfQueue {
	return &sjfQueue{}
}

func (q *sjfQueue) Len() int { return q.h.Len() }

func (q *sjfQueue) Push(job domain.Job) {
	heap.Push(&q.h, job)
}

// Pop removes the job that should run next. ok is false when empty.
func (q *sjfQueue) Pop() (job domain.Job, ok bool) {
	if q.h.Len() == 0 {
		return domain.Job{}, false
	}
	return heap.Pop(&q.h).(domain.Job), true
}

func (q *sjfQueue) Peek() (domain.Job, bool) {
	if q.h.Len() == 0 {
		return domain.Job{}, false
	}
	return q.h[0], true
}

type jobHeap []domain.Job

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].RunsBefore(h[j]) }
func (h jobHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x interface{}) { *h = append(*h, x.(domain.Job)) }
func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
