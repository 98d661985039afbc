package client

import (
	"sort"
	"sync"

	"github.com/twitter/sjf/scheduler/domain"
)

// View is a client-side copy of the job list, reconciled from a snapshot
// and a stream of job updates that may overlap it or arrive out of order.
//
// Jobs are keyed by id. An incoming value replaces the known one only if its
// Revision is higher; equal revisions are the same committed value. Replayed,
// reordered or interleaved events therefore converge on the latest value of
// every job.
type View struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
	seq  uint64
}

func NewView() *View {
	return &View{jobs: make(map[string]domain.Job)}
}

// Upsert applies one job value. Returns whether the view changed.
func (v *View) Upsert(job domain.Job) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.upsertLocked(job)
}

func (v *View) upsertLocked(job domain.Job) bool {
	known, ok := v.jobs[job.ID]
	// an equal revision is the same committed value
	if ok && job.Revision <= known.Revision {
		return false
	}
	v.jobs[job.ID] = job.Clone()
	return true
}

// Load merges a snapshot taken at feed sequence seq. Jobs already in the view
// are kept if they are newer than the snapshot's copy.
func (v *View) Load(jobs []domain.Job, seq uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, j := range jobs {
		v.upsertLocked(j)
	}
	if seq > v.seq {
		v.seq = seq
	}
}

// Seq is the highest snapshot sequence loaded so far.
func (v *View) Seq() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.seq
}

func (v *View) Get(id string) (domain.Job, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	j, ok := v.jobs[id]
	return j.Clone(), ok
}

func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.jobs)
}

// Jobs returns the view in submission order (createdAt, then id).
func (v *View) Jobs() []domain.Job {
	v.mu.RLock()
	out := make([]domain.Job, 0, len(v.jobs))
	for _, j := range v.jobs {
		out = append(out, j.Clone())
	}
	v.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.Before(out[k].CreatedAt)
		}
		return out[i].ID < out[k].ID
	})
	return out
}
