// Package store holds the backends a JobStore writes through to.
package store

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/twitter/sjf/scheduler/domain"
)

// Backend persists committed job values. Callers serialize writes, so
// implementations need not order concurrent Insert/Update calls themselves,
// but All must return jobs in the order they were inserted.
type Backend interface {
	Insert(job domain.Job) error
	Update(job domain.Job) error
	All() ([]domain.Job, error)
	Close() error
}

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("store: backend closed")

// Memory backend, an ordered slice plus an index into it.
type memoryBackend struct {
	mu     sync.RWMutex
	jobs   []domain.Job
	index  map[string]int
	closed bool
}

// NewMemoryBackend returns an empty, non-durable Backend.
func NewMemoryBackend() Backend {
	return &memoryBackend{index: make(map[string]int)}
}

func (m *memoryBackend) Insert(job domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.index[job.ID]; ok {
		return errors.Errorf("store: duplicate job id %q", job.ID)
	}
	m.index[job.ID] = len(m.jobs)
	m.jobs = append(m.jobs, job.Clone())
	return nil
}

func (m *memoryBackend) Update(job domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	i, ok := m.index[job.ID]
	if !ok {
		return domain.NewNotFound(job.ID)
	}
	m.jobs[i] = job.Clone()
	return nil
}

func (m *memoryBackend) All() ([]domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]domain.Job, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = j.Clone()
	}
	return out, nil
}

func (m *memoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
