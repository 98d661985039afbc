// Package domain provides definitions for sjf Jobs and their lifecycle.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// JobDefinition is the definition the client sent us
type JobDefinition struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

func (jd JobDefinition) String() string {
	return fmt.Sprintf("name:%q, duration:%s", jd.Name, jd.Duration)
}

// ValidateJob returns an *InvalidInput error if the definition can't be admitted.
func ValidateJob(def JobDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return NewInvalidInput("invalid job. Name must be non-empty; was %q", def.Name)
	}
	if def.Duration < 0 {
		return NewInvalidInput("invalid job. Duration must be >= 0ns; was %d", int64(def.Duration))
	}
	return nil
}

// Job is one submitted job and its current state. Values handed out by the
// store are copies; mutating them has no effect on the store.
type Job struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Duration    time.Duration `json:"duration"`
	Status      Status        `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	StartedAt   *time.Time    `json:"startedAt"`
	CompletedAt *time.Time    `json:"completedAt"`

	// Revision starts at 1 and grows by one with every committed mutation.
	Revision uint64 `json:"revision"`
}

// NewJob returns a Pending job at revision 1.
func NewJob(id string, def JobDefinition, createdAt time.Time) Job {
	return Job{
		ID:        id,
		Name:      def.Name,
		Duration:  def.Duration,
		Status:    Pending,
		CreatedAt: createdAt,
		Revision:  1,
	}
}

func (j Job) String() string {
	return fmt.Sprintf("id:%s, name:%q, duration:%s, status:%s, rev:%d", j.ID, j.Name, j.Duration, j.Status, j.Revision)
}

// Clone copies j including the timestamps it points to.
func (j Job) Clone() Job {
	c := j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

// RunsBefore orders jobs for SJF dispatch: shorter duration first, then
// earlier creation, then smaller id.
func (j Job) RunsBefore(o Job) bool {
	if j.Duration != o.Duration {
		return j.Duration < o.Duration
	}
	if !j.CreatedAt.Equal(o.CreatedAt) {
		return j.CreatedAt.Before(o.CreatedAt)
	}
	return j.ID < o.ID
}

// Advance returns a copy of j moved to status next at time now, or an
// *IllegalTransition error if next is not the one status that follows j's.
func (j Job) Advance(next Status, now time.Time) (Job, error) {
	if !j.Status.CanAdvanceTo(next) {
		return j, NewIllegalTransition(j.ID, j.Status, next)
	}
	c := j.Clone()
	c.Status = next
	c.Revision++
	switch next {
	case InProgress:
		c.StartedAt = &now
	case Completed:
		c.CompletedAt = &now
	}
	return c, nil
}

// Remaining is how much of the declared duration is left at now for a job
// that is InProgress. Other statuses report the full duration.
func (j Job) Remaining(now time.Time) time.Duration {
	if j.Status != InProgress || j.StartedAt == nil {
		return j.Duration
	}
	left := j.Duration - now.Sub(*j.StartedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Status for Jobs
type Status int

const (
	// Waiting to be dispatched
	Pending Status = iota

	// Dispatched to an executor slot
	InProgress

	// Ran for its declared duration
	Completed
)

var statusNames = [...]string{"Pending", "InProgress", "Completed"}

func (s Status) String() string {
	if s < Pending || s > Completed {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// CanAdvanceTo is true only for Pending→InProgress and InProgress→Completed.
func (s Status) CanAdvanceTo(next Status) bool {
	return next == s+1 && next <= Completed
}

func (s Status) MarshalText() ([]byte, error) {
	if s < Pending || s > Completed {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseStatus accepts the names produced by String. "In Progress" is accepted
// as well since older clients send it.
func ParseStatus(name string) (Status, error) {
	switch name {
	case "Pending":
		return Pending, nil
	case "InProgress", "In Progress":
		return InProgress, nil
	case "Completed":
		return Completed, nil
	}
	return Pending, fmt.Errorf("unknown status %q", name)
}
