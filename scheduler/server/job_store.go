package server

import (
	"sync"
	"time"

	uuid "github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sjf/common/stats"
	"github.com/twitter/sjf/scheduler/domain"
	"github.com/twitter/sjf/scheduler/feed"
	"github.com/twitter/sjf/scheduler/store"
)

// Notifier is told about every job the store admits.
type Notifier interface {
	JobCreated(job domain.Job)
}

// JobStore keeps jobs in submission order and writes every committed value
// through to a Backend and out to the change feed.
type JobStore struct {
	mu          sync.RWMutex
	jobs        []domain.Job
	index       map[string]int
	lastCreated time.Time

	backend  store.Backend
	feed     *feed.Feed
	notifier Notifier
	stat     stats.StatsReceiver

	// overridable in tests
	now   func() time.Time
	newID func() string
}

func NewJobStore(backend store.Backend, f *feed.Feed, stat stats.StatsReceiver) *JobStore {
	if backend == nil {
		backend = store.NewMemoryBackend()
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	if f == nil {
		f = feed.NewFeed(0, stat)
	}
	return &JobStore{
		index:   make(map[string]int),
		backend: backend,
		feed:    f,
		stat:    stat,
		now:     time.Now,
		newID:   generateJobId,
	}
}

// SetNotifier must be called before the store is shared.
func (s *JobStore) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *JobStore) Feed() *feed.Feed {
	return s.feed
}

// Create admits a new Pending job. Invalid definitions get an *InvalidInput
// error and leave the store untouched.
func (s *JobStore) Create(name string, duration time.Duration) (domain.Job, error) {
	s.stat.Counter(stats.StoreCreateRequestsCounter).Inc(1)
	def := domain.JobDefinition{Name: name, Duration: duration}
	if err := domain.ValidateJob(def); err != nil {
		s.stat.Counter(stats.StoreCreateRejectedCounter).Inc(1)
		log.WithFields(log.Fields{
			"name":     name,
			"duration": duration,
			"err":      err,
		}).Info("Rejected job request")
		return domain.Job{}, err
	}

	s.mu.Lock()
	createdAt := s.now()
	// keep createdAt order equal to submission order when the clock steps back
	if createdAt.Before(s.lastCreated) {
		createdAt = s.lastCreated
	}
	job := domain.NewJob(s.newID(), def, createdAt)
	if err := s.backend.Insert(job); err != nil {
		s.mu.Unlock()
		s.stat.Counter(stats.StoreBackendErrCounter).Inc(1)
		log.WithFields(log.Fields{
			"jobID": job.ID,
			"err":   err,
		}).Error("Failed to persist job")
		return domain.Job{}, errors.Wrap(err, "persisting job")
	}
	s.lastCreated = createdAt
	s.index[job.ID] = len(s.jobs)
	s.jobs = append(s.jobs, job)
	ev := s.feed.Publish(job)
	numJobs := len(s.jobs)
	s.mu.Unlock()

	s.stat.Counter(stats.StoreJobsCreatedCounter).Inc(1)
	s.stat.Gauge(stats.StoreNumJobsGauge).Update(int64(numJobs))
	log.WithFields(log.Fields{
		"jobID":    job.ID,
		"name":     job.Name,
		"duration": job.Duration,
		"seq":      ev.Seq,
	}).Info("Created job")

	if s.notifier != nil {
		s.notifier.JobCreated(job.Clone())
	}
	return job.Clone(), nil
}

// List returns every job in submission order.
func (s *JobStore) List() []domain.Job {
	jobs, _ := s.Snapshot()
	return jobs
}

// Snapshot is List plus the Seq of the last feed event it reflects. A
// subscriber attached before the call can discard events with Seq <= seq.
func (s *JobStore) Snapshot() (jobs []domain.Job, seq uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs = make([]domain.Job, len(s.jobs))
	for i, j := range s.jobs {
		jobs[i] = j.Clone()
	}
	return jobs, s.feed.Seq()
}

// Get returns a *NotFound error for an unknown id.
func (s *JobStore) Get(id string) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Job{}, domain.NewNotFound(id)
	}
	return s.jobs[i].Clone(), nil
}

func (s *JobStore) MarkInProgress(id string) (domain.Job, error) {
	return s.advance(id, domain.InProgress)
}

func (s *JobStore) MarkCompleted(id string) (domain.Job, error) {
	job, err := s.advance(id, domain.Completed)
	if err == nil {
		s.stat.Counter(stats.StoreJobsCompletedCounter).Inc(1)
	}
	return job, err
}

func (s *JobStore) advance(id string, next domain.Status) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Job{}, domain.NewNotFound(id)
	}
	job, err := s.jobs[i].Advance(next, s.now())
	if err != nil {
		s.stat.Counter(stats.StoreIllegalTransitionCounter).Inc(1)
		log.WithFields(log.Fields{
			"jobID": id,
			"err":   err,
		}).Error("Illegal job transition")
		return s.jobs[i].Clone(), err
	}
	// The in-memory value stays authoritative for this process even if the
	// backend write fails.
	if err := s.backend.Update(job); err != nil {
		s.stat.Counter(stats.StoreBackendErrCounter).Inc(1)
		log.WithFields(log.Fields{
			"jobID":  id,
			"status": next,
			"err":    err,
		}).Error("Failed to persist job transition")
	}
	s.jobs[i] = job
	ev := s.feed.Publish(job)
	log.WithFields(log.Fields{
		"jobID":  id,
		"status": next,
		"seq":    ev.Seq,
	}).Info("Job transitioned")
	return job.Clone(), nil
}

// Recover loads the backend's jobs into an empty store. It does not publish
// feed events or notify; the scheduler picks unfinished jobs up from List.
func (s *JobStore) Recover() (int, error) {
	jobs, err := s.backend.All()
	if err != nil {
		return 0, errors.Wrap(err, "recovering jobs")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) > 0 {
		return 0, errors.New("recover called on a non-empty job store")
	}
	for _, j := range jobs {
		s.index[j.ID] = len(s.jobs)
		s.jobs = append(s.jobs, j)
		if j.CreatedAt.After(s.lastCreated) {
			s.lastCreated = j.CreatedAt
		}
	}
	s.stat.Gauge(stats.StoreNumJobsGauge).Update(int64(len(s.jobs)))
	log.WithFields(log.Fields{"numJobs": len(jobs)}).Info("Recovered jobs from backend")
	return len(jobs), nil
}

// generates a jobId using a random uuid
func generateJobId() string {
	// uuid.NewV4() only fails if crypto/rand does; keep trying.
	for {
		if id, err := uuid.NewV4(); err == nil {
			return id.String()
		}
	}
}
