package server

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/sjf/async"
	"github.com/twitter/sjf/common/log/hooks"
	"github.com/twitter/sjf/common/stats"
	"github.com/twitter/sjf/scheduler/domain"
)

const (
	// Number of executor slots when the configuration doesn't say.
	DefaultWorkers = 1

	// How often Scheduler step is called in loop when nothing wakes it earlier.
	TickRate = 250 * time.Millisecond
)

// Used to get proper logging from tests...
func init() {
	if loglevel := os.Getenv("SJF_LOGLEVEL"); loglevel != "" {
		level, err := log.ParseLevel(loglevel)
		if err != nil {
			log.Error(err)
			return
		}
		log.SetLevel(level)
		log.AddHook(hooks.NewContextHook())
	} else {
		log.SetLevel(log.ErrorLevel)
	}
}

// SchedulerConfiguration variables read at initialization.
// Workers - the number of jobs that may be InProgress at once.
// TickRate - fallback interval between scheduling steps.
// DebugMode - if true, the loop isn't started and tests call step() themselves.
type SchedulerConfiguration struct {
	Workers   int
	TickRate  time.Duration
	DebugMode bool
}

func (sc *SchedulerConfiguration) String() string {
	return fmt.Sprintf("SchedulerConfiguration: Workers: %d, TickRate: %s, DebugMode: %t",
		sc.Workers, sc.TickRate, sc.DebugMode)
}

/*
Scheduler which owns all dispatch state on a single goroutine.

New jobs arrive from the JobStore through JobCreated and are drained into the
SJF queue at the start of each step. Executors run in goroutines started
through asyncRunner; their callbacks run on the loop goroutine and free the
slot. The loop sleeps until a job arrives, an executor finishes, or the
ticker fires.
*/
type statefulScheduler struct {
	config   *SchedulerConfiguration
	store    *JobStore
	executor Executor
	ctx      context.Context

	asyncRunner async.Runner

	// written by JobCreated from any goroutine
	inboxMu sync.Mutex
	inbox   []domain.Job
	wakeCh  chan struct{}

	// loop state
	queue   *sjfQueue
	running map[string]domain.Job
	// recovered InProgress jobs that didn't fit in a slot, earliest started first
	resuming []domain.Job

	statusMu sync.RWMutex
	status   SchedulerStatus

	stepTicker *time.Ticker
	done       chan struct{}
	stat       stats.StatsReceiver
}

// NewStatefulScheduler wires a scheduler to store and, unless DebugMode is
// set, starts its loop. Jobs the store already holds (after Recover) are
// picked up first: Pending ones are queued and InProgress ones re-dispatched
// for what is left of their duration, ahead of the queue, as slots allow.
// The loop stops and executors are cancelled when ctx is done. In DebugMode
// Done is closed as soon as ctx is done.
func NewStatefulScheduler(
	ctx context.Context,
	store *JobStore,
	executor Executor,
	config SchedulerConfiguration,
	stat stats.StatsReceiver,
) *statefulScheduler {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.TickRate <= 0 {
		config.TickRate = TickRate
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}

	sched := &statefulScheduler{
		config:      &config,
		store:       store,
		executor:    executor,
		ctx:         ctx,
		asyncRunner: async.NewRunner(),
		wakeCh:      make(chan struct{}, 1),
		queue:       newSJFQueue(),
		running:     make(map[string]domain.Job),
		done:        make(chan struct{}),
		stat:        stat.Precision(time.Millisecond),
	}
	sched.status = SchedulerStatus{Running: !config.DebugMode, Idle: true, Workers: config.Workers}
	store.SetNotifier(sched)
	log.Infof("Starting scheduler, config: %s", sched.config)

	sched.recoverJobs()

	if !config.DebugMode {
		sched.stepTicker = time.NewTicker(config.TickRate)
		go sched.loop()
	} else {
		go func() {
			<-ctx.Done()
			close(sched.done)
		}()
	}
	return sched
}

func (s *statefulScheduler) String() string {
	return fmt.Sprintf("statefulScheduler - workers: %d, pending: %d, resuming: %d, running: %d",
		s.config.Workers, s.queue.Len(), len(s.resuming), len(s.running))
}

// JobCreated queues job for the next step. Never blocks.
func (s *statefulScheduler) JobCreated(job domain.Job) {
	s.inboxMu.Lock()
	s.inbox = append(s.inbox, job)
	s.inboxMu.Unlock()
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

func (s *statefulScheduler) Status() SchedulerStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Done is closed once the loop has exited.
func (s *statefulScheduler) Done() <-chan struct{} {
	return s.done
}

// run the scheduler loop until ctx is done.
// we are not putting any logic other than looping in this method so unit tests can verify
// behavior by controlling calls to step() below
func (s *statefulScheduler) loop() {
	defer close(s.done)
	defer s.stepTicker.Stop()
	for {
		s.step()

		select {
		case <-s.ctx.Done():
			s.statusMu.Lock()
			s.status.Running = false
			s.statusMu.Unlock()
			log.WithFields(log.Fields{
				"pending":    s.queue.Len(),
				"inProgress": len(s.running),
			}).Info("Scheduler loop stopped")
			return
		case <-s.wakeCh:
		case <-s.asyncRunner.Ready():
		case <-s.stepTicker.C:
		}
	}
}

// run one loop iteration
func (s *statefulScheduler) step() {
	defer s.stat.Latency(stats.SchedStepLatency_ms).Time().Stop()

	s.addJobs()
	// frees the slots of finished executors
	s.asyncRunner.ProcessMessages()
	s.scheduleJobs()
	s.updateStats()
}

// move newly created jobs into the queue
func (s *statefulScheduler) addJobs() {
	s.inboxMu.Lock()
	jobs := s.inbox
	s.inbox = nil
	s.inboxMu.Unlock()

	for _, job := range jobs {
		s.queue.Push(job)
		log.WithFields(log.Fields{
			"jobID":    job.ID,
			"duration": job.Duration,
			"pending":  s.queue.Len(),
		}).Debug("Queued job")
	}
}

// dispatch shortest jobs while there are free slots, after any recovered
// InProgress jobs still waiting for one
func (s *statefulScheduler) scheduleJobs() {
	for len(s.running) < s.config.Workers && len(s.resuming) > 0 {
		job := s.resuming[0]
		s.resuming = s.resuming[1:]
		s.dispatch(job)
	}
	for len(s.running) < s.config.Workers {
		next, ok := s.queue.Pop()
		if !ok {
			return
		}
		started, err := s.store.MarkInProgress(next.ID)
		if err != nil {
			// Already dispatched or unknown; the store has logged and counted it.
			log.WithFields(log.Fields{
				"jobID": next.ID,
				"err":   err,
			}).Error("Skipping job that can't be started")
			continue
		}
		s.stat.Histogram(stats.SchedQueueWaitLatency_ms).Update(
			int64(started.StartedAt.Sub(started.CreatedAt) / time.Millisecond))
		s.dispatch(started)
	}
}

// dispatch hands an InProgress job to the executor
func (s *statefulScheduler) dispatch(job domain.Job) {
	s.running[job.ID] = job
	s.stat.Counter(stats.SchedDispatchedCounter).Inc(1)
	log.WithFields(log.Fields{
		"jobID":      job.ID,
		"name":       job.Name,
		"duration":   job.Duration,
		"inProgress": len(s.running),
		"pending":    s.queue.Len(),
	}).Info("Dispatching job")

	s.asyncRunner.RunAsync(
		func() error {
			return s.runJob(job)
		},
		func(err error) {
			delete(s.running, job.ID)
			if err != nil {
				log.WithFields(log.Fields{
					"jobID": job.ID,
					"err":   err,
				}).Info("Job run ended with error")
			}
		})
}

// runJob runs on the executor goroutine. The job is completed here rather
// than in the callback so completion doesn't depend on the loop.
func (s *statefulScheduler) runJob(job domain.Job) error {
	runLatency := s.stat.Latency(stats.SchedRunLatency_ms).Time()
	err := s.executor.Run(s.ctx, job)
	runLatency.Stop()

	if err != nil && s.ctx.Err() != nil {
		// Shutting down: leave the job InProgress so a durable store can resume it.
		return err
	}
	if err != nil {
		s.stat.Counter(stats.SchedExecutorErrCounter).Inc(1)
		log.WithFields(log.Fields{
			"jobID": job.ID,
			"err":   err,
		}).Warn("Executor returned an error, completing job anyway")
	}
	if _, cerr := s.store.MarkCompleted(job.ID); cerr != nil {
		return cerr
	}
	return err
}

// pick up jobs the store held before this scheduler existed. InProgress jobs
// keep their status; those beyond the worker count wait in resuming.
func (s *statefulScheduler) recoverJobs() {
	recovered := 0
	var started []domain.Job
	for _, job := range s.store.List() {
		switch job.Status {
		case domain.Pending:
			s.queue.Push(job)
		case domain.InProgress:
			started = append(started, job)
		default:
			continue
		}
		recovered++
	}
	sort.SliceStable(started, func(i, j int) bool {
		a, b := startedAt(started[i]), startedAt(started[j])
		if a.Equal(b) {
			return started[i].RunsBefore(started[j])
		}
		return a.Before(b)
	})
	s.resuming = started
	s.scheduleJobs()

	if recovered > 0 {
		s.stat.Counter(stats.SchedRecoveredJobsCounter).Inc(int64(recovered))
		log.WithFields(log.Fields{
			"recovered":  recovered,
			"pending":    s.queue.Len(),
			"resuming":   len(s.resuming),
			"inProgress": len(s.running),
		}).Info("Recovered unfinished jobs")
	}
	s.updateStats()
}

func startedAt(job domain.Job) time.Time {
	if job.StartedAt == nil {
		return time.Time{}
	}
	return *job.StartedAt
}

func (s *statefulScheduler) updateStats() {
	pending := s.queue.Len() + len(s.resuming)
	inProgress := len(s.running)
	idle := pending == 0 && inProgress == 0

	s.stat.Gauge(stats.SchedPendingJobsGauge).Update(int64(pending))
	s.stat.Gauge(stats.SchedInProgressJobsGauge).Update(int64(inProgress))
	if idle {
		s.stat.Gauge(stats.SchedIdleGauge).Update(1)
	} else {
		s.stat.Gauge(stats.SchedIdleGauge).Update(0)
	}

	s.statusMu.Lock()
	if idle && !s.status.Idle {
		log.Info("Scheduler idle")
	}
	s.status.Idle = idle
	s.status.Pending = pending
	s.status.InProgress = inProgress
	s.statusMu.Unlock()
}
