/*
package server provides the JobStore and the StatefulScheduler that runs its jobs
shortest-job-first on a fixed pool of executor slots.

* Concepts *
JobStore:
  The single source of truth for jobs. One RWMutex orders every committed mutation;
  the change feed is appended under the same write lock, so feed order is commit order.
  Reads return copies and never wait on scheduling or execution.

Workers:
  The number of executor slots. At most Workers jobs are InProgress at any time.

Dispatch key:
  (Duration, CreatedAt, ID), smallest first. Jobs are never preempted.

Idle:
  Nothing pending and nothing running. Reported through stats and Status(), it is not an error.

* Logic *
Schedule Loop:
  Drain newly created jobs into the SJF queue.
  Run callbacks of finished executors, freeing their slots.
  While a slot is free and the queue is non-empty, pop the minimum, mark it InProgress and hand it to the Executor.

Completion:
  The executor goroutine marks the job Completed itself once the Executor returns, error or not, and then
  wakes the loop so the slot is reused.
*/
package server
