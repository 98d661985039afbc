package stats

/*
Metric names. Scheduler metrics are prefixed sched, job store metrics store,
feed metrics feed and gateway metrics gw.
*/

const (
	/****************************** Job Store ****************************************/
	/*
		number of Create calls, including rejected ones
	*/
	StoreCreateRequestsCounter = "storeCreateRequestsCounter"

	/*
		number of Create calls rejected as invalid input
	*/
	StoreCreateRejectedCounter = "storeCreateRejectedCounter"

	/*
		number of jobs created
	*/
	StoreJobsCreatedCounter = "storeJobsCreatedCounter"

	/*
		number of jobs that reached Completed
	*/
	StoreJobsCompletedCounter = "storeJobsCompletedCounter"

	/*
		number of attempted illegal status transitions
	*/
	StoreIllegalTransitionCounter = "storeIllegalTransitionCounter"

	/*
		number of backend write failures
	*/
	StoreBackendErrCounter = "storeBackendErrCounter"

	/*
		total jobs held by the store
	*/
	StoreNumJobsGauge = "storeNumJobsGauge"

	/****************************** Scheduler ****************************************/
	/*
		jobs waiting in the SJF queue
	*/
	SchedPendingJobsGauge = "schedPendingJobsGauge"

	/*
		jobs currently dispatched to an executor slot
	*/
	SchedInProgressJobsGauge = "schedInProgressJobsGauge"

	/*
		1 when there is nothing pending and nothing running, 0 otherwise
	*/
	SchedIdleGauge = "schedIdleGauge"

	/*
		number of dispatches to the executor
	*/
	SchedDispatchedCounter = "schedDispatchedCounter"

	/*
		number of executor runs that returned an error (the job is still completed)
	*/
	SchedExecutorErrCounter = "schedExecutorErrCounter"

	/*
		jobs picked back up from the backend at startup
	*/
	SchedRecoveredJobsCounter = "schedRecoveredJobsCounter"

	/*
		time spent in one scheduler loop iteration
	*/
	SchedStepLatency_ms = "schedStepLatency_ms"

	/*
		time a job spent Pending before dispatch
	*/
	SchedQueueWaitLatency_ms = "schedQueueWaitLatency_ms"

	/*
		wall time the executor spent on a job
	*/
	SchedRunLatency_ms = "schedRunLatency_ms"

	/****************************** Change Feed ****************************************/
	/*
		events appended to the feed
	*/
	FeedPublishedCounter = "feedPublishedCounter"

	/*
		subscribers disconnected because their buffer filled up
	*/
	FeedDroppedSubscribersCounter = "feedDroppedSubscribersCounter"

	/*
		currently attached subscribers
	*/
	FeedSubscribersGauge = "feedSubscribersGauge"

	/****************************** Gateway ****************************************/
	/*
		POST /jobs requests
	*/
	GwCreateJobCounter = "gwCreateJobCounter"

	/*
		POST /jobs latency
	*/
	GwCreateJobLatency_ms = "gwCreateJobLatency_ms"

	/*
		GET /jobs requests
	*/
	GwListJobsCounter = "gwListJobsCounter"

	/*
		GET /jobs latency
	*/
	GwListJobsLatency_ms = "gwListJobsLatency_ms"

	/*
		GET /jobs/{id} requests
	*/
	GwGetJobCounter = "gwGetJobCounter"

	/*
		submissions refused by the rate limiter
	*/
	GwRateLimitedCounter = "gwRateLimitedCounter"

	/*
		websocket connections accepted
	*/
	GwWsConnectCounter = "gwWsConnectCounter"

	/*
		websocket writes that failed
	*/
	GwWsWriteErrCounter = "gwWsWriteErrCounter"

	/*
		server uptime
	*/
	GwUptime_ms = "gwUptimeGauge_ms"
)
