// Package server provides the main job scheduling interface for sjf
package server

// Scheduler is told about new jobs by the JobStore and runs them.
type Scheduler interface {
	Notifier

	// Status is a point-in-time view, refreshed once per scheduling step.
	Status() SchedulerStatus
}

type SchedulerStatus struct {
	// Running is false once the scheduler loop has stopped.
	Running    bool `json:"running"`
	Idle       bool `json:"idle"`
	Pending    int  `json:"pending"`
	InProgress int  `json:"inProgress"`
	Workers    int  `json:"workers"`
}
