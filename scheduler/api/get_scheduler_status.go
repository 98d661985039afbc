package api

import (
	"net/http"

	"github.com/twitter/sjf/scheduler/server"
)

type schedulerStatusResponse struct {
	Scheduler   server.SchedulerStatus `json:"scheduler"`
	Subscribers int                    `json:"subscribers"`
	FeedSeq     uint64                 `json:"feedSeq"`
}

// Implements GET /admin/status
func (h *Handler) GetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	f := h.store.Feed()
	writeJSON(w, http.StatusOK, schedulerStatusResponse{
		Scheduler:   h.scheduler.Status(),
		Subscribers: f.NumSubscribers(),
		FeedSeq:     f.Seq(),
	})
}
