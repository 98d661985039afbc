package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/twitter/sjf/common/stats"
)

// Implements GET /jobs. The body is every job in submission order;
// FeedSequenceHeader tells the client which feed events it already reflects.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	defer h.stat.Latency(stats.GwListJobsLatency_ms).Time().Stop()
	h.stat.Counter(stats.GwListJobsCounter).Inc(1)

	jobs, seq := h.store.Snapshot()
	w.Header().Set(FeedSequenceHeader, strconv.FormatUint(seq, 10))
	writeJSON(w, http.StatusOK, jobs)
}

// Implements GET /jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	h.stat.Counter(stats.GwGetJobCounter).Inc(1)

	job, err := h.store.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
