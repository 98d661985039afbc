package api

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/sjf/common/stats"
	"github.com/twitter/sjf/scheduler/domain"
)

// Max accepted POST /jobs body.
const maxCreateBodyBytes = 1 << 16

type createJobRequest struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Implements POST /jobs
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	defer h.stat.Latency(stats.GwCreateJobLatency_ms).Time().Stop()
	h.stat.Counter(stats.GwCreateJobCounter).Inc(1)

	if h.limiter != nil && !h.limiter.Allow() {
		h.stat.Counter(stats.GwRateLimitedCounter).Inc(1)
		log.WithFields(log.Fields{"remote": r.RemoteAddr}).Info("Rate limited job request")
		writeErrorStatus(w, http.StatusTooManyRequests, "too many job requests, retry later")
		return
	}

	var req createJobRequest
	body := http.MaxBytesReader(w, r.Body, maxCreateBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, domain.NewInvalidInput("invalid job request body: %v", err))
		return
	}

	job, err := h.store.Create(req.Name, req.Duration)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}
