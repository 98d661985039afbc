package api

// these functions are the service side entry points for the HTTP and
// websocket protocol (they are mounted by NewRouter)

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/twitter/sjf/common/stats"
	"github.com/twitter/sjf/scheduler/domain"
	"github.com/twitter/sjf/scheduler/feed"
	"github.com/twitter/sjf/scheduler/server"
)

// Header carrying the feed sequence number a job list reflects.
const FeedSequenceHeader = "X-Feed-Sequence"

// JobStore is the part of *server.JobStore the gateway serves.
type JobStore interface {
	Create(name string, duration time.Duration) (domain.Job, error)
	Get(id string) (domain.Job, error)
	Snapshot() ([]domain.Job, uint64)
	Feed() *feed.Feed
}

// GatewayConfig controls the outer surface of the API.
// AllowedOrigins - CORS origins.
// SubmitRate, SubmitBurst - POST /jobs token bucket; SubmitRate <= 0 turns it off.
// PingInterval - websocket keepalive; a client silent for two intervals is dropped.
// WriteTimeout - deadline for a single websocket write.
type GatewayConfig struct {
	AllowedOrigins []string
	SubmitRate     float64
	SubmitBurst    int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// Handler serves jobs from a JobStore and the scheduler's status.
type Handler struct {
	store     JobStore
	scheduler server.Scheduler
	config    GatewayConfig
	stat      stats.StatsReceiver
	limiter   *rate.Limiter
	upgrader  websocket.Upgrader

	closeOnce sync.Once
	closed    chan struct{}
}

// Creates and returns a new server Handler, which combines the store,
// scheduler and stats receivers.
func NewHandler(store JobStore, scheduler server.Scheduler, config GatewayConfig, stat stats.StatsReceiver) *Handler {
	defaults := DefaultGatewayConfig()
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	h := &Handler{
		store:     store,
		scheduler: scheduler,
		config:    config,
		stat:      stat.Precision(time.Millisecond),
		upgrader: websocket.Upgrader{
			// CORS is enforced by the router; websocket clients can come from anywhere.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		closed: make(chan struct{}),
	}
	if config.SubmitRate > 0 {
		burst := config.SubmitBurst
		if burst <= 0 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(config.SubmitRate), burst)
	}
	return h
}

// NewRouter mounts the job API on a gorilla router wrapped with CORS.
func (h *Handler) NewRouter() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/jobs", h.ListJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs", h.CreateJob).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{id}", h.GetJob).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.WatchJobs)
	r.HandleFunc("/admin/status", h.GetSchedulerStatus).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins(h.config.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.ExposedHeaders([]string{FeedSequenceHeader}),
	)
	return cors(r)
}

// Close disconnects every websocket client. The HTTP server's own shutdown
// doesn't reach hijacked connections.
func (h *Handler) Close() {
	h.closeOnce.Do(func() {
		log.Info("Closing websocket clients")
		close(h.closed)
	})
}
