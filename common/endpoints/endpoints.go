// Package endpoints serves the admin endpoints every sjf server exposes next
// to its API: health and metrics.
package endpoints

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sjf/common/stats"
)

const (
	// How long Serve waits for open requests once its context is done.
	ShutdownTimeout = 5 * time.Second

	uptimeInterval = 15 * time.Second
)

func NewTwitterServer(addr string, stats stats.StatsReceiver, handler http.Handler) *TwitterServer {
	return &TwitterServer{
		Addr:    addr,
		Stats:   stats,
		Handler: handler,
	}
}

// TwitterServer mounts the admin paths in front of Handler, which gets
// every other path.
type TwitterServer struct {
	Addr    string
	Stats   stats.StatsReceiver
	Handler http.Handler
}

// Router returns the full handler tree. Exposed for tests.
func (s *TwitterServer) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/admin/metrics.json", s.statsHandler).Methods(http.MethodGet)
	if s.Handler != nil {
		r.PathPrefix("/").Handler(s.Handler)
	} else {
		r.PathPrefix("/").HandlerFunc(helpHandler)
	}
	return r
}

// Serve listens on Addr until ctx is done, then shuts down gracefully.
func (s *TwitterServer) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

func (s *TwitterServer) ServeListener(ctx context.Context, ln net.Listener) error {
	server := &http.Server{Handler: s.Router()}

	done := make(chan struct{})
	defer close(done)
	go stats.StartUptimeReporting(s.Stats, stats.GwUptime_ms, uptimeInterval, done)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Serving http & stats on %s", ln.Addr())
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != http.ErrServerClosed {
		return err
	}
	return nil
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Common paths: '/health', '/admin/metrics.json'", http.StatusNotImplemented)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "ok")
}

func (s *TwitterServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	const contentTypeHdr = "Content-Type"
	const contentTypeVal = "application/json; charset=utf-8"
	w.Header().Set(contentTypeHdr, contentTypeVal)

	pretty := r.URL.Query().Get("pretty") == "true"
	str := s.Stats.Render(pretty)
	if _, err := io.Copy(w, bytes.NewBuffer(str)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// MakeStatsReceiver returns a receiver backed by a finagle style registry,
// which is what /admin/metrics.json renders.
func MakeStatsReceiver() stats.StatsReceiver {
	return stats.NewCustomStatsReceiver(stats.NewFinagleStatsRegistry)
}
