package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sjf/common/stats"
)

// Implements /ws. Every feed event published after the handshake is written as
// one Job JSON text message, in feed order. There is no replay: clients load
// GET /jobs and upsert events on top of it.
//
// The connection is closed when the client goes away, when the client falls
// far enough behind that the feed drops it, or when the Handler is closed.
func (h *Handler) WatchJobs(w http.ResponseWriter, r *http.Request) {
	// Subscribe first so nothing published after the client sees the
	// handshake complete is missed.
	sub := h.store.Feed().Subscribe()
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"err":    err,
		}).Info("Websocket upgrade failed")
		return
	}
	defer conn.Close()
	h.stat.Counter(stats.GwWsConnectCounter).Inc(1)
	logFields := log.Fields{
		"remote":     r.RemoteAddr,
		"subscriber": sub.ID(),
	}
	log.WithFields(logFields).Info("Websocket client connected")

	gone := h.readPump(conn)
	ping := time.NewTicker(h.config.PingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				log.WithFields(logFields).Info("Websocket client fell behind, disconnecting")
				h.writeClose(conn, websocket.ClosePolicyViolation, "subscriber too slow, resync")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.WriteJSON(ev.Job); err != nil {
				h.stat.Counter(stats.GwWsWriteErrCounter).Inc(1)
				log.WithFields(logFields).WithField("err", err).Info("Websocket write failed")
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(h.config.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				h.stat.Counter(stats.GwWsWriteErrCounter).Inc(1)
				log.WithFields(logFields).WithField("err", err).Info("Websocket ping failed")
				return
			}
		case <-gone:
			log.WithFields(logFields).Info("Websocket client disconnected")
			return
		case <-h.closed:
			h.writeClose(conn, websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

// readPump discards client messages and closes the returned channel once the
// connection fails or the client stops answering pings.
func (h *Handler) readPump(conn *websocket.Conn) <-chan struct{} {
	gone := make(chan struct{})
	pongWait := 2 * h.config.PingInterval
	conn.SetReadLimit(1 << 10)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return gone
}

func (h *Handler) writeClose(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.config.WriteTimeout))
}
