package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sjf/scheduler/domain"
)

// Watcher keeps a View in sync with a gateway. Each session subscribes to
// /ws first and then loads GET /jobs, so no event can fall between the two;
// events overlapping the snapshot are absorbed by View's revision check.
type Watcher struct {
	client *Client
	view   *View
	dialer *websocket.Dialer

	// OnChange, if set, is called after every update that changed the view
	// and after each snapshot load, in which case job is the zero Job.
	OnChange func(v *View, job domain.Job)

	// NewBackOff builds the reconnect policy; it's reset after each session
	// that got as far as loading a snapshot.
	NewBackOff func() backoff.BackOff
}

func NewWatcher(client *Client, view *View) *Watcher {
	return &Watcher{
		client: client,
		view:   view,
		dialer: websocket.DefaultDialer,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			// retry until the context is cancelled
			b.MaxElapsedTime = 0
			return b
		},
	}
}

func (w *Watcher) View() *View {
	return w.view
}

// Run watches until ctx is done, reconnecting with backoff whenever the
// connection drops. It returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	b := backoff.WithContext(w.NewBackOff(), ctx)
	try := 1
	backoff.Retry(func() error {
		log.Debugf("Watch session #%d", try)
		try++
		synced, err := w.session(ctx)
		if synced {
			b.Reset()
		}
		if ctx.Err() != nil {
			return nil
		}
		log.WithFields(log.Fields{
			"addr": w.client.baseURL,
			"err":  err,
		}).Info("Watch session ended, reconnecting")
		if err == nil {
			err = errors.New("watch session ended")
		}
		return err
	}, b)
	return ctx.Err()
}

// session runs one subscribe/snapshot/stream cycle. synced reports whether
// the snapshot was loaded.
func (w *Watcher) session(ctx context.Context) (synced bool, err error) {
	conn, _, err := w.dialer.DialContext(ctx, w.client.WebsocketURL(), nil)
	if err != nil {
		return false, errors.Wrap(err, "dialing websocket")
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	jobs, seq, err := w.client.List(ctx)
	if err != nil {
		return false, errors.Wrap(err, "loading snapshot")
	}
	w.view.Load(jobs, seq)
	log.WithFields(log.Fields{
		"jobs": len(jobs),
		"seq":  seq,
	}).Info("Loaded job snapshot")
	if w.OnChange != nil {
		w.OnChange(w.view, domain.Job{})
	}

	for {
		var job domain.Job
		if err := conn.ReadJSON(&job); err != nil {
			return true, errors.Wrap(err, "reading job update")
		}
		if w.view.Upsert(job) && w.OnChange != nil {
			w.OnChange(w.view, job)
		}
	}
}
