// Package feed fans committed job mutations out to live subscribers.
//
// A Feed keeps no history: a subscriber sees only the events published after
// it subscribed. Publish never blocks; a subscriber that can't keep up is
// disconnected and has to resynchronize from a snapshot.
package feed

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/sjf/common/stats"
	"github.com/twitter/sjf/scheduler/domain"
)

const DefaultBufferSize = 256

// Event is the full post-mutation value of one job. Seq is feed-wide and
// strictly increasing in publish order.
type Event struct {
	Seq uint64
	Job domain.Job
}

type Feed struct {
	mu         sync.Mutex
	seq        uint64
	nextSubID  uint64
	subs       map[uint64]*Subscription
	bufferSize int
	stat       stats.StatsReceiver
}

// NewFeed makes a feed whose subscribers buffer up to bufferSize events.
// bufferSize <= 0 means DefaultBufferSize.
func NewFeed(bufferSize int, stat stats.StatsReceiver) *Feed {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Feed{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
		stat:       stat,
	}
}

// Publish assigns the next sequence number to job and offers it to every
// subscriber. Subscribers with a full buffer are dropped.
func (f *Feed) Publish(job domain.Job) Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	ev := Event{Seq: f.seq, Job: job.Clone()}
	f.stat.Counter(stats.FeedPublishedCounter).Inc(1)

	for id, sub := range f.subs {
		select {
		case sub.ch <- ev:
		default:
			log.WithFields(log.Fields{
				"subscriber": id,
				"seq":        ev.Seq,
				"buffered":   len(sub.ch),
			}).Warn("Dropping slow feed subscriber")
			sub.dropped = true
			f.removeLocked(id)
			f.stat.Counter(stats.FeedDroppedSubscribersCounter).Inc(1)
		}
	}
	return ev
}

// Seq is the sequence number of the last published event, 0 if none.
func (f *Feed) Seq() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}

// Subscribe attaches a new subscriber. Its first event will carry a Seq
// greater than the value Seq returned before the call.
func (f *Feed) Subscribe() *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextSubID++
	sub := &Subscription{
		id:   f.nextSubID,
		ch:   make(chan Event, f.bufferSize),
		feed: f,
	}
	f.subs[sub.id] = sub
	f.stat.Gauge(stats.FeedSubscribersGauge).Update(int64(len(f.subs)))
	log.WithFields(log.Fields{
		"subscriber":  sub.id,
		"subscribers": len(f.subs),
		"seq":         f.seq,
	}).Info("Feed subscriber joined")
	return sub
}

// NumSubscribers counts attached subscribers.
func (f *Feed) NumSubscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Must hold f.mu
func (f *Feed) removeLocked(id uint64) {
	sub, ok := f.subs[id]
	if !ok {
		return
	}
	delete(f.subs, id)
	close(sub.ch)
	f.stat.Gauge(stats.FeedSubscribersGauge).Update(int64(len(f.subs)))
}

// Subscription is one subscriber's view of the feed. C is closed when the
// subscription is closed or dropped.
type Subscription struct {
	id      uint64
	ch      chan Event
	feed    *Feed
	dropped bool
}

func (s *Subscription) ID() uint64 { return s.id }

func (s *Subscription) C() <-chan Event { return s.ch }

// Dropped reports whether the feed disconnected this subscriber for falling
// behind. Only meaningful after C is closed.
func (s *Subscription) Dropped() bool {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	return s.dropped
}

// Close detaches the subscriber. Safe to call more than once.
func (s *Subscription) Close() {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	if _, ok := s.feed.subs[s.id]; ok {
		s.feed.removeLocked(s.id)
		log.WithFields(log.Fields{"subscriber": s.id}).Info("Feed subscriber left")
	}
}
