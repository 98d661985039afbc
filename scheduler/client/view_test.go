package client

import (
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/twitter/sjf/scheduler/domain"
)

// lifecycle returns every committed value of one job, revision order.
func lifecycle(id string, created time.Time) []domain.Job {
	j := domain.NewJob(id, domain.GenDefinition(id, time.Second), created)
	started, _ := j.Advance(domain.InProgress, created.Add(time.Second))
	done, _ := started.Advance(domain.Completed, created.Add(2*time.Second))
	return []domain.Job{j, started, done}
}

func TestView_StaleEventsAreIgnored(t *testing.T) {
	v := NewView()
	values := lifecycle("a", time.Unix(0, 0))

	assert.True(t, v.Upsert(values[1]))
	assert.False(t, v.Upsert(values[0]), "older revision")
	assert.False(t, v.Upsert(values[1]), "same revision")
	assert.True(t, v.Upsert(values[2]))

	got, ok := v.Get("a")
	assert.True(t, ok)
	assert.Equal(t, domain.Completed, got.Status)
}

func TestView_LoadKeepsNewerStreamedValues(t *testing.T) {
	v := NewView()
	a := lifecycle("a", time.Unix(1, 0))
	b := lifecycle("b", time.Unix(2, 0))

	// streamed before the snapshot arrived
	v.Upsert(a[2])
	v.Load([]domain.Job{a[1], b[0]}, 4)

	jobs := v.Jobs()
	if assert.Len(t, jobs, 2) {
		assert.Equal(t, a[2], jobs[0])
		assert.Equal(t, b[0], jobs[1])
	}
	assert.Equal(t, uint64(4), v.Seq())
	v.Load(nil, 2)
	assert.Equal(t, uint64(4), v.Seq())
}

func TestView_ConvergesRegardlessOfOrder(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("any shuffle and duplication of events converges on the last revision", prop.ForAll(
		func(numJobs int, seed int64, dups int) bool {
			var events []domain.Job
			final := make(map[string]domain.Job)
			for i := 0; i < numJobs; i++ {
				values := lifecycle(string(rune('a'+i)), time.Unix(int64(i), 0))
				events = append(events, values...)
				final[values[2].ID] = values[2]
			}
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < dups && len(events) > 0; i++ {
				events = append(events, events[rng.Intn(len(events))])
			}
			rng.Shuffle(len(events), func(i, k int) { events[i], events[k] = events[k], events[i] })

			v := NewView()
			// split the events between a snapshot and the stream
			cut := rng.Intn(len(events) + 1)
			for _, ev := range events[cut:] {
				v.Upsert(ev)
			}
			v.Load(events[:cut], 0)

			if v.Len() != len(final) {
				return false
			}
			for id, want := range final {
				got, ok := v.Get(id)
				if !ok || got.Revision != want.Revision || got.Status != want.Status {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 10),
		gen.Int64(),
		gen.IntRange(0, 20),
	))
	properties.TestingRun(t)
}
