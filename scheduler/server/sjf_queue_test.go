package server

import (
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/twitter/sjf/scheduler/domain"
)

func Test_SJFQueue_TieBreaks(t *testing.T) {
	t0 := time.Unix(0, 0)
	q := newSJFQueue()
	q.Push(domain.NewJob("b", domain.GenDefinition("same", time.Second), t0))
	q.Push(domain.NewJob("a", domain.GenDefinition("later", time.Second), t0.Add(time.Second)))
	q.Push(domain.NewJob("c", domain.GenDefinition("short", time.Millisecond), t0.Add(time.Hour)))
	q.Push(domain.NewJob("a", domain.GenDefinition("same", time.Second), t0))

	next, ok := q.Peek()
	assert.True(t, ok)
	assert.Equal(t, "c", next.ID)

	var order []string
	for {
		j, ok := q.Pop()
		if !ok {
			break
		}
		order = append(order, j.ID+"/"+j.Name)
	}
	assert.Equal(t, []string{"c/short", "a/same", "b/same", "a/later"}, order)
	assert.Equal(t, 0, q.Len())
}

func Test_SJFQueue_PopsInRunsBeforeOrder(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("pop order is the RunsBefore sort of what was pushed", prop.ForAll(
		func(defs []domain.JobDefinition) bool {
			q := newSJFQueue()
			var jobs []domain.Job
			for i, def := range defs {
				// few distinct creation times so both tie-breaks get exercised
				j := domain.NewJob(string(rune('a'+i%26))+def.Name, def, time.Unix(int64(i%3), 0))
				jobs = append(jobs, j)
				q.Push(j)
			}
			sort.Slice(jobs, func(i, k int) bool { return jobs[i].RunsBefore(jobs[k]) })
			for _, want := range jobs {
				got, ok := q.Pop()
				if !ok || got.ID != want.ID || !got.CreatedAt.Equal(want.CreatedAt) || got.Duration != want.Duration {
					return false
				}
			}
			_, ok := q.Pop()
			return !ok
		},
		domain.GenJobDefinitions(40),
	))
	properties.TestingRun(t)
}
