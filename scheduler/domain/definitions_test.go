package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestValidateJob(t *testing.T) {
	assert.NoError(t, ValidateJob(GenDefinition("a", 0)))
	assert.NoError(t, ValidateJob(GenDefinition(" a ", time.Second)))

	for _, def := range []JobDefinition{
		GenDefinition("", 1),
		GenDefinition("  \t", 1),
		GenDefinition("a", -1),
	} {
		err := ValidateJob(def)
		assert.Error(t, err, def.String())
		assert.True(t, IsInvalidInput(err), def.String())
	}
}

func TestAdvanceFollowsLifecycle(t *testing.T) {
	now := time.Unix(100, 0)
	j := NewJob("id", GenDefinition("a", time.Second), now)

	_, err := j.Advance(Completed, now)
	assert.True(t, IsIllegalTransition(err), "Pending must not skip to Completed")

	started, err := j.Advance(InProgress, now.Add(time.Second))
	assert.NoError(t, err)
	assert.Equal(t, InProgress, started.Status)
	assert.Equal(t, uint64(2), started.Revision)
	assert.Equal(t, now.Add(time.Second), *started.StartedAt)
	assert.Nil(t, j.StartedAt, "Advance must not touch the receiver")

	_, err = started.Advance(Pending, now)
	assert.True(t, IsIllegalTransition(err), "InProgress must not go back to Pending")

	done, err := started.Advance(Completed, now.Add(2*time.Second))
	assert.NoError(t, err)
	assert.Equal(t, uint64(3), done.Revision)
	assert.Equal(t, *started.StartedAt, *done.StartedAt)

	_, err = done.Advance(Completed, now)
	assert.True(t, IsIllegalTransition(err))
}

func TestRemaining(t *testing.T) {
	now := time.Unix(100, 0)
	j := NewJob("id", GenDefinition("a", 5*time.Second), now)
	assert.Equal(t, 5*time.Second, j.Remaining(now.Add(time.Hour)))

	j, _ = j.Advance(InProgress, now)
	assert.Equal(t, 3*time.Second, j.Remaining(now.Add(2*time.Second)))
	assert.Equal(t, time.Duration(0), j.Remaining(now.Add(time.Minute)))
}

func TestRunsBefore(t *testing.T) {
	t0 := time.Unix(0, 0)
	short := NewJob("z", GenDefinition("s", time.Second), t0.Add(time.Hour))
	long := NewJob("a", GenDefinition("l", 2*time.Second), t0)
	assert.True(t, short.RunsBefore(long))
	assert.False(t, long.RunsBefore(short))

	early := NewJob("z", GenDefinition("e", time.Second), t0)
	assert.True(t, early.RunsBefore(short), "equal durations break on createdAt")

	sameA := NewJob("a", GenDefinition("x", time.Second), t0)
	assert.True(t, sameA.RunsBefore(early), "equal durations and times break on id")
	assert.False(t, sameA.RunsBefore(sameA))
}

func TestStatusPrefixProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("any sequence of Advance calls yields a prefix of Pending, InProgress, Completed", prop.ForAll(
		func(targets []int) bool {
			j := NewJob("id", GenDefinition("a", 1), time.Unix(0, 0))
			seen := []Status{j.Status}
			for _, target := range targets {
				next, err := j.Advance(Status(target), time.Unix(int64(len(seen)), 0))
				if err != nil {
					continue
				}
				j = next
				seen = append(seen, j.Status)
			}
			for i, s := range seen {
				if s != Status(i) {
					return false
				}
			}
			return j.Revision == uint64(len(seen))
		},
		gen.SliceOf(gen.IntRange(-1, 3)),
	))
	properties.TestingRun(t)
}

func TestJobJSON(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	j := NewJob("abc", GenDefinition("build", 2*time.Second), created)

	b, err := json.Marshal(j)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","name":"build","duration":2000000000,"status":"Pending",
		"createdAt":"2024-01-02T03:04:05Z","startedAt":null,"completedAt":null,"revision":1}`, string(b))

	var back Job
	assert.NoError(t, json.Unmarshal([]byte(`{"id":"x","status":"In Progress","duration":5}`), &back))
	assert.Equal(t, InProgress, back.Status)
	assert.Equal(t, time.Duration(5), back.Duration)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"Done"}`), &back))
}
