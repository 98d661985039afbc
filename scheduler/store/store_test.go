package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/sjf/scheduler/domain"
)

func backends(t *testing.T) map[string]Backend {
	sq, err := OpenSqliteBackend(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"sqlite": sq,
	}
}

func TestBackendsKeepInsertOrder(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer b.Close()
			created := time.Unix(1000, 0).UTC()
			// ids deliberately sort opposite to insertion
			for _, id := range []string{"c", "b", "a"} {
				assert.NoError(t, b.Insert(domain.NewJob(id, domain.GenDefinition("n-"+id, time.Second), created)))
			}
			jobs, err := b.All()
			assert.NoError(t, err)
			assert.Len(t, jobs, 3)
			assert.Equal(t, "c", jobs[0].ID)
			assert.Equal(t, "b", jobs[1].ID)
			assert.Equal(t, "a", jobs[2].ID)
			assert.Equal(t, created, jobs[0].CreatedAt)
			assert.Nil(t, jobs[0].StartedAt)
		})
	}
}

func TestBackendsUpdate(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer b.Close()
			now := time.Unix(1000, 0).UTC()
			j := domain.NewJob("x", domain.GenDefinition("n", 3*time.Second), now)
			assert.NoError(t, b.Insert(j))
			assert.Error(t, b.Insert(j), "ids can't be reused")

			j, _ = j.Advance(domain.InProgress, now.Add(time.Second))
			assert.NoError(t, b.Update(j))
			j, _ = j.Advance(domain.Completed, now.Add(4*time.Second))
			assert.NoError(t, b.Update(j))

			jobs, err := b.All()
			assert.NoError(t, err)
			assert.Equal(t, []domain.Job{j}, jobs)

			err = b.Update(domain.NewJob("missing", domain.GenDefinition("n", 0), now))
			assert.True(t, domain.IsNotFound(err))
		})
	}
}

func TestSqliteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	b, err := OpenSqliteBackend(path)
	require.NoError(t, err)
	now := time.Unix(5, 0).UTC()
	j := domain.NewJob("x", domain.GenDefinition("n", time.Second), now)
	j, _ = j.Advance(domain.InProgress, now)
	require.NoError(t, b.Insert(j))
	require.NoError(t, b.Close())

	b, err = OpenSqliteBackend(path)
	require.NoError(t, err)
	defer b.Close()
	jobs, err := b.All()
	assert.NoError(t, err)
	assert.Equal(t, []domain.Job{j}, jobs)
}

func TestMemoryClosed(t *testing.T) {
	b := NewMemoryBackend()
	b.Close()
	assert.Equal(t, ErrClosed, b.Insert(domain.Job{ID: "x"}))
	_, err := b.All()
	assert.Equal(t, ErrClosed, err)
}
