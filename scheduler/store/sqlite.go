package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sjf/scheduler/domain"
)

// seq gives submission order; the job id is opaque and can't be sorted on.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS jobs (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    duration_ns INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_at_ns INTEGER NOT NULL,
    started_at_ns INTEGER,
    completed_at_ns INTEGER,
    revision INTEGER NOT NULL
);
`

type sqliteBackend struct {
	db *sql.DB
}

// OpenSqliteBackend opens (creating if needed) the database at path and
// applies the schema. Use ":memory:" for a throwaway database.
func OpenSqliteBackend(path string) (Backend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite db %s", path)
	}
	// A single connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "pinging sqlite db %s", path)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "applying schema")
	}
	log.WithFields(log.Fields{"path": path}).Info("Opened sqlite job backend")
	return &sqliteBackend{db: db}, nil
}

func (s *sqliteBackend) Insert(job domain.Job) error {
	_, err := s.db.Exec(
		`INSERT INTO jobs(id, name, duration_ns, status, created_at_ns, started_at_ns, completed_at_ns, revision)
        VALUES(?,?,?,?,?,?,?,?)`,
		job.ID, job.Name, int64(job.Duration), job.Status.String(), job.CreatedAt.UnixNano(),
		nullTime(job.StartedAt), nullTime(job.CompletedAt), int64(job.Revision),
	)
	return errors.Wrapf(err, "inserting job %s", job.ID)
}

func (s *sqliteBackend) Update(job domain.Job) error {
	res, err := s.db.Exec(
		`UPDATE jobs SET status=?, started_at_ns=?, completed_at_ns=?, revision=? WHERE id=?`,
		job.Status.String(), nullTime(job.StartedAt), nullTime(job.CompletedAt), int64(job.Revision), job.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "updating job %s", job.ID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NewNotFound(job.ID)
	}
	return nil
}

func (s *sqliteBackend) All() ([]domain.Job, error) {
	rows, err := s.db.Query(`SELECT id, name, duration_ns, status, created_at_ns, started_at_ns, completed_at_ns, revision
        FROM jobs ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "listing jobs")
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		var (
			j                  domain.Job
			status             string
			duration, created  int64
			started, completed sql.NullInt64
			revision           int64
		)
		if err := rows.Scan(&j.ID, &j.Name, &duration, &status, &created, &started, &completed, &revision); err != nil {
			return nil, errors.Wrap(err, "scanning job row")
		}
		if j.Status, err = domain.ParseStatus(status); err != nil {
			return nil, errors.Wrapf(err, "job %s", j.ID)
		}
		j.Duration = time.Duration(duration)
		j.CreatedAt = time.Unix(0, created).UTC()
		j.StartedAt = fromNull(started)
		j.CompletedAt = fromNull(completed)
		j.Revision = uint64(revision)
		out = append(out, j)
	}
	return out, errors.Wrap(rows.Err(), "iterating job rows")
}

func (s *sqliteBackend) Close() error {
	return s.db.Close()
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNull(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(0, n.Int64).UTC()
	return &t
}
