// Package relational is a sqlite-backed checkpoint.Storage, for single-
// node deployments that want checkpoints to survive a process restart
// without standing up a separate database service.
package relational

import (
	"context"
	"database/sql"

	"github.com/coreflow/coreflow/checkpoint"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	app_name                TEXT    NOT NULL,
	app_id                  TEXT    NOT NULL,
	checkpoint_id           INTEGER NOT NULL,
	ttl                     INTEGER NOT NULL,
	completed_checkpoint_id INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (app_name, app_id, checkpoint_id)
);

CREATE TABLE IF NOT EXISTS checkpoint_handles (
	app_name      TEXT    NOT NULL,
	app_id        TEXT    NOT NULL,
	checkpoint_id INTEGER NOT NULL,
	task_id       TEXT    NOT NULL,
	handle        BLOB,
	PRIMARY KEY (app_name, app_id, checkpoint_id, task_id)
);
`

// Store persists checkpoints to a sqlite database opened with
// `sql.Open("sqlite3", url)`.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a sqlite database at dbURL and
// ensures the checkpoint tables exist.
func Open(dbURL string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbURL)
	if err != nil {
		return nil, errors.Wrapf(err, "opening checkpoint database %v", dbURL)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating checkpoint schema")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Save(ctx context.Context, cp checkpoint.Checkpoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning checkpoint save transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO checkpoints (app_name, app_id, checkpoint_id, ttl, completed_checkpoint_id) VALUES (?, ?, ?, ?, ?)`,
		cp.AppName, cp.AppID, cp.CheckpointID, cp.TTL, cp.CompletedCheckpointID)
	if err != nil {
		return errors.Wrap(err, "inserting checkpoint row")
	}

	for _, h := range cp.Handles {
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO checkpoint_handles (app_name, app_id, checkpoint_id, task_id, handle) VALUES (?, ?, ?, ?, ?)`,
			cp.AppName, cp.AppID, cp.CheckpointID, h.TaskID, h.Handle)
		if err != nil {
			return errors.Wrapf(err, "inserting task handle for %v", h.TaskID)
		}
	}

	return errors.Wrap(tx.Commit(), "committing checkpoint save")
}

func (s *Store) Load(ctx context.Context, appName, appID string) (checkpoint.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT checkpoint_id, ttl, completed_checkpoint_id FROM checkpoints
		 WHERE app_name = ? AND app_id = ?
		 ORDER BY checkpoint_id DESC LIMIT 1`, appName, appID)

	var id uint64
	var ttl uint64
	var completedID uint64
	if err := row.Scan(&id, &ttl, &completedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return checkpoint.Checkpoint{}, checkpoint.ErrNotFound
		}
		return checkpoint.Checkpoint{}, errors.Wrap(err, "querying latest checkpoint")
	}

	return s.loadHandles(ctx, appName, appID, id, ttl, completedID)
}

func (s *Store) LoadByCheckpointID(ctx context.Context, appName, appID string, checkpointID uint64) (checkpoint.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT ttl, completed_checkpoint_id FROM checkpoints WHERE app_name = ? AND app_id = ? AND checkpoint_id = ?`,
		appName, appID, checkpointID)

	var ttl uint64
	var completedID uint64
	if err := row.Scan(&ttl, &completedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return checkpoint.Checkpoint{}, checkpoint.ErrNotFound
		}
		return checkpoint.Checkpoint{}, errors.Wrap(err, "querying checkpoint by id")
	}

	return s.loadHandles(ctx, appName, appID, checkpointID, ttl, completedID)
}

func (s *Store) loadHandles(ctx context.Context, appName, appID string, checkpointID, ttl, completedID uint64) (checkpoint.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, handle FROM checkpoint_handles
		 WHERE app_name = ? AND app_id = ? AND checkpoint_id = ?`, appName, appID, checkpointID)
	if err != nil {
		return checkpoint.Checkpoint{}, errors.Wrap(err, "querying checkpoint handles")
	}
	defer rows.Close()

	cp := checkpoint.Checkpoint{
		AppName: appName, AppID: appID, CheckpointID: checkpointID, TTL: ttl, CompletedCheckpointID: completedID,
	}
	for rows.Next() {
		var h checkpoint.TaskHandle
		if err := rows.Scan(&h.TaskID, &h.Handle); err != nil {
			return checkpoint.Checkpoint{}, errors.Wrap(err, "scanning task handle row")
		}
		cp.Handles = append(cp.Handles, h)
	}
	return cp, errors.Wrap(rows.Err(), "iterating checkpoint handle rows")
}

var _ checkpoint.Storage = (*Store)(nil)
