package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	logger "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

var errNotOpen = errors.New("sqlite run store is not open")

// SQLiteHitRepository keeps every run and its hits in one SQLite file.
// Unlike the CSV streams, earlier runs are kept and told apart by run id.
type SQLiteHitRepository struct {
	path  string
	db    *sql.DB
	runID string
}

// NewSQLiteHitRepository creates a run store at path.
func NewSQLiteHitRepository(path string) repositories.HitRepository {
	return &SQLiteHitRepository{path: path}
}

func (r *SQLiteHitRepository) Open(ctx context.Context, run entities.Run) error {
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", r.path+"?mode=rwc")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err = db.ExecContext(ctx,
		`INSERT INTO scan_runs (id, started_at) VALUES (?, ?)`,
		run.ID, run.StartedAt.Format(time.RFC3339Nano),
	); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to record run: %w", err)
	}

	r.db = db
	r.runID = run.ID
	logger.Debugf("Recording run %s in %q", run.ID, r.path)
	return nil
}

func (r *SQLiteHitRepository) AppendBinaryHits(ctx context.Context, hits []entities.BinaryHit) error {
	if r.db == nil {
		return errNotOpen
	}
	if len(hits) == 0 {
		return nil
	}
	return r.inTx(ctx, `INSERT INTO binary_hits (run_id, project_id, project, branch, file_path)
		VALUES (?, ?, ?, ?, ?)`, func(stmt *sql.Stmt) error {
		for _, hit := range hits {
			if _, err := stmt.ExecContext(ctx,
				r.runID, hit.RepositoryID, hit.RepositoryName, hit.Branch, hit.Path,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteHitRepository) AppendSensitiveHits(ctx context.Context, hits []entities.SensitiveHit) error {
	if r.db == nil {
		return errNotOpen
	}
	if len(hits) == 0 {
		return nil
	}
	return r.inTx(ctx, `INSERT INTO comment_hits
		(run_id, project_id, project, branch, file_path, line, keyword, comment_excerpt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, func(stmt *sql.Stmt) error {
		for _, hit := range hits {
			if _, err := stmt.ExecContext(ctx,
				r.runID, hit.RepositoryID, hit.RepositoryName, hit.Branch, hit.Path,
				hit.Line, hit.Term, hit.Excerpt,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close stores the run totals and releases the database.
func (r *SQLiteHitRepository) Close(ctx context.Context, summary entities.RunSummary) error {
	if r.db == nil {
		return nil
	}
	_, updateErr := r.db.ExecContext(ctx, `UPDATE scan_runs SET
		finished_at = ?, repositories_total = ?, repositories_scanned = ?,
		repositories_abandoned = ?, binary_hits = ?, sensitive_hits = ?
		WHERE id = ?`,
		summary.FinishedAt.Format(time.RFC3339Nano), summary.RepositoriesTotal, summary.RepositoriesScanned,
		summary.RepositoriesAbandoned, summary.BinaryHits, summary.SensitiveHits,
		r.runID,
	)
	if updateErr != nil {
		updateErr = fmt.Errorf("failed to record run summary: %w", updateErr)
	}
	closeErr := r.db.Close()
	r.db = nil
	return errors.Join(updateErr, closeErr)
}

func (r *SQLiteHitRepository) inTx(ctx context.Context, query string, fn func(stmt *sql.Stmt) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	if err = fn(stmt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert hits: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hits: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS scan_runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	repositories_total INTEGER DEFAULT 0,
	repositories_scanned INTEGER DEFAULT 0,
	repositories_abandoned INTEGER DEFAULT 0,
	binary_hits INTEGER DEFAULT 0,
	sensitive_hits INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS binary_hits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES scan_runs(id),
	project_id TEXT NOT NULL,
	project TEXT NOT NULL,
	branch TEXT NOT NULL,
	file_path TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_binary_hits_run ON binary_hits(run_id);

CREATE TABLE IF NOT EXISTS comment_hits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES scan_runs(id),
	project_id TEXT NOT NULL,
	project TEXT NOT NULL,
	branch TEXT NOT NULL,
	file_path TEXT NOT NULL,
	line INTEGER NOT NULL,
	keyword TEXT NOT NULL,
	comment_excerpt TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comment_hits_run ON comment_hits(run_id);
CREATE INDEX IF NOT EXISTS idx_comment_hits_keyword ON comment_hits(keyword);
`
