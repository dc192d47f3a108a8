package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/xg/internal/domain/evaluate"
	"github.com/okian/xg/internal/domain/model"
)

const defaultBusyTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS training_rows (
	run_id       TEXT    NOT NULL,
	row_id       INTEGER NOT NULL,
	game_id      INTEGER NOT NULL,
	season       TEXT    NOT NULL,
	event_idx    INTEGER NOT NULL,
	distance     REAL    NOT NULL,
	angle        REAL    NOT NULL,
	shot_type    TEXT    NOT NULL,
	period       INTEGER NOT NULL,
	power_play   INTEGER NOT NULL,
	short_handed INTEGER NOT NULL,
	lag_event_1  TEXT    NOT NULL,
	lag_event_2  TEXT    NOT NULL,
	lag_zone     TEXT    NOT NULL,
	elapsed      REAL    NOT NULL,
	lateral      REAL    NOT NULL,
	rebound      INTEGER NOT NULL,
	penalty_shot INTEGER NOT NULL,
	goal         INTEGER NOT NULL,
	danger       INTEGER NOT NULL,
	PRIMARY KEY (run_id, row_id)
);
CREATE TABLE IF NOT EXISTS candidates (
	run_id           TEXT    NOT NULL,
	stage            TEXT    NOT NULL,
	name             TEXT    NOT NULL,
	recipe           TEXT    NOT NULL,
	hyper            TEXT    NOT NULL,
	mean_auc         REAL    NOT NULL,
	stderr_auc       REAL    NOT NULL,
	folds            INTEGER NOT NULL,
	failures         INTEGER NOT NULL,
	eliminated_after INTEGER NOT NULL,
	rank             INTEGER NOT NULL,
	PRIMARY KEY (run_id, stage, name)
);
CREATE TABLE IF NOT EXISTS diagnostics (
	run_id          TEXT PRIMARY KEY,
	created_at      TEXT    NOT NULL,
	recipe          TEXT    NOT NULL,
	row_count       INTEGER NOT NULL,
	train_auc       REAL    NOT NULL,
	test_auc        REAL    NOT NULL,
	calibration_pct REAL    NOT NULL,
	report          TEXT    NOT NULL
);
`

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	s.db = db

	pragma := fmt.Sprintf("PRAGMA busy_timeout = %d", s.busyTimeout.Milliseconds())
	if _, err := db.ExecContext(ctx, pragma); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: schema: %w", ErrOpen, err)
	}
	return s, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRows replaces the training table of runID in one transaction.
func (s *SQLiteStore) SaveRows(ctx context.Context, runID string, rows []model.TrainingRow) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM training_rows WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO training_rows (
			run_id, row_id, game_id, season, event_idx,
			distance, angle, shot_type, period, power_play, short_handed,
			lag_event_1, lag_event_2, lag_zone, elapsed, lateral,
			rebound, penalty_shot, goal, danger
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer stmt.Close()

	for i := range rows {
		r := &rows[i]
		f := &r.Features
		if _, err = stmt.ExecContext(ctx,
			runID, int64(r.Meta.ID), r.Meta.GameID, r.Meta.Season, r.Meta.EventIdx,
			f.Distance, f.Angle, f.ShotType, f.Period, b2i(f.PowerPlay), b2i(f.ShortHanded),
			f.LagEvent1, f.LagEvent2, f.LagZone, f.Elapsed, f.Lateral,
			b2i(f.Rebound), b2i(f.PenaltyShot), b2i(r.Label.IsGoal()), b2i(r.Danger),
		); err != nil {
			return fmt.Errorf("%w: row %d: %w", ErrWrite, r.Meta.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// SaveCandidates upserts cands into runID's ledger.
func (s *SQLiteStore) SaveCandidates(ctx context.Context, runID string, cands []CandidateRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candidates (
			run_id, stage, name, recipe, hyper, mean_auc, stderr_auc,
			folds, failures, eliminated_after, rank
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer stmt.Close()

	for i := range cands {
		c := &cands[i]
		hyper, mErr := json.Marshal(c.Hyper)
		if mErr != nil {
			err = mErr
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		if _, err = stmt.ExecContext(ctx,
			runID, string(c.Stage), c.Name, c.Recipe, string(hyper), c.Mean, c.StdErr,
			c.Folds, c.Failures, c.EliminatedAfter, c.Rank,
		); err != nil {
			return fmt.Errorf("%w: candidate %s: %w", ErrWrite, c.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// SaveDiagnostics upserts runID's report.
func (s *SQLiteStore) SaveDiagnostics(ctx context.Context, runID, recipe string, rows int, rep evaluate.Report, at time.Time) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO diagnostics (
			run_id, created_at, recipe, row_count, train_auc, test_auc, calibration_pct, report
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, at.UTC().Format(time.RFC3339Nano), recipe, rows,
		rep.TrainAUC, rep.TestAUC, rep.Calibration.PctDiff, string(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Report returns runID's stored evaluation report.
func (s *SQLiteStore) Report(ctx context.Context, runID string) (evaluate.Report, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM diagnostics WHERE run_id = ?`, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return evaluate.Report{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return evaluate.Report{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	var rep evaluate.Report
	if err := json.Unmarshal([]byte(raw), &rep); err != nil {
		return evaluate.Report{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return rep, nil
}

// Rows returns runID's training table.
func (s *SQLiteStore) Rows(ctx context.Context, runID string) ([]model.TrainingRow, error) {
	q, err := s.db.QueryContext(ctx, `
		SELECT row_id, game_id, season, event_idx,
			distance, angle, shot_type, period, power_play, short_handed,
			lag_event_1, lag_event_2, lag_zone, elapsed, lateral,
			rebound, penalty_shot, goal, danger
		FROM training_rows WHERE run_id = ? ORDER BY row_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer q.Close()

	var out []model.TrainingRow
	for q.Next() {
		var (
			r                                   model.TrainingRow
			id                                  int64
			pp, sh, rebound, ps, goal, dangerFl int
		)
		f := &r.Features
		if err := q.Scan(&id, &r.Meta.GameID, &r.Meta.Season, &r.Meta.EventIdx,
			&f.Distance, &f.Angle, &f.ShotType, &f.Period, &pp, &sh,
			&f.LagEvent1, &f.LagEvent2, &f.LagZone, &f.Elapsed, &f.Lateral,
			&rebound, &ps, &goal, &dangerFl,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRead, err)
		}
		r.Meta.ID = model.RowID(id)
		f.PowerPlay, f.ShortHanded = pp == 1, sh == 1
		f.Rebound, f.PenaltyShot = rebound == 1, ps == 1
		r.Danger = dangerFl == 1
		r.Label = model.OutcomeShotAttempt
		if goal == 1 {
			r.Label = model.OutcomeGoal
		}
		out = append(out, r)
	}
	if err := q.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return out, nil
}

// Candidates returns runID's ledger.
func (s *SQLiteStore) Candidates(ctx context.Context, runID string) ([]CandidateRecord, error) {
	q, err := s.db.QueryContext(ctx, `
		SELECT stage, name, recipe, hyper, mean_auc, stderr_auc,
			folds, failures, eliminated_after, rank
		FROM candidates WHERE run_id = ? ORDER BY stage, rank, name`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer q.Close()

	var out []CandidateRecord
	for q.Next() {
		var (
			c     CandidateRecord
			stage string
			hyper string
		)
		if err := q.Scan(&stage, &c.Name, &c.Recipe, &hyper, &c.Mean, &c.StdErr,
			&c.Folds, &c.Failures, &c.EliminatedAfter, &c.Rank); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRead, err)
		}
		c.Stage = model.Stage(stage)
		if err := json.Unmarshal([]byte(hyper), &c.Hyper); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRead, err)
		}
		out = append(out, c)
	}
	if err := q.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return out, nil
}

// Run returns runID's summary.
func (s *SQLiteStore) Run(ctx context.Context, runID string) (RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, created_at, row_count, recipe, train_auc, test_auc, calibration_pct
		FROM diagnostics WHERE run_id = ?`, runID)
	sum, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return sum, err
}

// Runs returns up to n summaries, newest first.
func (s *SQLiteStore) Runs(ctx context.Context, n int) ([]RunSummary, error) {
	if n <= 0 {
		return nil, nil
	}
	q, err := s.db.QueryContext(ctx, `
		SELECT run_id, created_at, row_count, recipe, train_auc, test_auc, calibration_pct
		FROM diagnostics ORDER BY created_at DESC, run_id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer q.Close()

	var out []RunSummary
	for q.Next() {
		sum, err := scanRun(q)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := q.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunSummary, error) {
	var (
		sum RunSummary
		at  string
	)
	err := sc.Scan(&sum.RunID, &at, &sum.Rows, &sum.Recipe, &sum.TrainAUC, &sum.TestAUC, &sum.CalibrationPct)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, err
	}
	if err != nil {
		return RunSummary{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
		return RunSummary{}, fmt.Errorf("%w: created_at: %w", ErrRead, err)
	}
	return sum, nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
