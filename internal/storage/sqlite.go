package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazz-dev/readygate/internal/readiness"
)

const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    service       TEXT    NOT NULL,
    status        TEXT    NOT NULL CHECK(status IN ('ready', 'degraded', 'down')),
    duration_ms   REAL    NOT NULL,
    required_deps INTEGER NOT NULL DEFAULT 0,
    optional_deps INTEGER NOT NULL DEFAULT 0,
    checked_at    TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS dependency_checks (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    evaluation_id INTEGER NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
    name          TEXT    NOT NULL,
    category      TEXT    NOT NULL,
    status        TEXT    NOT NULL CHECK(status IN ('healthy', 'unhealthy')),
    response_ms   REAL    NOT NULL,
    error         TEXT    NOT NULL DEFAULT '',
    checked_at    TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_checked_at ON evaluations(checked_at DESC);
CREATE INDEX IF NOT EXISTS idx_dependency_checks_eval ON dependency_checks(evaluation_id);
CREATE INDEX IF NOT EXISTS idx_dependency_checks_name ON dependency_checks(name, id DESC);
`

// Evaluation is a stored readiness evaluation summary.
type Evaluation struct {
	ID         int64     `json:"id"`
	Service    string    `json:"service"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	CheckedAt  time.Time `json:"checked_at"`
}

// DependencyCheck is one stored dependency outcome from an evaluation.
type DependencyCheck struct {
	ID           int64     `json:"id"`
	EvaluationID int64     `json:"evaluation_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Status       string    `json:"status"`
	ResponseMS   float64   `json:"response_ms"`
	Error        string    `json:"error"`
	CheckedAt    time.Time `json:"checked_at"`
}

// DB wraps a SQLite database holding readiness evaluation history.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite at %q: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// InsertReport persists one readiness report: the evaluation row plus one
// dependency row per status record, in report order.
func (d *DB) InsertReport(ctx context.Context, r readiness.Report) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	checkedAt := r.CheckedAt.UTC().Format(time.RFC3339Nano)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO evaluations (service, status, duration_ms, required_deps, optional_deps, checked_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.Name,
		string(r.Status),
		r.CheckDurationMS,
		r.Details.RequiredDependencies,
		r.Details.OptionalDependencies,
		checkedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting evaluation for %q: %w", r.Name, err)
	}
	evalID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading evaluation id: %w", err)
	}

	for _, dep := range r.Dependencies {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO dependency_checks (evaluation_id, name, category, status, response_ms, error, checked_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			evalID,
			dep.Name,
			dep.Category,
			string(dep.Status),
			dep.ResponseTimeMS,
			dep.Error,
			checkedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting dependency check %q: %w", dep.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing report: %w", err)
	}
	return evalID, nil
}

// LatestReport rehydrates the most recent stored report, or nil if none.
func (d *DB) LatestReport(ctx context.Context) (*readiness.Report, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, service, status, duration_ms, required_deps, optional_deps, checked_at FROM evaluations ORDER BY id DESC LIMIT 1`,
	)

	var (
		id                 int64
		service, status    string
		durationMS         float64
		required, optional int
		checkedAt          string
	)
	err := row.Scan(&id, &service, &status, &durationMS, &required, &optional, &checkedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest evaluation: %w", err)
	}

	t, err := parseTime(checkedAt)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, evaluation_id, name, category, status, response_ms, error, checked_at FROM dependency_checks WHERE evaluation_id = ? ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying dependency checks for evaluation %d: %w", id, err)
	}
	defer rows.Close()

	checks, err := scanDependencyChecks(rows)
	if err != nil {
		return nil, err
	}

	report := readiness.Report{
		Name:            service,
		Status:          readiness.OverallStatus(status),
		Summary:         make(map[readiness.Status]int),
		CheckDurationMS: durationMS,
		CheckedAt:       t,
		Details: readiness.ReportDetails{
			DependencyCount:      len(checks),
			RequiredDependencies: required,
			OptionalDependencies: optional,
		},
	}
	for _, c := range checks {
		st := readiness.Status(c.Status)
		report.Dependencies = append(report.Dependencies, readiness.DependencyStatus{
			Name:           c.Name,
			Category:       c.Category,
			Status:         st,
			ResponseTimeMS: c.ResponseMS,
			Error:          c.Error,
		})
		report.Summary[st]++
		if st == readiness.StatusHealthy {
			report.Details.HealthyDependencies++
		}
	}
	return &report, nil
}

// EvaluationHistory returns paginated evaluation summaries, newest first,
// plus the total count.
func (d *DB) EvaluationHistory(ctx context.Context, limit, offset int) ([]Evaluation, int, error) {
	var total int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM evaluations`).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting evaluations: %w", err)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, service, status, duration_ms, checked_at FROM evaluations ORDER BY id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying evaluation history: %w", err)
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		var e Evaluation
		var checkedAt string
		if err := rows.Scan(&e.ID, &e.Service, &e.Status, &e.DurationMS, &checkedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning evaluation row: %w", err)
		}
		t, err := parseTime(checkedAt)
		if err != nil {
			return nil, 0, err
		}
		e.CheckedAt = t
		evals = append(evals, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating evaluation rows: %w", err)
	}
	return evals, total, nil
}

// LatestDependencyChecks returns the dependency rows of the most recent
// evaluation, in report order. Empty when nothing is stored yet.
func (d *DB) LatestDependencyChecks(ctx context.Context) ([]DependencyCheck, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, evaluation_id, name, category, status, response_ms, error, checked_at
		FROM dependency_checks
		WHERE evaluation_id = (SELECT MAX(id) FROM evaluations)
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying latest dependency checks: %w", err)
	}
	defer rows.Close()
	return scanDependencyChecks(rows)
}

// DependencyHistory returns paginated check history for one dependency,
// newest first, plus the total count.
func (d *DB) DependencyHistory(ctx context.Context, name string, limit, offset int) ([]DependencyCheck, int, error) {
	var total int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dependency_checks WHERE name = ?`, name,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting checks for %q: %w", name, err)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, evaluation_id, name, category, status, response_ms, error, checked_at FROM dependency_checks WHERE name = ? ORDER BY id DESC LIMIT ? OFFSET ?`,
		name, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying history for %q: %w", name, err)
	}
	defer rows.Close()

	checks, err := scanDependencyChecks(rows)
	if err != nil {
		return nil, 0, err
	}
	return checks, total, nil
}

// AvailabilityPercent returns the percentage of healthy outcomes in the last
// N checks of a dependency.
func (d *DB) AvailabilityPercent(ctx context.Context, name string, last int) (float64, error) {
	var total int
	var healthy sql.NullInt64
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(CASE WHEN status = 'healthy' THEN 1 ELSE 0 END)
		FROM (
			SELECT status FROM dependency_checks WHERE name = ? ORDER BY id DESC LIMIT ?
		)
	`, name, last).Scan(&total, &healthy)
	if err != nil {
		return 0, fmt.Errorf("calculating availability for %q: %w", name, err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(healthy.Int64) / float64(total) * 100, nil
}

func scanDependencyChecks(rows *sql.Rows) ([]DependencyCheck, error) {
	var checks []DependencyCheck
	for rows.Next() {
		var c DependencyCheck
		var checkedAt string
		err := rows.Scan(&c.ID, &c.EvaluationID, &c.Name, &c.Category, &c.Status, &c.ResponseMS, &c.Error, &checkedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning dependency check row: %w", err)
		}
		t, err := parseTime(checkedAt)
		if err != nil {
			return nil, err
		}
		c.CheckedAt = t
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependency check rows: %w", err)
	}
	return checks, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// Fallback to RFC3339 without sub-second precision.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing checked_at %q: %w", s, err)
		}
	}
	return t, nil
}
