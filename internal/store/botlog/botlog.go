package botlog

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database used for report auditing and reply budget
// accounting. It is not a dedup store; processed-mention tracking stays
// in memory.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS reports (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  mention_id TEXT NOT NULL,
	  target_handle TEXT NOT NULL,
	  score INTEGER NOT NULL,
	  risk TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_ts ON reports(ts);
	CREATE TABLE IF NOT EXISTS actions (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  type TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_actions_ts ON actions(ts);
	`)
	return err
}

// Report is one posted trustworthiness report.
type Report struct {
	TS           time.Time
	MentionID    string
	TargetHandle string
	Score        int
	Risk         string
}

// PutReport records a posted report.
func (d *DB) PutReport(ctx context.Context, r Report) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO reports(ts, mention_id, target_handle, score, risk) VALUES(?,?,?,?,?)`,
		r.TS.Unix(), r.MentionID, r.TargetHandle, r.Score, r.Risk)
	return err
}

// LoadReportsSince returns reports with ts >= since, oldest first.
func (d *DB) LoadReportsSince(ctx context.Context, since time.Time) ([]Report, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT ts, mention_id, target_handle, score, risk FROM reports WHERE ts>=? ORDER BY ts`, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Report
	for rows.Next() {
		var ts int64
		var r Report
		if err := rows.Scan(&ts, &r.MentionID, &r.TargetHandle, &r.Score, &r.Risk); err != nil {
			return nil, err
		}
		r.TS = time.Unix(ts, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// PutAction logs a budgeted action of the given type.
func (d *DB) PutAction(ctx context.Context, ts time.Time, typ string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO actions(ts, type) VALUES(?,?)`, ts.Unix(), typ)
	return err
}

// CountActionsWithin counts actions of typ in [start, end).
func (d *DB) CountActionsWithin(ctx context.Context, start, end time.Time, typ string) (int, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions WHERE ts>=? AND ts<? AND type=?`, start.Unix(), end.Unix(), typ)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
