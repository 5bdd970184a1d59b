package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"VoyageBot/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the history can be inspected while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			number      INTEGER,
			started_at  INTEGER,
			finished_at INTEGER,
			total       INTEGER,
			done        INTEGER,
			aborted     INTEGER,
			timed_out   INTEGER,
			check_ins   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS account_runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			cycle_id      TEXT,
			account_index INTEGER,
			subject       TEXT,
			proxy_ip      TEXT,
			state         TEXT,
			failed_at     TEXT,
			reason        TEXT,
			checked_in    INTEGER,
			checkin_fail  INTEGER,
			already       INTEGER,
			reward        TEXT,
			points        TEXT,
			timed_out     INTEGER,
			duration_ms   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON account_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_subject ON account_runs(subject)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAccountRun(cycleID string, res *model.RunResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO account_runs
		(timestamp, cycle_id, account_index, subject, proxy_ip, state, failed_at, reason,
		 checked_in, checkin_fail, already, reward, points, timed_out, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), cycleID, res.Index, res.Subject, res.ProxyIP,
		string(res.State), string(res.FailedAt), res.Reason,
		res.CheckedIn, res.CheckInFailed, res.Already, res.Reward, res.Points, res.TimedOut,
		res.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordCycle(rep *model.CycleReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	done, aborted, timedOut := rep.Counts()
	_, err := r.db.Exec(`INSERT INTO cycles
		(id, timestamp, number, started_at, finished_at, total, done, aborted, timed_out, check_ins)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rep.ID, time.Now().Unix(), rep.Number, rep.StartedAt.Unix(), rep.FinishedAt.Unix(),
		len(rep.Results), done, aborted, timedOut, rep.CheckIns(),
	)
	return err
}

func (r *SQLiteRecorder) Summary(since time.Time) (*Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Summary{Since: since}
	ts := since.Unix()
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM cycles WHERE timestamp >= ?`, ts).Scan(&s.Cycles); err != nil {
		return nil, fmt.Errorf("count cycles: %w", err)
	}
	err := r.db.QueryRow(`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN state = ? AND timed_out = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN timed_out = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN checked_in = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN checkin_fail = 1 THEN 1 ELSE 0 END), 0)
		FROM account_runs WHERE timestamp >= ?`, string(model.StateDone), ts).
		Scan(&s.Runs, &s.Done, &s.TimedOut, &s.CheckIns, &s.FailedCheckIns)
	if err != nil {
		return nil, fmt.Errorf("summarise runs: %w", err)
	}
	s.Aborted = s.Runs - s.Done - s.TimedOut
	return s, nil
}

func (r *SQLiteRecorder) Prune(before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for _, table := range []string{"account_runs", "cycles"} {
		res, err := r.db.Exec(`DELETE FROM `+table+` WHERE timestamp < ?`, before.Unix())
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
