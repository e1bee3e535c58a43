// Package sqldb is the SQL-backed Repository. It speaks two dialects: sqlite
// (modernc, no cgo) for single-box deployments and postgres (pgx stdlib) for
// shared ones. The schema is identical in both; only placeholders differ.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/chrisf-bit/store-manager/internal/sim/metrics"
	"github.com/chrisf-bit/store-manager/internal/store"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type Repo struct {
	dialect Dialect
	db      *sql.DB
}

var _ store.Repository = (*Repo)(nil)

// OpenSQLite opens (and if needed creates) a sqlite database file.
func OpenSQLite(path string) (*Repo, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	r := &Repo{dialect: DialectSQLite, db: db}
	if err := r.initPragmas(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := r.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// OpenPostgres connects with a pgx DSN or URL.
func OpenPostgres(dsn string) (*Repo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	r := &Repo{dialect: DialectPostgres, db: db}
	if err := r.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) initPragmas() error {
	// WAL suits the append-heavy round log; NORMAL sync is enough for a
	// game-state database that can be replayed from the audit log.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := r.db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			store_name TEXT NOT NULL,
			store_size TEXT NOT NULL,
			region TEXT NOT NULL,
			current_round INTEGER NOT NULL,
			status TEXT NOT NULL,
			run_seed INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS round_states (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			round_number INTEGER NOT NULL,
			metrics_json TEXT NOT NULL,
			narrative_text TEXT NOT NULL,
			UNIQUE (run_id, round_number)
		);`,
		`CREATE TABLE IF NOT EXISTS decision_selections (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			round_number INTEGER NOT NULL,
			template_id TEXT NOT NULL,
			option_key TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS event_instances (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			round_number INTEGER NOT NULL,
			template_id TEXT NOT NULL,
			resolved_effects_json TEXT NOT NULL,
			UNIQUE (run_id, round_number)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_round_states_run ON round_states (run_id, round_number);`,
		`CREATE INDEX IF NOT EXISTS idx_selections_run ON decision_selections (run_id, round_number);`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// rebind converts ? placeholders to $n for postgres. Queries are authored in
// sqlite style.
func (r *Repo) rebind(q string) string {
	if r.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Repo) CreateRun(ctx context.Context, run store.Run) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO runs (id, created_at, store_name, store_size, region, current_round, status, run_seed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.StoreName, run.StoreSize, run.Region,
		run.CurrentRound, run.Status, run.RunSeed)
	return err
}

func (r *Repo) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT id, created_at, store_name, store_size, region, current_round, status, run_seed
		 FROM runs WHERE id = ?`), id)
	return scanRun(row)
}

// ListRuns returns every run, newest first. Not part of store.Repository;
// used by the admin tool.
func (r *Repo) ListRuns(ctx context.Context) ([]store.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, store_name, store_size, region, current_round, status, run_seed
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateRun(ctx context.Context, run store.Run) error {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE runs SET current_round = ?, status = ? WHERE id = ?`),
		run.CurrentRound, run.Status, run.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repo) AddRoundState(ctx context.Context, rs store.RoundState) error {
	mj, err := json.Marshal(rs.Metrics)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO round_states (id, run_id, round_number, metrics_json, narrative_text)
		 VALUES (?, ?, ?, ?, ?)`),
		rs.ID, rs.RunID, rs.RoundNumber, string(mj), rs.Narrative)
	return err
}

func (r *Repo) GetRoundState(ctx context.Context, runID string, round int) (store.RoundState, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT id, run_id, round_number, metrics_json, narrative_text
		 FROM round_states WHERE run_id = ? AND round_number = ?`), runID, round)
	return scanRoundState(row)
}

func (r *Repo) ListRoundStates(ctx context.Context, runID string) ([]store.RoundState, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT id, run_id, round_number, metrics_json, narrative_text
		 FROM round_states WHERE run_id = ? ORDER BY round_number`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RoundState
	for rows.Next() {
		rs, err := scanRoundState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

func (r *Repo) AddDecisionSelections(ctx context.Context, sels []store.DecisionSelection) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := r.rebind(`INSERT INTO decision_selections (id, run_id, round_number, template_id, option_key)
		 VALUES (?, ?, ?, ?, ?)`)
	for _, s := range sels {
		if _, err := tx.ExecContext(ctx, q, s.ID, s.RunID, s.RoundNumber, s.TemplateID, s.OptionKey); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) ListDecisionSelections(ctx context.Context, runID string) ([]store.DecisionSelection, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT id, run_id, round_number, template_id, option_key
		 FROM decision_selections WHERE run_id = ? ORDER BY round_number, template_id`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.DecisionSelection
	for rows.Next() {
		var s store.DecisionSelection
		if err := rows.Scan(&s.ID, &s.RunID, &s.RoundNumber, &s.TemplateID, &s.OptionKey); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) AddEventInstance(ctx context.Context, ev store.EventInstance) error {
	ej, err := json.Marshal(ev.ResolvedEffects)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO event_instances (id, run_id, round_number, template_id, resolved_effects_json)
		 VALUES (?, ?, ?, ?, ?)`),
		ev.ID, ev.RunID, ev.RoundNumber, ev.TemplateID, string(ej))
	return err
}

func (r *Repo) GetEventInstance(ctx context.Context, runID string, round int) (store.EventInstance, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT id, run_id, round_number, template_id, resolved_effects_json
		 FROM event_instances WHERE run_id = ? AND round_number = ?`), runID, round)
	return scanEventInstance(row)
}

func (r *Repo) ListEventInstances(ctx context.Context, runID string) ([]store.EventInstance, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT id, run_id, round_number, template_id, resolved_effects_json
		 FROM event_instances WHERE run_id = ? ORDER BY round_number`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.EventInstance
	for rows.Next() {
		ev, err := scanEventInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *Repo) Close() error { return r.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (store.Run, error) {
	var run store.Run
	var createdAt string
	err := row.Scan(&run.ID, &createdAt, &run.StoreName, &run.StoreSize, &run.Region,
		&run.CurrentRound, &run.Status, &run.RunSeed)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, store.ErrNotFound
	}
	if err != nil {
		return store.Run{}, err
	}
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return store.Run{}, fmt.Errorf("run %s: bad created_at: %w", run.ID, err)
	}
	return run, nil
}

func scanRoundState(row scanner) (store.RoundState, error) {
	var rs store.RoundState
	var mj string
	err := row.Scan(&rs.ID, &rs.RunID, &rs.RoundNumber, &mj, &rs.Narrative)
	if errors.Is(err, sql.ErrNoRows) {
		return store.RoundState{}, store.ErrNotFound
	}
	if err != nil {
		return store.RoundState{}, err
	}
	if err := json.Unmarshal([]byte(mj), &rs.Metrics); err != nil {
		return store.RoundState{}, fmt.Errorf("round state %s: bad metrics: %w", rs.ID, err)
	}
	return rs, nil
}

func scanEventInstance(row scanner) (store.EventInstance, error) {
	var ev store.EventInstance
	var ej string
	err := row.Scan(&ev.ID, &ev.RunID, &ev.RoundNumber, &ev.TemplateID, &ej)
	if errors.Is(err, sql.ErrNoRows) {
		return store.EventInstance{}, store.ErrNotFound
	}
	if err != nil {
		return store.EventInstance{}, err
	}
	if err := json.Unmarshal([]byte(ej), &ev.ResolvedEffects); err != nil {
		return store.EventInstance{}, fmt.Errorf("event instance %s: bad effects: %w", ev.ID, err)
	}
	ev.ResolvedEffects = metricsDelta(ev.ResolvedEffects)
	return ev, nil
}

// metricsDelta normalises a nil map to an empty one so callers can range and
// index without nil checks.
func metricsDelta(d metrics.Delta) metrics.Delta {
	if d == nil {
		return metrics.Delta{}
	}
	return d
}
