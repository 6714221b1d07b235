package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/intervald/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 2000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// OpenSQLite opens path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, mustTime(r.now()),
	)
	return err
}

func (r *SQLiteRepository) LoadConfig(ctx context.Context) (model.Config, error) {
	return LoadConfig(ctx, r)
}

// SaveConfig writes every key in one transaction so a crash never leaves a
// half-written configuration.
func (r *SQLiteRepository) SaveConfig(ctx context.Context, cfg model.Config) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := SaveConfig(ctx, txPreferences{tx: tx, now: r.now}, cfg); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type txPreferences struct {
	tx  *sql.Tx
	now func() time.Time
}

func (p txPreferences) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.tx.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	return value, err == nil, err
}

func (p txPreferences) Set(ctx context.Context, key, value string) error {
	_, err := p.tx.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, mustTime(p.now()),
	)
	return err
}

func (r *SQLiteRepository) RecordRun(ctx context.Context, in Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, work, cycles, sets, prepare, elapsed, outcome, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Work, in.Cycles, in.Sets, in.Prepare, in.Elapsed, in.Outcome,
		mustTime(in.StartedAt), mustTime(in.EndedAt),
	)
	return err
}

func (r *SQLiteRepository) GetRun(ctx context.Context, id string) (Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, work, cycles, sets, prepare, elapsed, outcome, started_at, ended_at
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	return run, nil
}

func (r *SQLiteRepository) ListRuns(ctx context.Context, filter RunListFilter) ([]Run, error) {
	query := `
		SELECT id, work, cycles, sets, prepare, elapsed, outcome, started_at, ended_at
		FROM runs WHERE 1=1`
	args := make([]any, 0, 4)
	if filter.Outcome != "" {
		query += " AND outcome = ?"
		args = append(args, filter.Outcome)
	}
	if filter.Since != nil {
		query += " AND ended_at >= ?"
		args = append(args, mustTime(*filter.Since))
	}
	query += " ORDER BY ended_at DESC"
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Run, 0)
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
		if offset > 0 {
			sql += " OFFSET ?"
			*args = append(*args, offset)
		}
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var out Run
	var started, ended string
	if err := s.Scan(&out.ID, &out.Work, &out.Cycles, &out.Sets, &out.Prepare, &out.Elapsed, &out.Outcome, &started, &ended); err != nil {
		return Run{}, err
	}
	startedAt, err := parseRequiredTime(started)
	if err != nil {
		return Run{}, err
	}
	endedAt, err := parseRequiredTime(ended)
	if err != nil {
		return Run{}, err
	}
	out.StartedAt = startedAt
	out.EndedAt = endedAt
	return out, nil
}
