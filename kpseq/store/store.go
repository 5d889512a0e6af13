package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/kpseq/kpseq/labeling"
	"github.com/ZanzyTHEbar/kpseq/kpseq/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "github.com/tursodatabase/go-libsql"
)

// Config locates the run database. A "file:" DSN is local; anything else is a remote libsql URL.
type Config struct {
	DSN          string
	AuthToken    string
	MaxOpenConns int
}

// Run is one recorded preparation or evaluation.
type Run struct {
	ID        uuid.UUID
	Profile   string
	Params    map[string]any
	CreatedAt time.Time
}

// Store records evaluation runs and their per-strategy scores.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		profile TEXT NOT NULL,
		params TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scores (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		strategy TEXT NOT NULL,
		precision REAL NOT NULL,
		recall REAL NOT NULL,
		f1 REAL NOT NULL,
		correct INTEGER NOT NULL,
		predicted INTEGER NOT NULL,
		gold INTEGER NOT NULL,
		documents INTEGER NOT NULL,
		PRIMARY KEY (run_id, strategy)
	)`,
	`CREATE TABLE IF NOT EXISTS encoding_stats (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		split TEXT NOT NULL,
		documents INTEGER NOT NULL,
		keyphrases INTEGER NOT NULL,
		unmatched INTEGER NOT NULL,
		truncated INTEGER NOT NULL,
		dropped_tokens INTEGER NOT NULL,
		lost_spans INTEGER NOT NULL,
		cut_spans INTEGER NOT NULL,
		PRIMARY KEY (run_id, split)
	)`,
}

// Open connects to the database and creates the schema.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store dsn is required")
	}
	dsn := cfg.DSN
	if strings.HasPrefix(dsn, "file:") {
		path := strings.TrimPrefix(dsn, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	} else if cfg.AuthToken != "" {
		if u, err := url.Parse(dsn); err == nil {
			q := u.Query()
			q.Set("authToken", cfg.AuthToken)
			u.RawQuery = q.Encode()
			dsn = u.String()
		}
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connector: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	s := &Store{db: db, logger: logger}
	if err := s.initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for initialization: %w", err)
	}
	defer tx.Rollback()
	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// CreateRun records a new run and returns its id.
func (s *Store) CreateRun(ctx context.Context, profile string, params map[string]any) (uuid.UUID, error) {
	id := uuid.New()
	if params == nil {
		params = map[string]any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode run params: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, profile, params, created_at) VALUES (?, ?, ?, ?)`,
		id.String(), profile, string(raw), time.Now().UnixMilli())
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}
	s.logger.Debug().Str("run", id.String()).Str("profile", profile).Msg("run created")
	return id, nil
}

// RecordScore stores one strategy's result for a run, replacing an earlier one.
func (s *Store) RecordScore(ctx context.Context, runID uuid.UUID, r metrics.Report) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO scores (run_id, strategy, precision, recall, f1, correct, predicted, gold, documents)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID.String(), r.Strategy, r.Precision, r.Recall, r.F1, r.Correct, r.Predicted, r.Gold, r.Documents)
	if err != nil {
		return fmt.Errorf("insert score %s: %w", r.Strategy, err)
	}
	return nil
}

// RecordStats stores the label encoding counters of one split.
func (s *Store) RecordStats(ctx context.Context, runID uuid.UUID, split string, st labeling.Stats) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO encoding_stats
		 (run_id, split, documents, keyphrases, unmatched, truncated, dropped_tokens, lost_spans, cut_spans)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID.String(), split, st.Documents, st.Keyphrases, st.UnmatchedKPs, st.TruncatedDocuments,
		st.DroppedTokens, st.LostSpans, st.CutSpans)
	if err != nil {
		return fmt.Errorf("insert stats %s: %w", split, err)
	}
	return nil
}

// Scores returns the results recorded for a run, ordered by strategy.
func (s *Store) Scores(ctx context.Context, runID uuid.UUID) ([]metrics.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strategy, precision, recall, f1, correct, predicted, gold, documents
		 FROM scores WHERE run_id = ? ORDER BY strategy`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var out []metrics.Report
	for rows.Next() {
		var r metrics.Report
		if err := rows.Scan(&r.Strategy, &r.Precision, &r.Recall, &r.F1,
			&r.Correct, &r.Predicted, &r.Gold, &r.Documents); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs returns the most recent runs first, at most limit of them.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile, params, created_at FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			id, profile, params string
			created             int64
		)
		if err := rows.Scan(&id, &profile, &params, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run := Run{Profile: profile, CreatedAt: time.UnixMilli(created)}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
			return nil, fmt.Errorf("decode run params: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
