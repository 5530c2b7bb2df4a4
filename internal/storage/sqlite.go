package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "tgchannel/pkg/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS failures (
	id       TEXT PRIMARY KEY,
	at       TEXT NOT NULL,
	channel  TEXT NOT NULL,
	chat_id  TEXT,
	method   TEXT,
	request  TEXT,
	err      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS failures_at ON failures(at);
`

// tsLayout is fixed-width so ORDER BY at sorts chronologically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendFailure(ctx context.Context, r FailureRecord) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	r = normalize(r)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO failures(id, at, channel, chat_id, method, request, err) VALUES(?,?,?,?,?,?,?)`,
		r.ID, r.At.Format(tsLayout), r.Channel, nullStr(r.ChatID), nullStr(r.Method), nullStr(r.Request), r.Error,
	)
	return err
}

func (s *sqliteStore) RecentFailures(ctx context.Context, limit int) ([]FailureRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, channel, chat_id, method, request, err FROM failures ORDER BY at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FailureRecord
	for rows.Next() {
		var (
			r                       FailureRecord
			at                      string
			chatID, method, request sql.NullString
		)
		if err := rows.Scan(&r.ID, &at, &r.Channel, &chatID, &method, &request, &r.Error); err != nil {
			return nil, err
		}
		r.At, _ = time.Parse(tsLayout, at)
		r.ChatID, r.Method, r.Request = chatID.String, method.String, request.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
