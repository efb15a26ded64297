package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pages (
	slack_thread_ts TEXT PRIMARY KEY,
	content         TEXT NOT NULL,
	fragment_count  INTEGER NOT NULL DEFAULT 1,
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
)`

// SQLite is a PageStore backed by an embedded SQLite file, for single-node
// deployments and local development.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; statements are still atomic on their own.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure pages table: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Close() {
	s.db.Close()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) GetPage(ctx context.Context, threadID string) (Page, error) {
	p := Page{ThreadID: threadID}
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT content, fragment_count, created_at, updated_at FROM pages WHERE slack_thread_ts = ?`,
		threadID,
	).Scan(&p.Content, &p.FragmentCount, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, ErrNotFound
	}
	if err != nil {
		return Page{}, fmt.Errorf("get page: %w", err)
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}

func (s *SQLite) CreatePage(ctx context.Context, threadID, fragment string) (Outcome, error) {
	now := s.now().Unix()
	var n int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO pages (slack_thread_ts, content, fragment_count, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (slack_thread_ts) DO UPDATE
		SET content = pages.content || excluded.content,
		    fragment_count = pages.fragment_count + 1,
		    updated_at = excluded.updated_at
		RETURNING fragment_count
	`, threadID, fragment, now, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("upsert page: %w", err)
	}
	return outcomeFromCount(n), nil
}

func (s *SQLite) AppendFragment(ctx context.Context, threadID, fragment string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE pages
		SET content = content || ?,
		    fragment_count = fragment_count + 1,
		    updated_at = ?
		WHERE slack_thread_ts = ?
	`, fragment, s.now().Unix(), threadID)
	if err != nil {
		return false, fmt.Errorf("append fragment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append fragment rows: %w", err)
	}
	return n > 0, nil
}
