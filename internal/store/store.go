package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS pages (
	slack_thread_ts TEXT PRIMARY KEY,
	content         TEXT NOT NULL,
	fragment_count  INTEGER NOT NULL DEFAULT 1,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store is the pgx-backed PageStore.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure pages table: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetPage returns the page for a thread.
func (s *Store) GetPage(ctx context.Context, threadID string) (Page, error) {
	p := Page{ThreadID: threadID}
	err := s.pool.QueryRow(ctx,
		`SELECT content, fragment_count, created_at, updated_at FROM pages WHERE slack_thread_ts = $1`,
		threadID,
	).Scan(&p.Content, &p.FragmentCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Page{}, ErrNotFound
	}
	if err != nil {
		return Page{}, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

// CreatePage upserts the page; a conflicting row gets the fragment appended.
func (s *Store) CreatePage(ctx context.Context, threadID, fragment string) (Outcome, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO pages (slack_thread_ts, content)
		VALUES ($1, $2)
		ON CONFLICT (slack_thread_ts) DO UPDATE
		SET content = pages.content || EXCLUDED.content,
		    fragment_count = pages.fragment_count + 1,
		    updated_at = now()
		RETURNING fragment_count
	`, threadID, fragment).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("upsert page: %w", err)
	}

	slog.Debug("page upserted", "thread_id", threadID, "fragment_count", n)
	return outcomeFromCount(n), nil
}

// AppendFragment concatenates fragment onto the stored content in place.
func (s *Store) AppendFragment(ctx context.Context, threadID, fragment string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE pages
		SET content = content || $2,
		    fragment_count = fragment_count + 1,
		    updated_at = now()
		WHERE slack_thread_ts = $1
	`, threadID, fragment)
	if err != nil {
		return false, fmt.Errorf("append fragment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
