package transcript

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists transcripts in Postgres so they survive restarts.
// Selected when DATABASE_URL is configured.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Init creates the transcripts table if it does not exist yet.
func (s *PGStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transcripts (
			filename    text PRIMARY KEY,
			id          uuid NOT NULL,
			content     text NOT NULL,
			uploaded_at timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create transcripts table: %w", err)
	}
	return nil
}

func (s *PGStore) Put(ctx context.Context, filename, text string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transcripts (filename, id, content, uploaded_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (filename) DO UPDATE
		SET id = EXCLUDED.id, content = EXCLUDED.content, uploaded_at = now()`,
		filename, id, text,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert transcript: %w", err)
	}
	return id, nil
}

func (s *PGStore) Get(ctx context.Context, filename string) (string, error) {
	var content string
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM transcripts WHERE filename = $1`, filename,
	).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select transcript: %w", err)
	}
	return content, nil
}

func (s *PGStore) Close() {
	s.pool.Close()
}
