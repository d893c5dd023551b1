package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/frogcom/api/internal/trace"
)

// Postgres wraps the PostgreSQL connection pool used for durable trace audit.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new PostgreSQL connection pool
func NewPostgres(databaseURL string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{pool: pool}, nil
}

// Pool returns the underlying connection pool
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Close closes the database connection pool
func (p *Postgres) Close() {
	p.pool.Close()
}

// Name implements trace.Writer.
func (p *Postgres) Name() string { return "postgres" }

// WriteTrace persists one finished orchestration trace.
func (p *Postgres) WriteTrace(ctx context.Context, rec *trace.Record) error {
	steps, err := json.Marshal(rec.Steps)
	if err != nil {
		return fmt.Errorf("encoding trace steps: %w", err)
	}

	query := `
		INSERT INTO orchestration_traces
			(request_id, prompt, rounds_executed, step_count, steps, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = p.pool.Exec(ctx, query,
		rec.RequestID, rec.Prompt, rec.RoundsExecuted, len(rec.Steps), steps,
		rec.StartedAt, rec.CompletedAt,
	)
	return err
}
