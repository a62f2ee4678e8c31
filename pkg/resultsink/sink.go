// Package resultsink persists a completed run's ExecutionContext to
// PostgreSQL. It is intentionally a thin layer over database/sql plus the
// pgx stdlib driver — no ORM — since the only access pattern is "write one
// run, plus its agents' rows, once" with no query surface of its own.
package resultsink

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/codeready-toolchain/agentcore/pkg/agent"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

//go:embed migrations
var migrationsFS embed.FS

// ResultSink persists a completed execution run. Implementations are
// upstream of the core's algorithm (see spec's Non-goals) — the core never
// imports this package.
type ResultSink interface {
	Persist(ctx context.Context, execCtx *agent.ExecutionContext, status agent.RunStatus) error
}

// PostgresSink implements ResultSink against a PostgreSQL database, applying
// embedded migrations on construction so a fresh database is ready to
// receive writes without a separate deploy step.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink opens a connection pool per cfg, applies embedded
// migrations, and returns a ready-to-use PostgresSink.
func NewPostgresSink(ctx context.Context, cfg Config) (*PostgresSink, error) {
	db, err := sql.Open("pgx", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("resultsink: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resultsink: failed to ping database: %w", err)
	}

	if err := runMigrations(db, cfg.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resultsink: failed to run migrations: %w", err)
	}

	return &PostgresSink{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

// Persist writes execCtx's started/completed timestamps, aggregate metrics,
// and every committed agent result in a single transaction.
func (s *PostgresSink) Persist(ctx context.Context, execCtx *agent.ExecutionContext, status agent.RunStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("resultsink: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO execution_runs
			(execution_id, problem_description, business_type, depth, status, started_at, completed_at, total_tokens, total_cost_usd)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (execution_id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			total_tokens = EXCLUDED.total_tokens,
			total_cost_usd = EXCLUDED.total_cost_usd`,
		execCtx.ExecutionID, execCtx.ProblemDescription, execCtx.BusinessType, execCtx.Depth, string(status),
		execCtx.StartedAt, execCtx.CompletedAt, execCtx.TotalTokens(), execCtx.TotalCostUSD(),
	)
	if err != nil {
		return fmt.Errorf("resultsink: failed to persist execution run: %w", err)
	}

	outputs, metrics := execCtx.Snapshot()
	for name, m := range metrics {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO agent_results
				(execution_id, agent_name, status, output, error_message, input_tokens, output_tokens, cost_usd, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (execution_id, agent_name) DO UPDATE SET
				status = EXCLUDED.status,
				output = EXCLUDED.output,
				error_message = EXCLUDED.error_message,
				input_tokens = EXCLUDED.input_tokens,
				output_tokens = EXCLUDED.output_tokens,
				cost_usd = EXCLUDED.cost_usd,
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time`,
			execCtx.ExecutionID, name, string(m.Status), outputs[name], m.ErrorMessage,
			m.InputTokens, m.OutputTokens, m.CostUSD, m.StartTime, m.EndTime,
		)
		if err != nil {
			return fmt.Errorf("resultsink: failed to persist agent result %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("resultsink: failed to commit: %w", err)
	}
	return nil
}

func runMigrations(db *sql.DB, databaseName string) error {
	if ok, err := hasEmbeddedMigrations(); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("no embedded migration files found")
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	defer func() { _ = sourceDriver.Close() }()

	m, err := migrate.NewWithInstance("iofs", sourceDriver, databaseName, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func hasEmbeddedMigrations() (bool, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return false, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && len(entry.Name()) > 4 && entry.Name()[len(entry.Name())-4:] == ".sql" {
			return true, nil
		}
	}
	return false, nil
}

var _ ResultSink = (*PostgresSink)(nil)
