package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/convoml/intent-classifier-go/internal/domain"
	"github.com/convoml/intent-classifier-go/pkg/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ResultStore persists classification results to PostgreSQL, one row per
// conversation per batch.
type ResultStore struct {
	db     *sql.DB
	logger *zap.Logger
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func NewResultStore(cfg PostgresConfig, logger *zap.Logger) (*ResultStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)

	store := &ResultStore{
		db:     db,
		logger: logger,
	}

	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *ResultStore) ensureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS classification_results (
			id              BIGSERIAL PRIMARY KEY,
			batch_id        TEXT        NOT NULL,
			conversation_id TEXT        NOT NULL,
			predicted_intent TEXT       NOT NULL,
			confidence      DOUBLE PRECISION NOT NULL,
			rationale       TEXT        NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_classification_results_batch
			ON classification_results (batch_id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.NewStoreError("failed to create schema", "ensure_schema", err)
	}
	return nil
}

// SaveResults inserts all results of a batch in one transaction.
func (s *ResultStore) SaveResults(ctx context.Context, batchID string, results []domain.ClassificationResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStoreError("failed to begin transaction", "save_results", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO classification_results (batch_id, conversation_id, predicted_intent, confidence, rationale)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return errors.NewStoreError("failed to prepare insert", "save_results", err)
	}
	defer stmt.Close()

	for _, result := range results {
		if _, err := stmt.ExecContext(ctx,
			batchID,
			result.ConversationID,
			result.PredictedIntent,
			result.Confidence,
			result.Rationale,
		); err != nil {
			return errors.NewStoreError("failed to insert result", "save_results", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStoreError("failed to commit transaction", "save_results", err)
	}

	s.logger.Info("Batch results persisted",
		zap.String("batch_id", batchID),
		zap.Int("count", len(results)),
	)

	return nil
}

func (s *ResultStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ResultStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
