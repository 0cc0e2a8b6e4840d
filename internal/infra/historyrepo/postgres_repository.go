package historyrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/flat-price/internal/domain/valuation"
)

// Schema creates the history table. The features column holds one dimension per
// valuation.FeatureNames entry.
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS predictions (
	id          UUID PRIMARY KEY,
	form        JSONB NOT NULL,
	features    JSONB NOT NULL,
	embedding   vector(16) NOT NULL,
	lr_price    DOUBLE PRECISION NOT NULL,
	gbm_price   DOUBLE PRECISION NOT NULL,
	xgbm_price  DOUBLE PRECISION NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS predictions_created_at_idx ON predictions (created_at DESC);
`

// PostgresRepository implements valuation.HistoryRepository using pgx and pgvector.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Ping checks connectivity for the readiness endpoint.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// Migrate applies Schema.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate predictions: %w", err)
	}
	return nil
}

// Record inserts a completed prediction.
func (r *PostgresRepository) Record(ctx context.Context, record valuation.Record) error {
	form, err := json.Marshal(record.Form)
	if err != nil {
		return err
	}
	features, err := json.Marshal(record.Features)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO predictions (id, form, features, embedding, lr_price, gbm_price, xgbm_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, record.ID, form, features, pgvector.NewVector(record.Features.Vector()),
		record.Scores.LinearRegression, record.Scores.GBM, record.Scores.XGBM, record.CreatedAt)
	return err
}

// Recent returns the latest predictions, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]valuation.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, form, features, lr_price, gbm_price, xgbm_price, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []valuation.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Nearest returns the k predictions whose feature vectors are closest to vector.
func (r *PostgresRepository) Nearest(ctx context.Context, vector []float32, k int) ([]valuation.Comparable, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, form, features, lr_price, gbm_price, xgbm_price, created_at, embedding <-> $1 AS distance
		FROM predictions
		ORDER BY embedding <-> $1
		LIMIT $2
	`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []valuation.Comparable
	for rows.Next() {
		var distance float64
		record, err := scanRecord(rows, &distance)
		if err != nil {
			return nil, err
		}
		out = append(out, valuation.Comparable{Record: record, Distance: distance})
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, extras ...any) (valuation.Record, error) {
	var (
		record   valuation.Record
		form     []byte
		features []byte
	)
	args := []any{
		&record.ID, &form, &features,
		&record.Scores.LinearRegression, &record.Scores.GBM, &record.Scores.XGBM,
		&record.CreatedAt,
	}
	args = append(args, extras...)
	if err := row.Scan(args...); err != nil {
		return valuation.Record{}, err
	}
	if err := json.Unmarshal(form, &record.Form); err != nil {
		return valuation.Record{}, fmt.Errorf("decode form: %w", err)
	}
	if err := json.Unmarshal(features, &record.Features); err != nil {
		return valuation.Record{}, fmt.Errorf("decode features: %w", err)
	}
	return record, nil
}

var _ valuation.HistoryRepository = (*PostgresRepository)(nil)
