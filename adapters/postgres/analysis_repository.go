package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"autosense/domain/analysis"
	"autosense/domain/core"
	"autosense/internal/errors"
	"autosense/ports"
)

// analysisRepository persists results in analysis_results
type analysisRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewAnalysisRepository creates a PostgreSQL analysis result repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &analysisRepository{db: db, now: time.Now}
}

// Save upserts the result stored under key. Keys have the form
// "<dataset hash>:<query hash>".
func (r *analysisRepository) Save(ctx context.Context, key string, result *analysis.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}
	datasetHash, queryHash, _ := strings.Cut(key, ":")

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analysis_results (cache_key, dataset_hash, query_hash, result, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cache_key) DO UPDATE SET
			result = EXCLUDED.result,
			created_at = EXCLUDED.created_at
	`, key, datasetHash, queryHash, payload, r.now())
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to save analysis %s", key), err)
	}
	return nil
}

// Get loads the result stored under key.
func (r *analysisRepository) Get(ctx context.Context, key string) (*analysis.Result, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `
		SELECT result FROM analysis_results WHERE cache_key = $1
	`, key)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to load analysis %s", key), err)
	}

	var result analysis.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis %s: %w", key, err)
	}
	return &result, nil
}

// DeleteOlderThan removes results created more than days ago and returns how
// many rows went.
func (r *analysisRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := r.now().AddDate(0, 0, -days)
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM analysis_results WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, errors.DatabaseError("failed to prune analyses", err)
	}
	return res.RowsAffected()
}
