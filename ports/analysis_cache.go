package ports

import (
	"context"

	"autosense/domain/analysis"
)

// AnalysisCache holds recent results keyed by core.CacheKey
type AnalysisCache interface {
	Get(ctx context.Context, key string) (*analysis.Result, error) // core.ErrCacheMiss when absent
	Set(ctx context.Context, key string, result *analysis.Result) error
	Len() int
}

// AnalysisRepository durably stores results beneath the in-memory cache
type AnalysisRepository interface {
	Save(ctx context.Context, key string, result *analysis.Result) error
	Get(ctx context.Context, key string) (*analysis.Result, error) // core.ErrCacheMiss when absent
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}
