package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"autosense/adapters/datareadiness/coercer"
	"autosense/adapters/embedding"
	"autosense/adapters/memory"
	"autosense/adapters/postgres"
	"autosense/app"
	"autosense/internal"
	"autosense/internal/advisor"
	"autosense/internal/classifier"
	"autosense/internal/compose"
	"autosense/internal/config"
	"autosense/internal/errors"
	"autosense/internal/insight"
	"autosense/internal/metrics"
	"autosense/internal/migration"
	"autosense/internal/profiling"
	"autosense/internal/quality"
	"autosense/internal/resolver"
	"autosense/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Storage
	Datasets   ports.DatasetStore
	Cache      ports.AnalysisCache
	Repository ports.AnalysisRepository

	// Analysis core
	Embedder ports.EmbeddingProvider
	Service  *app.AnalysisService
}

// New wires the analysis service from configuration. The database is only
// opened when a DATABASE_URL is configured.
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Datasets: memory.NewDatasetStore(cfg.Cache.MaxDatasets, 0),
		Cache:    memory.NewAnalysisCache(cfg.Cache.MaxAnalyses, cfg.Cache.TTL),
	}

	if cfg.Database.Enabled() {
		if err := c.initDatabase(ctx); err != nil {
			return nil, err
		}
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	c.Embedder = embedder

	if err := c.initService(); err != nil {
		return nil, err
	}

	logger.Info("Container initialized (embedding=%s, database=%t, metrics=%t)",
		cfg.Embedding.Provider, cfg.Database.Enabled(), cfg.Metrics.Enabled)
	return c, nil
}

// initDatabase connects, migrates and creates the analysis repository
func (c *Container) initDatabase(ctx context.Context) error {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		db.Close()
		return err
	}
	c.Logger.Info("Database migrations applied (version %s)", runner.Version())

	c.DB = db
	c.Repository = postgres.NewAnalysisRepository(db)
	return nil
}

func newEmbedder(cfg *config.Config) (ports.EmbeddingProvider, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		e, err := embedding.NewOpenAIEmbedder(embedding.Config{
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
			Timeout: cfg.Embedding.Timeout,
		})
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to create embedding client"))
		}
		return e, nil
	default:
		return embedding.NewHashingEmbedder(cfg.Analysis.EmbeddingDim), nil
	}
}

// initService builds the analysis core and the service around it
func (c *Container) initService() error {
	cfg := c.Config.Analysis

	var observer app.Observer
	composeOpts := []compose.Option{compose.WithLogger(c.Logger)}
	if c.Config.Metrics.Enabled {
		recorder := metrics.Recorder{}
		observer = recorder
		composeOpts = append(composeOpts, compose.WithObserver(recorder))
	}

	coercion := coercer.DefaultCoercionConfig()
	coercion.TimestampSample = cfg.ProfileSampleRows

	profilerConfig := profiling.DefaultProfilerConfig()
	profilerConfig.CategoryMaxCardinality = cfg.CategoryMaxCardinality

	svc, err := app.NewAnalysisService(app.Dependencies{
		Classifier: classifier.New(c.Logger),
		Resolver: resolver.New(
			resolver.WithEmbedder(c.Embedder),
			resolver.WithSemanticThreshold(cfg.SemanticThreshold),
			resolver.WithLogger(c.Logger),
		),
		Composer:   compose.NewEngine(composeOpts...),
		Quality:    quality.NewAnalyzer(c.Logger),
		Ranker:     insight.NewRanker(c.Logger),
		Advisor:    advisor.New(c.Logger),
		Profiler:   profiling.NewDataProfiler(profilerConfig),
		Coercer:    coercer.NewTypeCoercer(coercion),
		Datasets:   c.Datasets,
		Cache:      c.Cache,
		Repository: c.Repository,
		Observer:   observer,
		Logger:     c.Logger,
	}, app.Settings{
		SampleRows:           cfg.SampleRows,
		CorrelationThreshold: cfg.CorrelationThreshold,
		MaxConcurrent:        cfg.MaxConcurrent,
	})
	if err != nil {
		return fmt.Errorf("failed to create analysis service: %w", err)
	}
	c.Service = svc
	return nil
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
