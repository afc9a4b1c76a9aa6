package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"autosense/adapters/datareadiness/coercer"
	"autosense/adapters/excel"
	"autosense/domain/analysis"
	"autosense/domain/chart"
	"autosense/domain/core"
	"autosense/domain/dataset"
	"autosense/domain/intent"
	"autosense/internal"
	"autosense/internal/advisor"
	"autosense/internal/classifier"
	"autosense/internal/compose"
	"autosense/internal/errors"
	"autosense/internal/insight"
	"autosense/internal/profiling"
	"autosense/internal/quality"
	"autosense/internal/resolver"
	"autosense/ports"
)

// Cache layer names reported to the Observer.
const (
	CacheMemory   = "memory"
	CacheDatabase = "database"
)

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Content  []byte
}

// Observer receives service-level measurements. Implementations must be safe
// for concurrent use.
type Observer interface {
	CacheLookup(cache string, hit bool)
	ChartsComposed(specs []chart.Spec)
	AnalysisFinished(d time.Duration)
}

type nopObserver struct{}

func (nopObserver) CacheLookup(string, bool) {}
func (nopObserver) ChartsComposed([]chart.Spec) {}
func (nopObserver) AnalysisFinished(time.Duration) {}

// Settings carries the calibration the service applies per request
type Settings struct {
	SampleRows           int
	CorrelationThreshold float64
	MaxConcurrent        int
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{SampleRows: 100000, CorrelationThreshold: 0.6, MaxConcurrent: 4}
}

// Dependencies are the collaborators of AnalysisService. Nil analysis
// components are replaced by defaults; Datasets and Cache are required.
type Dependencies struct {
	Classifier *classifier.Classifier
	Resolver   *resolver.Resolver
	Composer   *compose.Engine
	Quality    *quality.Analyzer
	Ranker     *insight.Ranker
	Advisor    *advisor.Advisor
	Profiler   *profiling.DataProfiler
	Coercer    *coercer.TypeCoercer

	Datasets   ports.DatasetStore
	Cache      ports.AnalysisCache
	Repository ports.AnalysisRepository // optional

	Observer Observer
	Logger   *internal.Logger
}

// AnalysisService runs one dataset and query through the analysis core and
// caches the outcome.
type AnalysisService struct {
	classifier *classifier.Classifier
	resolver   *resolver.Resolver
	composer   *compose.Engine
	quality    *quality.Analyzer
	ranker     *insight.Ranker
	advisor    *advisor.Advisor
	profiler   *profiling.DataProfiler
	coercer    *coercer.TypeCoercer

	datasets ports.DatasetStore
	cache    ports.AnalysisCache
	repo     ports.AnalysisRepository

	observer Observer
	logger   *internal.Logger
	settings Settings

	limit  *semaphore.Weighted
	flight singleflight.Group
	now    func() time.Time
}

// NewAnalysisService creates the analysis service
func NewAnalysisService(deps Dependencies, settings Settings) (*AnalysisService, error) {
	if deps.Datasets == nil || deps.Cache == nil {
		return nil, fmt.Errorf("dataset store and analysis cache are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	defaults := DefaultSettings()
	if settings.SampleRows <= 0 {
		settings.SampleRows = defaults.SampleRows
	}
	if settings.CorrelationThreshold < 0 {
		settings.CorrelationThreshold = defaults.CorrelationThreshold
	}
	if settings.MaxConcurrent <= 0 {
		settings.MaxConcurrent = defaults.MaxConcurrent
	}

	s := &AnalysisService{
		classifier: deps.Classifier,
		resolver:   deps.Resolver,
		composer:   deps.Composer,
		quality:    deps.Quality,
		ranker:     deps.Ranker,
		advisor:    deps.Advisor,
		profiler:   deps.Profiler,
		coercer:    deps.Coercer,
		datasets:   deps.Datasets,
		cache:      deps.Cache,
		repo:       deps.Repository,
		observer:   deps.Observer,
		logger:     logger,
		settings:   settings,
		limit:      semaphore.NewWeighted(int64(settings.MaxConcurrent)),
		now:        time.Now,
	}
	if s.classifier == nil {
		s.classifier = classifier.New(logger)
	}
	if s.resolver == nil {
		s.resolver = resolver.New(resolver.WithLogger(logger))
	}
	if s.composer == nil {
		s.composer = compose.NewEngine(compose.WithLogger(logger))
	}
	if s.quality == nil {
		s.quality = quality.NewAnalyzer(logger)
	}
	if s.ranker == nil {
		s.ranker = insight.NewRanker(logger)
	}
	if s.advisor == nil {
		s.advisor = advisor.New(logger)
	}
	if s.profiler == nil {
		s.profiler = profiling.NewDataProfiler(profiling.DefaultProfilerConfig())
	}
	if s.coercer == nil {
		s.coercer = coercer.NewTypeCoercer(coercer.DefaultCoercionConfig())
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	return s, nil
}

// Load decodes an upload into a frame and keeps it for follow-up queries.
func (s *AnalysisService) Load(ctx context.Context, upload Upload) (*dataset.Frame, error) {
	frame, err := s.decode(upload)
	if err != nil {
		return nil, err
	}
	if err := s.datasets.Put(ctx, frame); err != nil {
		return nil, errors.Wrap(err, "failed to store dataset")
	}
	return frame, nil
}

func (s *AnalysisService) decode(upload Upload) (*dataset.Frame, error) {
	frame, err := excel.Decode(upload.Filename, upload.Content, s.coercer)
	switch {
	case err == nil:
		return frame, nil
	case stderrors.Is(err, core.ErrEmptyDataset):
		return nil, errors.EmptyDataset(err)
	case stderrors.Is(err, core.ErrUnsupportedFormat):
		return nil, errors.UnsupportedFormat(err)
	default:
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "failed to parse %s", upload.Filename))
	}
}

// Analyze decodes an upload and analyzes it against query.
func (s *AnalysisService) Analyze(ctx context.Context, upload Upload, query string) (*analysis.Result, error) {
	frame, err := s.Load(ctx, upload)
	if err != nil {
		return nil, err
	}
	return s.analyzeFrame(ctx, frame, query)
}

// AnalyzeDataset re-analyzes a previously uploaded dataset.
func (s *AnalysisService) AnalyzeDataset(ctx context.Context, id core.DatasetHash, query string) (*analysis.Result, error) {
	frame, err := s.Dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.analyzeFrame(ctx, frame, query)
}

// Dataset returns a stored frame. Unknown ids map to NOT_FOUND.
func (s *AnalysisService) Dataset(ctx context.Context, id core.DatasetHash) (*dataset.Frame, error) {
	frame, err := s.datasets.Get(ctx, id)
	if core.IsNotFoundError(err) {
		notFound := errors.NotFound("dataset " + id.Short())
		notFound.Cause = err
		return nil, errors.Wrap(notFound, "unknown dataset_id, please re-upload the file")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load dataset")
	}
	return frame, nil
}

func (s *AnalysisService) analyzeFrame(ctx context.Context, frame *dataset.Frame, query string) (*analysis.Result, error) {
	if frame.IsEmpty() {
		return nil, errors.EmptyDataset(core.ErrEmptyDataset)
	}
	key := core.CacheKey(frame.ID, core.NewQueryHash(query))

	if cached, ok := s.lookup(ctx, key); ok {
		cached.Cached = true
		cached.Metadata.RequestID = core.NewRequestID()
		return cached, nil
	}

	// The shared run outlives any single caller; each caller waits on its own context.
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		return s.run(context.WithoutCancel(ctx), frame, query, key)
	})
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "analysis cancelled")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		shared, ok := res.Val.(*analysis.Result)
		if !ok {
			return nil, errors.InternalError("analysis produced no result")
		}
		result := *shared
		if res.Shared {
			result.Metadata.RequestID = core.NewRequestID()
		}
		return &result, nil
	}
}

// lookup consults the in-memory cache first, then the repository. A
// repository hit is promoted into memory.
func (s *AnalysisService) lookup(ctx context.Context, key string) (*analysis.Result, bool) {
	result, err := s.cache.Get(ctx, key)
	s.observer.CacheLookup(CacheMemory, err == nil)
	if err == nil {
		s.logger.Debug("[Analysis] memory cache hit %s", key)
		return result, true
	}
	if s.repo == nil {
		return nil, false
	}

	result, err = s.repo.Get(ctx, key)
	s.observer.CacheLookup(CacheDatabase, err == nil)
	if err != nil {
		if !stderrors.Is(err, core.ErrCacheMiss) {
			s.logger.Warn("[Analysis] repository lookup failed for %s: %v", key, err)
		}
		return nil, false
	}
	s.logger.Debug("[Analysis] repository hit %s", key)
	_ = s.cache.Set(ctx, key, result)
	return result, true
}

func (s *AnalysisService) run(ctx context.Context, frame *dataset.Frame, query, key string) (*analysis.Result, error) {
	if err := s.limit.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "analysis cancelled while waiting for a slot")
	}
	defer s.limit.Release(1)

	start := s.now()
	work := frame.Sample(s.settings.SampleRows)
	profiles := s.profiler.ProfileDataset(work)
	in := s.classifier.Classify(query)
	binding := s.resolver.Resolve(in, profiles)

	result := &analysis.Result{
		DatasetID: frame.ID,
		Query:     query,
		Summary:   insight.Summary(work, profiles.Count(dataset.RoleNumeric)),
		Intent:    in,
		Binding:   binding,
		Profiles:  profiles,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.Charts = s.composer.Compose(compose.Input{Intent: in, Binding: binding, Frame: work, Profiles: profiles})
		return gctx.Err()
	})
	g.Go(func() error {
		result.Quality = s.quality.Assess(work)
		return gctx.Err()
	})
	g.Go(func() error {
		result.Correlated = s.quality.Correlations(work, profiles, s.settings.CorrelationThreshold)
		return gctx.Err()
	})
	g.Go(func() error {
		result.Insights = s.ranker.Rank(work, profiles, binding)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "analysis interrupted")
	}

	elapsed := s.now().Sub(start)
	result.Metadata = analysis.Metadata{
		RequestID:   core.NewRequestID(),
		Rows:        frame.RowCount(),
		Columns:     frame.ColumnCount(),
		SampledRows: work.RowCount(),
		GeneratedAt: start.UTC(),
		DurationMS:  elapsed.Milliseconds(),
	}
	s.observer.AnalysisFinished(elapsed)
	s.observer.ChartsComposed(result.Charts)

	s.store(ctx, key, result)
	s.logger.Info("[Analysis] %s: %d charts, %d insights, quality %d in %dms",
		frame.ID.Short(), len(result.Charts), len(result.Insights), result.Quality.Score, result.Metadata.DurationMS)
	return result, nil
}

// store writes through to the repository; a repository failure is logged and
// does not fail the request.
func (s *AnalysisService) store(ctx context.Context, key string, result *analysis.Result) {
	if err := s.cache.Set(ctx, key, result); err != nil {
		s.logger.Warn("[Analysis] cache write failed for %s: %v", key, err)
	}
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, key, result); err != nil {
		s.logger.Warn("[Analysis] repository write failed for %s: %v", key, err)
	}
}

// Quality assesses an uploaded file without composing charts.
func (s *AnalysisService) Quality(ctx context.Context, upload Upload) (analysis.QualityReport, error) {
	frame, err := s.decode(upload)
	if err != nil {
		return analysis.QualityReport{}, err
	}
	return s.quality.Assess(frame.Sample(s.settings.SampleRows)), nil
}

// Correlations lists notable numeric relationships. A negative threshold
// selects the configured default.
func (s *AnalysisService) Correlations(ctx context.Context, upload Upload, threshold float64) ([]analysis.CorrelationPair, error) {
	frame, err := s.decode(upload)
	if err != nil {
		return nil, err
	}
	if threshold < 0 {
		threshold = s.settings.CorrelationThreshold
	}
	if threshold > 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("threshold %.2f is outside [0, 1]", threshold))
	}
	work := frame.Sample(s.settings.SampleRows)
	return s.quality.Correlations(work, s.profiler.ProfileDataset(work), threshold), nil
}

// Recommendations frames the data's volatility and anomalies as business
// actions, with a confidence estimate for the query.
func (s *AnalysisService) Recommendations(ctx context.Context, upload Upload, query string) (analysis.Recommendations, error) {
	frame, err := s.decode(upload)
	if err != nil {
		return analysis.Recommendations{}, err
	}
	work := frame.Sample(s.settings.SampleRows)
	return analysis.Recommendations{
		Items:      s.advisor.BusinessRecommendations(work, s.profiler.ProfileDataset(work)),
		Confidence: s.advisor.EstimateConfidence(query, work, s.chartTypeFor(query)),
	}, nil
}

// RefineQuery matches a query against an upload's schema.
func (s *AnalysisService) RefineQuery(ctx context.Context, upload Upload, query string) (analysis.Refinement, error) {
	if strings.TrimSpace(query) == "" {
		return analysis.Refinement{}, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(core.ErrEmptyQuery, "query is required"))
	}
	frame, err := s.decode(upload)
	if err != nil {
		return analysis.Refinement{}, err
	}
	work := frame.Sample(s.settings.SampleRows)
	return s.advisor.RefineQuery(query, work, s.profiler.ProfileDataset(work)), nil
}

// ClassifyQuery exposes the intent classifier on its own.
func (s *AnalysisService) ClassifyQuery(query string) intent.Intent {
	return s.classifier.Classify(query)
}

// chartTypeFor picks the chart type a query asks for, defaulting to bar.
func (s *AnalysisService) chartTypeFor(query string) chart.Type {
	if hint := s.classifier.Classify(query).ChartTypeHint; hint != "" {
		return hint
	}
	return chart.Bar
}
