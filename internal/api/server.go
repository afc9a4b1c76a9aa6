package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autosense/app"
	"autosense/domain/analysis"
	"autosense/domain/core"
	"autosense/domain/intent"
	"autosense/internal"
	"autosense/internal/metrics"
)

// Version is reported by the service info endpoint.
const Version = "3.0.0"

// AnalysisService is the application surface the handlers drive
type AnalysisService interface {
	Analyze(ctx context.Context, upload app.Upload, query string) (*analysis.Result, error)
	AnalyzeDataset(ctx context.Context, id core.DatasetHash, query string) (*analysis.Result, error)
	Quality(ctx context.Context, upload app.Upload) (analysis.QualityReport, error)
	Correlations(ctx context.Context, upload app.Upload, threshold float64) ([]analysis.CorrelationPair, error)
	Recommendations(ctx context.Context, upload app.Upload, query string) (analysis.Recommendations, error)
	RefineQuery(ctx context.Context, upload app.Upload, query string) (analysis.Refinement, error)
	ClassifyQuery(query string) intent.Intent
}

// Options configures the HTTP surface
type Options struct {
	MaxUploadMB    int
	MetricsEnabled bool
	Logger         *internal.Logger
}

// Server exposes the analysis service over HTTP
type Server struct {
	router  *gin.Engine
	service AnalysisService
	logger  *internal.Logger
	opts    Options
}

// NewServer creates the gin engine with middleware and routes installed
func NewServer(service AnalysisService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = internal.DefaultLogger
	}
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 50
	}

	s := &Server{
		router:  gin.New(),
		service: service,
		logger:  opts.Logger,
		opts:    opts,
	}
	s.router.MaxMultipartMemory = int64(opts.MaxUploadMB) << 20
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery(), requestID())
	if s.opts.MetricsEnabled {
		s.router.Use(metrics.Middleware())
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)

	s.router.POST("/analyze", s.handleAnalyze)
	s.router.POST("/analyze/prompt", s.handleAnalyzePrompt)
	s.router.POST("/data-quality", s.handleDataQuality)
	s.router.POST("/correlations", s.handleCorrelations)
	s.router.POST("/recommendations", s.handleRecommendations)
	s.router.POST("/query-refinement", s.handleQueryRefinement)
	s.router.POST("/intent", s.handleIntent)
	s.router.POST("/export/csv-bundle", s.handleCSVBundle)

	if s.opts.MetricsEnabled {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// Handler returns the router wrapped with response compression.
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.router)
}

// requestIDKey is the gin context key holding the request ID.
const requestIDKey = "request_id"

// requestID propagates X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = core.NewRequestID().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
