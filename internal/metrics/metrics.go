package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"autosense/domain/chart"
)

// Cache lookup results used as label values.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autosense_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	ChartsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autosense_charts_generated_total",
			Help: "Charts returned to clients, by chart type",
		},
		[]string{"type"},
	)

	RecipesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autosense_recipes_skipped_total",
			Help: "Chart recipes that declined to produce a chart",
		},
		[]string{"recipe"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autosense_cache_lookups_total",
			Help: "Analysis cache lookups by cache layer and result",
		},
		[]string{"cache", "result"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autosense_analysis_duration_seconds",
			Help:    "Time spent running the analysis core for one request",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Recorder satisfies the observer hooks of the analysis service and the
// composition engine. The zero value is ready to use.
type Recorder struct{}

// RecipeSkipped counts a recipe that produced no chart.
func (Recorder) RecipeSkipped(recipe string) {
	RecipesSkipped.WithLabelValues(recipe).Inc()
}

// ChartsComposed counts returned charts by type.
func (Recorder) ChartsComposed(specs []chart.Spec) {
	for _, s := range specs {
		ChartsGenerated.WithLabelValues(string(s.Type)).Inc()
	}
}

// CacheLookup records a hit or miss on one cache layer.
func (Recorder) CacheLookup(cache string, hit bool) {
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

// AnalysisFinished observes how long the core took.
func (Recorder) AnalysisFinished(d time.Duration) {
	AnalysisDuration.Observe(d.Seconds())
}

// Middleware returns a gin middleware that counts requests per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
