package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"autosense/app"
	"autosense/domain/chart"
	"autosense/domain/core"
	"autosense/internal/errors"
	"autosense/internal/export"
)

// defaultRefinementQuery stands in when /recommendations gets no prompt.
const defaultRefinementQuery = "general analysis"

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "AutoSense Analytics Backend",
		"version": Version,
		"endpoints": gin.H{
			"analyze":          "POST /analyze - upload a file and analyze it with an optional prompt",
			"analyze_prompt":   "POST /analyze/prompt - re-analyze an uploaded dataset",
			"data_quality":     "POST /data-quality - data quality assessment",
			"correlations":     "POST /correlations - relationship analysis",
			"recommendations":  "POST /recommendations - business recommendations",
			"query_refinement": "POST /query-refinement - query interpretation against the schema",
			"intent":           "POST /intent - classify a query",
			"csv_bundle":       "POST /export/csv-bundle - chart data as zipped CSV",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	upload, ok := s.readUpload(c)
	if !ok {
		return
	}
	result, err := s.service.Analyze(c.Request.Context(), upload, c.PostForm("prompt"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAnalyzePrompt(c *gin.Context) {
	id, err := core.ParseDatasetHash(c.PostForm("dataset_id"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	result, err := s.service.AnalyzeDataset(c.Request.Context(), id, c.PostForm("prompt"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleDataQuality(c *gin.Context) {
	upload, ok := s.readUpload(c)
	if !ok {
		return
	}
	report, err := s.service.Quality(c.Request.Context(), upload)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":             "success",
		"file_name":          upload.Filename,
		"quality_assessment": report,
		"timestamp":          time.Now().UTC(),
	})
}

func (s *Server) handleCorrelations(c *gin.Context) {
	threshold := -1.0
	if raw := c.PostForm("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			s.respondError(c, errors.InvalidInput(fmt.Sprintf("invalid threshold %q", raw)))
			return
		}
		threshold = v
	}

	upload, ok := s.readUpload(c)
	if !ok {
		return
	}
	pairs, err := s.service.Correlations(c.Request.Context(), upload, threshold)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "success",
		"file_name":         upload.Filename,
		"correlations":      pairs,
		"correlation_count": len(pairs),
		"timestamp":         time.Now().UTC(),
	})
}

func (s *Server) handleRecommendations(c *gin.Context) {
	upload, ok := s.readUpload(c)
	if !ok {
		return
	}
	prompt := c.PostForm("prompt")
	ctx := c.Request.Context()

	recs, err := s.service.Recommendations(ctx, upload, prompt)
	if err != nil {
		s.respondError(c, err)
		return
	}
	query := prompt
	if strings.TrimSpace(query) == "" {
		query = defaultRefinementQuery
	}
	refinement, err := s.service.RefineQuery(ctx, upload, query)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           "success",
		"file_name":        upload.Filename,
		"recommendations":  recs.Items,
		"query_refinement": refinement,
		"confidence_score": recs.Confidence,
		"timestamp":        time.Now().UTC(),
	})
}

func (s *Server) handleQueryRefinement(c *gin.Context) {
	query := c.PostForm("query")
	if strings.TrimSpace(query) == "" {
		s.respondError(c, errors.InvalidInput("query is required"))
		return
	}
	upload, ok := s.readUpload(c)
	if !ok {
		return
	}
	refinement, err := s.service.RefineQuery(c.Request.Context(), upload, query)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"original_query":  query,
		"refinement":      refinement,
		"interpretations": refinement.Suggestions,
		"confidence":      refinement.Confidence,
		"timestamp":       time.Now().UTC(),
	})
}

type intentRequest struct {
	Query string `json:"query" binding:"required"`
}

func (s *Server) handleIntent(c *gin.Context) {
	var req intentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.ValidationError("request body must be {\"query\": \"...\"}"))
		return
	}
	c.JSON(http.StatusOK, s.service.ClassifyQuery(req.Query))
}

func (s *Server) handleCSVBundle(c *gin.Context) {
	var charts []chart.Spec
	if err := c.ShouldBindJSON(&charts); err != nil {
		s.respondError(c, errors.ValidationError("request body must be a JSON list of charts"))
		return
	}
	bundle, err := export.CSVBundle(charts)
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to build CSV bundle"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="charts.zip"`)
	c.Data(http.StatusOK, export.BundleContentType, bundle)
}

// readUpload reads the multipart "file" field, writing an error response
// when it is absent or too large.
func (s *Server) readUpload(c *gin.Context) (app.Upload, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, errors.InvalidInput("multipart field \"file\" is required"))
		return app.Upload{}, false
	}
	limit := int64(s.opts.MaxUploadMB) << 20
	if header.Size > limit {
		s.respondError(c, errors.InvalidInput(fmt.Sprintf("file size (%.1f MB) exceeds the %dMB limit", float64(header.Size)/(1<<20), s.opts.MaxUploadMB)))
		return app.Upload{}, false
	}

	f, err := header.Open()
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to open upload"))
		return app.Upload{}, false
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to read upload"))
		return app.Upload{}, false
	}
	return app.Upload{Filename: header.Filename, Content: content}, true
}
