package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosense/adapters/memory"
	"autosense/app"
	"autosense/domain/analysis"
	"autosense/domain/intent"
	"autosense/internal/errors"
	"autosense/internal/testkit"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, err := app.NewAnalysisService(app.Dependencies{
		Datasets: memory.NewDatasetStore(4, 0),
		Cache:    memory.NewAnalysisCache(4, time.Hour),
	}, app.DefaultSettings())
	require.NoError(t, err)
	return NewServer(svc, Options{MaxUploadMB: 1, MetricsEnabled: true})
}

func multipartRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), Version)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyzeThenPrompt(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/analyze", "sales.csv", testkit.RegionRevenueCSV, map[string]string{"prompt": "top 5 by revenue"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result analysis.Result
	decodeJSON(t, rec, &result)
	assert.False(t, result.Cached)
	require.Len(t, result.Charts, 1)
	assert.Equal(t, "Top 5 region", result.Charts[0].Title)

	rec = serve(s, multipartRequest(t, "/analyze/prompt", "", "", map[string]string{
		"dataset_id": result.DatasetID.String(),
		"prompt":     "top 5 by revenue",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var again analysis.Result
	decodeJSON(t, rec, &again)
	assert.True(t, again.Cached)
}

func TestAnalyzePromptUnknownDataset(t *testing.T) {
	s := newTestServer(t)
	req := multipartRequest(t, "/analyze/prompt", "", "", map[string]string{
		"dataset_id": strings.Repeat("a", 64),
	})
	req.Header.Set("X-Request-ID", "req-1")

	rec := serve(s, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	decodeJSON(t, rec, &body)
	assert.Equal(t, errors.CodeNotFound, body["code"])
	assert.Contains(t, body["error"], "re-upload")
	assert.Equal(t, "req-1", body["request_id"])

	rec = serve(s, multipartRequest(t, "/analyze/prompt", "", "", map[string]string{"dataset_id": "short"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeErrors(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/analyze", "", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, multipartRequest(t, "/analyze", "report.pdf", "x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeUnsupportedFormat)

	rec = serve(s, multipartRequest(t, "/analyze", "empty.csv", "a,b\n", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeEmptyDataset)

	rec = serve(s, multipartRequest(t, "/analyze", "big.csv", strings.Repeat("x", 2<<20), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds")
}

func TestQualityCorrelationsAndRecommendations(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/data-quality", "sales.csv", testkit.RegionRevenueCSV, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var quality struct {
		Status  string                 `json:"status"`
		Quality analysis.QualityReport `json:"quality_assessment"`
	}
	decodeJSON(t, rec, &quality)
	assert.Equal(t, "success", quality.Status)
	assert.Equal(t, 100, quality.Quality.Score)

	rec = serve(s, multipartRequest(t, "/correlations", "ms.csv", testkit.MarketingSalesCSV, map[string]string{"threshold": "0.9"}))
	require.Equal(t, http.StatusOK, rec.Code)
	var corr struct {
		Count int `json:"correlation_count"`
	}
	decodeJSON(t, rec, &corr)
	assert.Equal(t, 1, corr.Count)

	rec = serve(s, multipartRequest(t, "/correlations", "ms.csv", testkit.MarketingSalesCSV, map[string]string{"threshold": "abc"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, multipartRequest(t, "/recommendations", "sales.csv", testkit.RegionRevenueCSV, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var recs struct {
		Items      []string            `json:"recommendations"`
		Refinement analysis.Refinement `json:"query_refinement"`
		Confidence float64             `json:"confidence_score"`
	}
	decodeJSON(t, rec, &recs)
	assert.NotEmpty(t, recs.Items)
	assert.Equal(t, "general analysis", recs.Refinement.OriginalQuery)
	assert.Equal(t, 0.9, recs.Confidence)
}

func TestQueryRefinement(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/query-refinement", "sales.csv", testkit.RegionRevenueCSV, map[string]string{"query": "top revenue"}))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Interpretations []string `json:"interpretations"`
	}
	decodeJSON(t, rec, &body)
	assert.Equal(t, []string{"Show top performers by revenue across region"}, body.Interpretations)

	rec = serve(s, multipartRequest(t, "/query-refinement", "sales.csv", testkit.RegionRevenueCSV, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIntentEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/intent", strings.NewReader(`{"query":"top 5 by revenue"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var in intent.Intent
	decodeJSON(t, rec, &in)
	assert.True(t, in.IsSingleChart)
	assert.Equal(t, 5, in.TopN)

	req = httptest.NewRequest(http.MethodPost, "/intent", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	decodeJSON(t, rec, &body)
	assert.Equal(t, errors.CodeValidationError, body["code"])
}

func TestCSVBundleEndpoint(t *testing.T) {
	s := newTestServer(t)
	charts := `[{"type":"bar","title":"t","recipe":"category_bar","priority_rank":0,
		"payload":{"labels":["a","b"],"series":[{"name":"v","values":[1,2]}]}}]`

	req := httptest.NewRequest(http.MethodPost, "/export/csv-bundle", strings.NewReader(charts))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "chart_1.csv", zr.File[0].Name)
}

func TestHandlerCompressesResponses(t *testing.T) {
	s := newTestServer(t)
	req := multipartRequest(t, "/analyze", "sales.csv", testkit.RegionRevenueCSV, nil)
	req.Header.Set("Accept-Encoding", "gzip")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.CodeEmptyDataset))
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.CodeValidationError))
	assert.Equal(t, http.StatusNotFound, statusFor(errors.CodeNotFound))
	assert.Equal(t, http.StatusBadGateway, statusFor(errors.CodeExternalService))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.CodeDatabaseError))
	assert.Equal(t, http.StatusInternalServerError, statusFor("UNKNOWN"))
}

func TestRespondErrorCodesPlainErrorsAsInternal(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	s.respondError(c, fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	decodeJSON(t, rec, &body)
	assert.Equal(t, errors.CodeInternalError, body["code"])
	assert.Equal(t, "boom", body["error"])
}
