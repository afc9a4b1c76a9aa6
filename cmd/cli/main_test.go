package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosense/domain/analysis"
	"autosense/domain/intent"
	"autosense/internal/testkit"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("EMBEDDING_PROVIDER", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeCommand(t *testing.T) {
	path := writeFixture(t, "sales.csv", testkit.RegionRevenueCSV)

	out, err := run(t, "analyze", path, "--query", "top 5 by revenue")
	require.NoError(t, err)

	var result analysis.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Charts, 1)
	assert.Equal(t, "revenue", result.Binding.Measure)
}

func TestIntentCommand(t *testing.T) {
	out, err := run(t, "intent", "show revenue over time")
	require.NoError(t, err)

	var in intent.Intent
	require.NoError(t, json.Unmarshal([]byte(out), &in))
	assert.Equal(t, "show revenue over time", in.Query)
	assert.True(t, in.Has(intent.Timeseries))
}

func TestQualityAndCorrelationsCommands(t *testing.T) {
	out, err := run(t, "quality", writeFixture(t, "sales.csv", testkit.RegionRevenueCSV))
	require.NoError(t, err)
	var report analysis.QualityReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 100, report.Score)

	out, err = run(t, "correlations", writeFixture(t, "ms.csv", testkit.MarketingSalesCSV), "--threshold", "0.5")
	require.NoError(t, err)
	var pairs []analysis.CorrelationPair
	require.NoError(t, json.Unmarshal([]byte(out), &pairs))
	assert.Len(t, pairs, 1)
}

func TestCommandErrors(t *testing.T) {
	_, err := run(t, "analyze", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = run(t, "prune")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
