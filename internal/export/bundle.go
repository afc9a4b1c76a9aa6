// Package export writes chart data in formats BI tools can ingest.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/klauspost/compress/zip"

	"autosense/domain/chart"
)

// BundleContentType is the media type of CSVBundle output.
const BundleContentType = "application/zip"

// CSVBundle zips one label,value CSV per exportable chart. Files are named
// chart_N.csv where N is the chart's 1-based position in charts, so skipped
// charts leave gaps in the numbering.
func CSVBundle(charts []chart.Spec) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, spec := range charts {
		rows, ok := tableRows(spec)
		if !ok {
			continue
		}
		w, err := zw.Create(fmt.Sprintf("chart_%d.csv", i+1))
		if err != nil {
			return nil, fmt.Errorf("failed to add chart %d: %w", i+1, err)
		}
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"label", "value"}); err != nil {
			return nil, err
		}
		if err := cw.WriteAll(rows); err != nil {
			return nil, fmt.Errorf("failed to write chart %d: %w", i+1, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// tableRows flattens the first series of a line, bar or histogram chart, or
// the slices of a pie.
func tableRows(spec chart.Spec) ([][]string, bool) {
	p := spec.Payload
	switch spec.Type {
	case chart.Line, chart.Bar, chart.Histogram:
		if len(p.Series) == 0 || len(p.Labels) == 0 {
			return nil, false
		}
		values := p.Series[0].Values
		n := min(len(p.Labels), len(values))
		rows := make([][]string, n)
		for i := 0; i < n; i++ {
			rows[i] = []string{p.Labels[i], formatValue(values[i])}
		}
		return rows, true
	case chart.Pie:
		if len(p.Slices) == 0 {
			return nil, false
		}
		rows := make([][]string, len(p.Slices))
		for i, s := range p.Slices {
			rows[i] = []string{s.Name, formatValue(s.Value)}
		}
		return rows, true
	}
	return nil, false
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
