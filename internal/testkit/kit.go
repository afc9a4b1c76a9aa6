package testkit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"autosense/adapters/datareadiness/coercer"
	"autosense/adapters/excel"
	"autosense/domain/dataset"
	"autosense/internal/profiling"
)

// FrameFromCSV decodes an inline CSV fixture, failing the test on error.
func FrameFromCSV(t testing.TB, content string) *dataset.Frame {
	t.Helper()
	frame, err := excel.Decode("fixture.csv", []byte(strings.TrimLeft(content, "\n")), coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()))
	require.NoError(t, err)
	return frame
}

// Profile runs the default profiler over a frame.
func Profile(frame *dataset.Frame) dataset.Profiles {
	return profiling.NewDataProfiler(profiling.DefaultProfilerConfig()).ProfileDataset(frame)
}

// SalesFrame decodes the default synthetic sales table.
func SalesFrame(t testing.TB) (*dataset.Frame, dataset.Profiles) {
	t.Helper()
	frame := FrameFromCSV(t, string(NewSalesDataGenerator(DefaultSalesConfig()).GenerateCSV()))
	return frame, Profile(frame)
}

// RegionRevenueCSV is a small table with one categorical and one numeric column.
const RegionRevenueCSV = `region,revenue
North,120
South,340
East,90
West,410
North,80
South,150
East,60
West,220
`

// MarketingSalesCSV has two numeric columns and no category.
const MarketingSalesCSV = `marketing,sales
10,100
20,180
30,310
40,390
50,520
60,610
`
