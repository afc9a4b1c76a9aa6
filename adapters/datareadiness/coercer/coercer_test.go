package coercer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosense/domain/dataset"
)

func TestParseNumeric(t *testing.T) {
	cases := map[string]float64{
		"42":        42,
		"-3.5":      -3.5,
		"$1,234.50": 1234.5,
		"1,234,567": 1234567,
		"(250)":     -250,
		"12%":       12,
		"1.234,56":  1234.56,
		"12,5":      12.5,
		"1e3":       1000,
		" 7 ":       7,
		"€ 99":      99,
	}
	for in, want := range cases {
		got, ok := ParseNumeric(in)
		require.True(t, ok, "expected %q to parse", in)
		assert.InDelta(t, want, got, 1e-9, "input %q", in)
	}

	for _, in := range []string{"", "abc", "2024-01-05", "12a", "$"} {
		_, ok := ParseNumeric(in)
		assert.False(t, ok, "expected %q not to parse", in)
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, in := range []string{"2024-01-05", "2024-01-05 10:30:00", "01/05/2024", "2024-03", "Mar 2024"} {
		_, ok := ParseTimestamp(in)
		assert.True(t, ok, "expected %q to parse as timestamp", in)
	}
	_, ok := ParseTimestamp("North")
	assert.False(t, ok)
}

func TestIsMissing(t *testing.T) {
	for _, in := range []string{"", " ", "NA", "n/a", "NaN", "null", "None", "-"} {
		assert.True(t, IsMissing(in), "expected %q to be missing", in)
	}
	assert.False(t, IsMissing("0"))
	assert.False(t, IsMissing("none of the above"))
}

func TestCoerceColumnNumeric(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	col := c.CoerceColumn("revenue", []string{"100", "", "250.5", "n/a", "1,000"})

	assert.Equal(t, dataset.PrimitiveNumeric, col.Type)
	assert.Equal(t, 2, col.MissingCount())
	assert.Equal(t, 100.0, col.Numbers[0])
	assert.True(t, math.IsNaN(col.Numbers[1]))
	assert.Equal(t, 1000.0, col.Numbers[4])
	assert.Equal(t, []float64{100, 250.5, 1000}, col.Floats())
}

func TestCoerceColumnMixedFallsBackToText(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	col := c.CoerceColumn("code", []string{"1", "2", "x3"})
	assert.Equal(t, dataset.PrimitiveText, col.Type)
	assert.Nil(t, col.Numbers)
}

func TestCoerceColumnDatetimeThreshold(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	dates := c.CoerceColumn("day", []string{"2024-01-01", "2024-01-02", "2024-01-03", "oops"})
	assert.Equal(t, dataset.PrimitiveDatetime, dates.Type)
	assert.True(t, dates.Missing[3], "unparseable timestamp should become missing")

	mostlyText := c.CoerceColumn("note", []string{"2024-01-01", "hello", "world", "again"})
	assert.Equal(t, dataset.PrimitiveText, mostlyText.Type)
}

func TestCoerceColumnBoolean(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	col := c.CoerceColumn("active", []string{"yes", "no", "Yes", ""})
	assert.Equal(t, dataset.PrimitiveBoolean, col.Type)
	assert.Equal(t, 3, col.Distinct(), "yes and Yes are distinct raw labels")
}

func TestCoerceColumnAllMissing(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	col := c.CoerceColumn("empty", []string{"", "NA"})
	assert.Equal(t, dataset.PrimitiveText, col.Type)
	assert.Equal(t, 2, col.MissingCount())
}
