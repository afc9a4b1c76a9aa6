package coercer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"autosense/domain/dataset"
)

// TypeCoercer handles deterministic type inference and coercion of raw cells
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold   float64 `json:"numeric_threshold"`   // share of non-missing values that must parse as numbers
	BooleanThreshold   float64 `json:"boolean_threshold"`   // share of non-missing values that must parse as booleans
	TimestampThreshold float64 `json:"timestamp_threshold"` // share of sampled non-missing values that must parse as timestamps
	TimestampSample    int     `json:"timestamp_sample"`    // leading rows inspected for timestamp detection
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:   1.0,
		BooleanThreshold:   1.0,
		TimestampThreshold: 0.7,
		TimestampSample:    2000,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	if config.TimestampSample <= 0 {
		config.TimestampSample = DefaultCoercionConfig().TimestampSample
	}
	return &TypeCoercer{config: config}
}

var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
	"-":    true,
}

var thousandsPattern = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

// IsMissing reports whether a cell counts as missing.
func IsMissing(raw string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(raw))]
}

// CoerceColumn infers the column type and converts every cell.
func (c *TypeCoercer) CoerceColumn(name string, raw []string) *dataset.Column {
	col := &dataset.Column{
		Name:    name,
		Raw:     make([]string, len(raw)),
		Missing: make([]bool, len(raw)),
	}
	for i, v := range raw {
		v = strings.TrimSpace(v)
		if IsMissing(v) {
			col.Missing[i] = true
			continue
		}
		col.Raw[i] = v
	}

	analysis := c.AnalyzeTypeDistribution(col.Raw, col.Missing)
	col.Type = analysis.RecommendedType

	switch col.Type {
	case dataset.PrimitiveNumeric:
		col.Numbers = make([]float64, len(raw))
		for i := range col.Raw {
			if col.Missing[i] {
				col.Numbers[i] = math.NaN()
				continue
			}
			v, ok := ParseNumeric(col.Raw[i])
			if !ok {
				col.Missing[i] = true
				col.Numbers[i] = math.NaN()
				continue
			}
			col.Numbers[i] = v
		}
	case dataset.PrimitiveDatetime:
		col.Times = make([]time.Time, len(raw))
		for i := range col.Raw {
			if col.Missing[i] {
				continue
			}
			t, ok := ParseTimestamp(col.Raw[i])
			if !ok {
				// unparseable timestamps become missing, the raw text is kept
				col.Missing[i] = true
				continue
			}
			col.Times[i] = t
		}
	}
	return col
}

// AnalyzeTypeDistribution counts how many non-missing values parse as each type
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string, missing []bool) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(values)}

	sampled := 0
	for i, v := range values {
		if missing[i] {
			continue
		}
		analysis.ValidCount++
		if _, ok := ParseNumeric(v); ok {
			analysis.NumericCount++
		}
		if _, ok := ParseBoolean(v); ok {
			analysis.BooleanCount++
		}
		if i < c.config.TimestampSample {
			sampled++
			if _, ok := ParseTimestamp(v); ok {
				analysis.TimestampCount++
			}
		}
	}

	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
		analysis.BooleanRatio = float64(analysis.BooleanCount) / float64(analysis.ValidCount)
	}
	if sampled > 0 {
		analysis.TimestampRatio = float64(analysis.TimestampCount) / float64(sampled)
	}

	analysis.RecommendedType = c.determineRecommendedType(analysis)
	return analysis
}

// determineRecommendedType chooses the best type based on analysis
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) dataset.PrimitiveType {
	if analysis.ValidCount == 0 {
		return dataset.PrimitiveText
	}
	if analysis.NumericRatio >= c.config.NumericThreshold {
		return dataset.PrimitiveNumeric
	}
	if analysis.TimestampRatio >= c.config.TimestampThreshold {
		return dataset.PrimitiveDatetime
	}
	if analysis.BooleanRatio >= c.config.BooleanThreshold {
		return dataset.PrimitiveBoolean
	}
	return dataset.PrimitiveText
}

// ParseNumeric parses a number. Handles parentheses for negatives, currency
// symbols, percent signs and both US and European separators.
func ParseNumeric(strVal string) (float64, bool) {
	cleanVal := strings.TrimSpace(strVal)
	if cleanVal == "" {
		return 0, false
	}

	// (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(strings.TrimSuffix(cleanVal, "%"))
	if cleanVal == "" {
		return 0, false
	}

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case thousandsPattern.MatchString(cleanVal):
		// 1,234,567.89
		cleanVal = strings.ReplaceAll(cleanVal, ",", "")
	case hasComma && (hasPeriod || hasSpace):
		// 1.234,56 or 1 234,56
		cleanVal = strings.ReplaceAll(cleanVal, ".", "")
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
		cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
	case hasComma:
		// 12,5
		cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// ParseBoolean parses common boolean spellings
func ParseBoolean(strVal string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(strVal)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	}
	return false, false
}

var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2006",
	"January 2006",
	"2006-01",
}

// ParseTimestamp attempts to parse as timestamp with multiple formats
func ParseTimestamp(strVal string) (time.Time, bool) {
	strVal = strings.TrimSpace(strVal)
	if strVal == "" {
		return time.Time{}, false
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, strVal); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int                   `json:"total_count"`
	ValidCount      int                   `json:"valid_count"`
	NumericCount    int                   `json:"numeric_count"`
	BooleanCount    int                   `json:"boolean_count"`
	TimestampCount  int                   `json:"timestamp_count"`
	NumericRatio    float64               `json:"numeric_ratio"`
	BooleanRatio    float64               `json:"boolean_ratio"`
	TimestampRatio  float64               `json:"timestamp_ratio"`
	RecommendedType dataset.PrimitiveType `json:"recommended_type"`
}
