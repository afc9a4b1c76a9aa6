package profiling

import (
	"autosense/domain/dataset"
)

// ProfilerConfig controls role assignment
type ProfilerConfig struct {
	CategoryMinCardinality int
	CategoryMaxCardinality int
}

// DefaultProfilerConfig returns the standard role thresholds
func DefaultProfilerConfig() ProfilerConfig {
	return ProfilerConfig{
		CategoryMinCardinality: 2,
		CategoryMaxCardinality: 12,
	}
}

// DataProfiler assigns analytic roles and summary statistics to frame columns
type DataProfiler struct {
	config ProfilerConfig
}

// NewDataProfiler creates a new data profiler
func NewDataProfiler(config ProfilerConfig) *DataProfiler {
	if config.CategoryMinCardinality <= 0 {
		config.CategoryMinCardinality = 2
	}
	if config.CategoryMaxCardinality < config.CategoryMinCardinality {
		config.CategoryMaxCardinality = DefaultProfilerConfig().CategoryMaxCardinality
	}
	return &DataProfiler{config: config}
}

// ProfileColumn describes a single column
func (dp *DataProfiler) ProfileColumn(col *dataset.Column) dataset.ColumnProfile {
	profile := dataset.ColumnProfile{
		Name:        col.Name,
		Type:        col.Type,
		Cardinality: col.Distinct(),
	}
	if n := col.Len(); n > 0 {
		profile.MissingRate = float64(col.MissingCount()) / float64(n)
	}

	switch {
	case col.IsNumeric():
		profile.Role = dataset.RoleNumeric
		profile.Variance = Variance(col.Floats())
	case col.IsDatetime():
		profile.Role = dataset.RoleDatetime
	case profile.Cardinality >= dp.config.CategoryMinCardinality &&
		profile.Cardinality <= dp.config.CategoryMaxCardinality:
		profile.Role = dataset.RoleCategorical
	default:
		profile.Role = dataset.RoleUnknown
	}
	return profile
}

// ProfileDataset profiles every column in schema order
func (dp *DataProfiler) ProfileDataset(frame *dataset.Frame) dataset.Profiles {
	profiles := make(dataset.Profiles, 0, frame.ColumnCount())
	for _, col := range frame.Columns {
		profiles = append(profiles, dp.ProfileColumn(col))
	}
	return profiles
}
