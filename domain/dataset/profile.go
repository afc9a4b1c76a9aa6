package dataset

// ColumnRole is the analytic role a column plays in chart composition
type ColumnRole string

const (
	RoleNumeric     ColumnRole = "numeric"
	RoleCategorical ColumnRole = "categorical"
	RoleDatetime    ColumnRole = "datetime"
	RoleUnknown     ColumnRole = "unknown"
)

// ColumnProfile summarizes one column
type ColumnProfile struct {
	Name        string        `json:"name"`
	Role        ColumnRole    `json:"role"`
	Type        PrimitiveType `json:"type"`
	Cardinality int           `json:"cardinality"`
	MissingRate float64       `json:"missing_rate"`
	// Variance is the sample variance of numeric columns, zero otherwise.
	Variance float64 `json:"variance,omitempty"`
}

// Profiles is an ordered schema description, one entry per frame column.
type Profiles []ColumnProfile

// Names returns the names of columns with the given role, in schema order.
func (p Profiles) Names(role ColumnRole) []string {
	var out []string
	for _, cp := range p {
		if cp.Role == role {
			out = append(out, cp.Name)
		}
	}
	return out
}

// ByRole returns the profiles with the given role, in schema order.
func (p Profiles) ByRole(role ColumnRole) Profiles {
	var out Profiles
	for _, cp := range p {
		if cp.Role == role {
			out = append(out, cp)
		}
	}
	return out
}

// Lookup finds a profile by exact column name.
func (p Profiles) Lookup(name string) (ColumnProfile, bool) {
	for _, cp := range p {
		if cp.Name == name {
			return cp, true
		}
	}
	return ColumnProfile{}, false
}

// Count returns the number of columns with the given role.
func (p Profiles) Count(role ColumnRole) int {
	n := 0
	for _, cp := range p {
		if cp.Role == role {
			n++
		}
	}
	return n
}
