package dataset

import (
	"math"
	"strings"
	"time"

	"autosense/domain/core"
)

// PrimitiveType is the storage type inferred for a column during ingestion
type PrimitiveType string

const (
	PrimitiveNumeric  PrimitiveType = "numeric"
	PrimitiveDatetime PrimitiveType = "datetime"
	PrimitiveBoolean  PrimitiveType = "boolean"
	PrimitiveText     PrimitiveType = "text"
)

// Column holds one coerced column of a Frame.
//
// Raw always carries the trimmed cell text ("" when missing). Numbers is
// populated for numeric columns with NaN marking missing cells, Times for
// datetime columns with the zero time marking missing cells.
type Column struct {
	Name    string        `json:"name"`
	Type    PrimitiveType `json:"type"`
	Raw     []string      `json:"-"`
	Numbers []float64     `json:"-"`
	Times   []time.Time   `json:"-"`
	Missing []bool        `json:"-"`
}

// Len returns the number of cells.
func (c *Column) Len() int {
	return len(c.Missing)
}

// IsNumeric reports whether the column holds numbers.
func (c *Column) IsNumeric() bool {
	return c.Type == PrimitiveNumeric
}

// IsDatetime reports whether the column holds timestamps.
func (c *Column) IsDatetime() bool {
	return c.Type == PrimitiveDatetime
}

// MissingCount counts missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// Value returns the numeric value at row i and whether it is present.
func (c *Column) Value(i int) (float64, bool) {
	if !c.IsNumeric() || c.Missing[i] {
		return math.NaN(), false
	}
	return c.Numbers[i], true
}

// Time returns the timestamp at row i and whether it is present.
func (c *Column) Time(i int) (time.Time, bool) {
	if !c.IsDatetime() || c.Missing[i] {
		return time.Time{}, false
	}
	return c.Times[i], true
}

// Label returns the grouping key for row i.
func (c *Column) Label(i int) (string, bool) {
	if c.Missing[i] {
		return "", false
	}
	return c.Raw[i], true
}

// Floats returns the non-missing numeric values in row order.
func (c *Column) Floats() []float64 {
	if !c.IsNumeric() {
		return nil
	}
	out := make([]float64, 0, len(c.Numbers))
	for i, v := range c.Numbers {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// Distinct counts distinct non-missing labels.
func (c *Column) Distinct() int {
	seen := make(map[string]struct{})
	for i, raw := range c.Raw {
		if !c.Missing[i] {
			seen[raw] = struct{}{}
		}
	}
	return len(seen)
}

// subset copies the rows named by idx into a new column.
func (c *Column) subset(idx []int) *Column {
	out := &Column{Name: c.Name, Type: c.Type}
	out.Raw = make([]string, len(idx))
	out.Missing = make([]bool, len(idx))
	if c.Numbers != nil {
		out.Numbers = make([]float64, len(idx))
	}
	if c.Times != nil {
		out.Times = make([]time.Time, len(idx))
	}
	for j, i := range idx {
		out.Raw[j] = c.Raw[i]
		out.Missing[j] = c.Missing[i]
		if c.Numbers != nil {
			out.Numbers[j] = c.Numbers[i]
		}
		if c.Times != nil {
			out.Times[j] = c.Times[i]
		}
	}
	return out
}

// Frame is an in-memory tabular dataset with ordered, uniquely named columns.
type Frame struct {
	ID      core.DatasetHash `json:"id"`
	Name    string           `json:"name"`
	Columns []*Column        `json:"columns"`

	index map[string]int
	rows  int
}

// NewFrame assembles a frame from equally long columns. Duplicate column
// names keep their first occurrence.
func NewFrame(name string, columns []*Column) *Frame {
	f := &Frame{Name: name, index: make(map[string]int, len(columns))}
	for _, col := range columns {
		if _, dup := f.index[col.Name]; dup {
			continue
		}
		f.index[col.Name] = len(f.Columns)
		f.Columns = append(f.Columns, col)
	}
	if len(f.Columns) > 0 {
		f.rows = f.Columns[0].Len()
	}
	return f
}

// RowCount returns the number of rows.
func (f *Frame) RowCount() int {
	return f.rows
}

// ColumnCount returns the number of columns.
func (f *Frame) ColumnCount() int {
	return len(f.Columns)
}

// IsEmpty reports whether the frame has no rows or no columns.
func (f *Frame) IsEmpty() bool {
	return f == nil || f.rows == 0 || len(f.Columns) == 0
}

// Column looks a column up by exact name.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.Columns[i], true
}

// Names returns column names in schema order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		names[i] = col.Name
	}
	return names
}

// RowKey joins the raw cells of a row, used for duplicate detection.
func (f *Frame) RowKey(i int) string {
	var b strings.Builder
	for j, col := range f.Columns {
		if j > 0 {
			b.WriteByte('\x1f')
		}
		if col.Missing[i] {
			b.WriteString("\x00")
			continue
		}
		b.WriteString(col.Raw[i])
	}
	return b.String()
}

// DropEmptyRows removes rows in which every cell is missing.
func (f *Frame) DropEmptyRows() *Frame {
	keep := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		for _, col := range f.Columns {
			if !col.Missing[i] {
				keep = append(keep, i)
				break
			}
		}
	}
	if len(keep) == f.rows {
		return f
	}
	return f.selectRows(keep)
}

// Sample returns at most max rows picked with a fixed stride so that
// repeated calls over the same frame select the same rows.
func (f *Frame) Sample(max int) *Frame {
	if max <= 0 || f.rows <= max {
		return f
	}
	keep := make([]int, max)
	step := float64(f.rows) / float64(max)
	for i := range keep {
		keep[i] = int(float64(i) * step)
	}
	return f.selectRows(keep)
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n >= f.rows {
		return f
	}
	keep := make([]int, n)
	for i := range keep {
		keep[i] = i
	}
	return f.selectRows(keep)
}

func (f *Frame) selectRows(idx []int) *Frame {
	cols := make([]*Column, len(f.Columns))
	for i, col := range f.Columns {
		cols[i] = col.subset(idx)
	}
	out := NewFrame(f.Name, cols)
	out.ID = f.ID
	out.rows = len(idx)
	return out
}
