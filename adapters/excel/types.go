package excel

// ExcelData represents a decoded table before type coercion
type ExcelData struct {
	Headers []string   // Column headers, blank ones named column_N and duplicates suffixed
	Rows    [][]string // Data rows, padded or truncated to len(Headers)
	Format  FileType
}

// FileType is the detected upload format
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)
