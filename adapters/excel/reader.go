package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"autosense/adapters/datareadiness/coercer"
	"autosense/domain/core"
	"autosense/domain/dataset"
	"autosense/internal"
)

// DataReader decodes uploaded CSV and Excel content held in memory
type DataReader struct {
	filename string
	content  []byte
	fileType FileType
	logger   *internal.Logger
}

// DetectFileType maps a filename extension onto a supported format.
func DetectFileType(filename string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FileTypeCSV, nil
	case ".xlsx", ".xlsm", ".xls":
		return FileTypeXLSX, nil
	default:
		return "", core.NewUnsupportedFormatError(filename)
	}
}

// NewDataReader creates a reader for one uploaded file
func NewDataReader(filename string, content []byte) (*DataReader, error) {
	fileType, err := DetectFileType(filename)
	if err != nil {
		return nil, err
	}
	return &DataReader{
		filename: filename,
		content:  content,
		fileType: fileType,
		logger:   internal.DefaultLogger,
	}, nil
}

// ReadData decodes the file into headers and string rows
func (r *DataReader) ReadData() (*ExcelData, error) {
	if len(bytes.TrimSpace(r.content)) == 0 {
		return nil, fmt.Errorf("%w: %s has no content", core.ErrEmptyDataset, r.filename)
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case FileTypeCSV:
		rows, err = r.readCSVRows()
	case FileTypeXLSX:
		rows, err = r.readExcelRows()
	default:
		return nil, core.NewUnsupportedFormatError(r.filename)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("[DataReader] %s read in %.2fms (%d rows)", r.filename, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s must have a header row and at least one data row", core.ErrEmptyDataset, r.filename)
	}
	return r.processRows(rows), nil
}

// readExcelRows reads the first worksheet
func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(r.content))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrEmptyDataset)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// readCSVRows reads CSV content, tolerating ragged rows and a UTF-8 BOM
func (r *DataReader) readCSVRows() ([][]string, error) {
	content := bytes.TrimPrefix(r.content, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows normalizes headers and aligns every row to the header width
func (r *DataReader) processRows(rows [][]string) *ExcelData {
	headers := normalizeHeaders(rows[0])

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		aligned := make([]string, len(headers))
		for j := range aligned {
			if j < len(row) {
				aligned[j] = strings.TrimSpace(row[j])
			}
		}
		data = append(data, aligned)
	}

	return &ExcelData{Headers: headers, Rows: data, Format: r.fileType}
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		}
		if _, ok := seen[h]; !ok {
			seen[h] = 0
		}
		headers[i] = h
	}
	return headers
}

// ToFrame coerces every column and returns the typed frame
func (d *ExcelData) ToFrame(name string, c *coercer.TypeCoercer) *dataset.Frame {
	columns := make([]*dataset.Column, len(d.Headers))
	for j, header := range d.Headers {
		values := make([]string, len(d.Rows))
		for i, row := range d.Rows {
			values[i] = row[j]
		}
		columns[j] = c.CoerceColumn(header, values)
	}
	return dataset.NewFrame(name, columns)
}

// Decode reads an upload and returns a typed frame with entirely empty rows
// removed. The frame ID is the sha256 of the raw content.
func Decode(filename string, content []byte, c *coercer.TypeCoercer) (*dataset.Frame, error) {
	reader, err := NewDataReader(filename, content)
	if err != nil {
		return nil, err
	}
	data, err := reader.ReadData()
	if err != nil {
		return nil, err
	}

	frame := data.ToFrame(filename, c).DropEmptyRows()
	if frame.IsEmpty() {
		return nil, fmt.Errorf("%w: %s has no non-empty rows", core.ErrEmptyDataset, filename)
	}
	frame.ID = core.NewDatasetHash(content)
	return frame, nil
}
