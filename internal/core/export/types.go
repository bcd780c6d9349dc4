package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "xlsx"
	FormatPDF   ExportFormat = "pdf"
)

// ParseFormat accepts csv, xlsx (or excel) and pdf.
func ParseFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

// Exporter is the interface for all export formats
type Exporter interface {
	Export(data *ExportData, writer io.Writer) error
	GetContentType() string
	GetFileExtension() string
}

// ExportData is a titled table.
type ExportData struct {
	Title     string
	CreatedAt time.Time
	Headers   []string
	Rows      [][]interface{}
	Style     ExportStyle
}

// ExportStyle defines styling options for exports
type ExportStyle struct {
	Landscape     bool
	HeaderBgColor string // Hex color
	AlternateRows bool
	RowBgColor    string // Hex color for even rows
	FontSize      float64
	FreezeHeader  bool
	AutoFilter    bool
}

// DefaultStyle returns default export styling
func DefaultStyle() ExportStyle {
	return ExportStyle{
		Landscape:     true,
		HeaderBgColor: "#4472C4",
		AlternateRows: true,
		RowBgColor:    "#F2F2F2",
		FontSize:      8,
		FreezeHeader:  true,
		AutoFilter:    true,
	}
}

// formatCell renders a value for text formats. Floats get two decimals.
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', 2, 64)
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
