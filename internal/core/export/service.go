package export

import (
	"bytes"
	"fmt"
)

// Service picks the exporter for a format.
type Service struct {
	exporters map[ExportFormat]Exporter
}

// NewService creates a new export service
func NewService() *Service {
	return &Service{
		exporters: map[ExportFormat]Exporter{
			FormatCSV:   NewCSVExporter(),
			FormatExcel: NewExcelExporter(),
			FormatPDF:   NewPDFExporter(),
		},
	}
}

// Result is a rendered export.
type Result struct {
	Data        []byte
	ContentType string
	Extension   string
}

// Export renders data in the given format.
func (s *Service) Export(data *ExportData, format ExportFormat) (*Result, error) {
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}

	var buf bytes.Buffer
	if err := exporter.Export(data, &buf); err != nil {
		return nil, fmt.Errorf("%s export failed: %w", format, err)
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: exporter.GetContentType(),
		Extension:   exporter.GetFileExtension(),
	}, nil
}
