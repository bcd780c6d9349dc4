package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter writes a header line followed by one line per row.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Export(data *ExportData, writer io.Writer) error {
	w := csv.NewWriter(writer)

	if err := w.Write(data.Headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(data.Headers))
	for _, row := range data.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatCell(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func (e *CSVExporter) GetContentType() string {
	return "text/csv"
}

func (e *CSVExporter) GetFileExtension() string {
	return ".csv"
}
