package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter implements PDF export using gofpdf
type PDFExporter struct {
	pageSize string
}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{pageSize: "A4"}
}

// Export draws the table with equal column widths, repeating the header on each page.
func (p *PDFExporter) Export(data *ExportData, writer io.Writer) error {
	if len(data.Headers) == 0 {
		return fmt.Errorf("no headers provided")
	}

	orientation := "P"
	if data.Style.Landscape {
		orientation = "L"
	}
	fontSize := data.Style.FontSize
	if fontSize == 0 {
		fontSize = 8
	}

	pdf := gofpdf.New(orientation, "mm", p.pageSize, "")
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 10, data.Title)
		pdf.Ln(10)
	}
	if !data.CreatedAt.IsZero() {
		pdf.SetFont("Arial", "I", 7)
		pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", data.CreatedAt.Format("2006-01-02 15:04:05")))
		pdf.Ln(7)
	}

	pageWidth, pageHeight := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(data.Headers))
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	drawHeader := func() {
		pdf.SetFont("Arial", "B", fontSize)
		r, g, b := hexToRGB(data.Style.HeaderBgColor)
		pdf.SetFillColor(r, g, b)
		pdf.SetTextColor(255, 255, 255)
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", fontSize)
	}

	drawHeader()
	for i, row := range data.Rows {
		if pdf.GetY()+6 > pageHeight-bottom {
			pdf.AddPage()
			drawHeader()
		}

		fill := data.Style.AlternateRows && i%2 == 1
		if fill {
			r, g, b := hexToRGB(data.Style.RowBgColor)
			pdf.SetFillColor(r, g, b)
		}
		for col := range data.Headers {
			var text string
			if col < len(row) {
				text = truncate(formatCell(row[col]), colWidth, pdf.GetStringWidth)
			}
			pdf.CellFormat(colWidth, 6, tr(text), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(writer); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// GetContentType returns the MIME type for PDF files
func (p *PDFExporter) GetContentType() string {
	return "application/pdf"
}

// GetFileExtension returns the file extension for PDF files
func (p *PDFExporter) GetFileExtension() string {
	return ".pdf"
}

// truncate shortens s until it fits in width, adding "..".
func truncate(s string, width float64, measure func(string) float64) string {
	limit := width - 2
	if measure(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && measure(string(r)+"..") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + ".."
}

// hexToRGB converts hex color to RGB values
func hexToRGB(hex string) (int, int, int) {
	hex = stripHash(hex)
	if len(hex) != 6 {
		return 255, 255, 255
	}

	var r, g, b int
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return r, g, b
}
