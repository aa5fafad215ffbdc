package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders documents as CSV. Section titles and footers are emitted
// as single-cell rows so the file stays importable into spreadsheets.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType implements Renderer.
func (e *CSVExporter) ContentType() string { return "text/csv" }

// Extension implements Renderer.
func (e *CSVExporter) Extension() string { return "csv" }

// Render produces CSV encoded bytes for the document.
func (e *CSVExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Sections) == 0 && len(doc.Summary) == 0 {
		return nil, fmt.Errorf("csv requires at least one section or summary line")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	write := func(record []string) error {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
		return nil
	}

	if doc.Title != "" {
		if err := write([]string{doc.Title}); err != nil {
			return nil, err
		}
	}
	for _, section := range doc.Sections {
		if len(section.Headers) == 0 {
			return nil, fmt.Errorf("csv section %q has no headers", section.Title)
		}
		if section.Title != "" {
			if err := write([]string{section.Title}); err != nil {
				return nil, err
			}
		}
		if err := write(section.Headers); err != nil {
			return nil, err
		}
		for _, row := range section.Rows {
			record := make([]string, len(section.Headers))
			copy(record, row)
			if err := write(record); err != nil {
				return nil, err
			}
		}
		for _, line := range section.Footer {
			if err := write([]string{line[0], line[1]}); err != nil {
				return nil, err
			}
		}
	}
	for _, line := range doc.Summary {
		if err := write([]string{line[0], line[1]}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
