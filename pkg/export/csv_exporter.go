package export

import (
	"fmt"
	"reflect"

	"github.com/gocarina/gocsv"
)

// CSVExporter renders slices of csv-tagged structs.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes, header row first. rows must be a slice of structs or pointers to structs.
func (e *CSVExporter) Render(rows interface{}) ([]byte, error) {
	value := reflect.ValueOf(rows)
	if value.Kind() != reflect.Slice {
		return nil, fmt.Errorf("csv export requires a slice, got %T", rows)
	}
	out, err := gocsv.MarshalBytes(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal csv: %w", err)
	}
	return out, nil
}
