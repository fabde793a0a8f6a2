package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Course string  `csv:"course"`
	Score  float64 `csv:"score"`
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render([]row{{Course: "CMSC131", Score: 0.8}, {Course: "MATH140", Score: 0.5}})
	require.NoError(t, err)
	assert.Equal(t, "course,score\nCMSC131,0.8\nMATH140,0.5\n", string(out))
}

func TestCSVExporterRejectsNonSlice(t *testing.T) {
	_, err := NewCSVExporter().Render(row{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter(map[string]float64{"course": 30})
	out, err := exporter.Render(Dataset{
		Headers: []string{"course", "section", "meetings"},
		Rows:    [][]string{{"CMSC131", "0101", "MWF 09:00-09:50"}},
		Footer:  []string{"Total credits: 4"},
	}, "Schedule 1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = exporter.Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestColumnWidths(t *testing.T) {
	widths := NewPDFExporter(map[string]float64{"a": 50}).columnWidths([]string{"a", "b", "c"}, 250)
	assert.Equal(t, []float64{50, 100, 100}, widths)
}
