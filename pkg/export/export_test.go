package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Title", "Place"},
		Rows: []map[string]string{
			{"Title": "Poste sin luz", "Place": "Tienda Don Luis, entrada"},
		},
		Widths: []float64{2, 1},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter(true).Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))
	require.Contains(t, string(out), "Title,Place\n")
	require.Contains(t, string(out), `Poste sin luz,"Tienda Don Luis, entrada"`)

	_, err = NewCSVExporter(false).Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Reportes", "Generado")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidthsAndTruncate(t *testing.T) {
	widths := columnWidths(sampleDataset())
	require.InDelta(t, pageWidthLandscape*2/3, widths[0], 0.001)
	require.InDelta(t, pageWidthLandscape/3, widths[1], 0.001)

	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "ab…", truncate("abcdef", 3))
}
