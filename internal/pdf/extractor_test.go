package pdf

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(s string, x, y, w, fontSize float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: w, FontSize: fontSize}
}

func TestMergeRowRunsJoinsWords(t *testing.T) {
	// Glyph runs with word-sized gaps merge into one phrase item with
	// spaces restored.
	runs := []pdf.Text{
		run("Assinatura", 72, 100, 60, 12),
		run("do", 137, 100, 14, 12),
		run("contratante", 156, 100, 64, 12),
	}

	items := mergeRowRuns(runs, 792)

	require.Len(t, items, 1)
	assert.Equal(t, "Assinatura do contratante", items[0].Text)
	assert.InDelta(t, 72.0, items[0].X, 1e-9)
	assert.InDelta(t, 148.0, items[0].Width, 1e-9)
	// Y is the distance from the page top to the baseline.
	assert.InDelta(t, 692.0, items[0].Y, 1e-9)
	assert.InDelta(t, 12.0, items[0].Height, 1e-9)
}

func TestMergeRowRunsSplitsColumns(t *testing.T) {
	// Side-by-side signature blocks are separated by gaps much wider than
	// the font size and must stay distinct items.
	runs := []pdf.Text{
		run("______________", 72, 100, 100, 12),
		run("______________", 340, 100, 100, 12),
	}

	items := mergeRowRuns(runs, 792)

	require.Len(t, items, 2)
	assert.Equal(t, "______________", items[0].Text)
	assert.Equal(t, "______________", items[1].Text)
	assert.InDelta(t, 72.0, items[0].X, 1e-9)
	assert.InDelta(t, 340.0, items[1].X, 1e-9)
}

func TestMergeRowRunsAdjacentGlyphs(t *testing.T) {
	// Per-glyph runs with no gaps concatenate without inserted spaces.
	runs := []pdf.Text{
		run("A", 72, 100, 7, 12),
		run("s", 79, 100, 6, 12),
		run("s", 85, 100, 6, 12),
		run("i", 91, 100, 3, 12),
		run("n", 94, 100, 6, 12),
		run("e", 100, 100, 6, 12),
	}

	items := mergeRowRuns(runs, 792)

	require.Len(t, items, 1)
	assert.Equal(t, "Assine", items[0].Text)
}

func TestMergeRowRunsZeroFontSize(t *testing.T) {
	// Runs without a font size fall back to a nominal 12pt for gap logic
	// and height.
	runs := []pdf.Text{
		run("assinado", 72, 100, 50, 0),
	}

	items := mergeRowRuns(runs, 792)

	require.Len(t, items, 1)
	assert.InDelta(t, 12.0, items[0].Height, 1e-9)
}

func TestMergeRowRunsEmpty(t *testing.T) {
	assert.Empty(t, mergeRowRuns(nil, 792))
}

func TestExtractDocumentRejectsGarbage(t *testing.T) {
	// Corrupt input surfaces as an open error; the workflow layer turns
	// that into manual review, never a hard failure.
	e := NewExtractor(1024 * 1024)

	_, err := e.ExtractDocument("/nonexistent/file.pdf", 8)
	assert.Error(t, err)
}
