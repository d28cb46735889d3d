package pdf

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/memoro/internal/common"
)

// makePDF builds a PDF with the given number of pages, each carrying a
// line of text so the text layer is populated.
func makePDF(t *testing.T, pages int) []byte {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		doc.AddPage()
		doc.Text(10, 20, fmt.Sprintf("This is the content of page %d in the source document.", i))
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

// makeBlankPDF builds a PDF whose pages carry no text layer at all.
func makeBlankPDF(t *testing.T, pages int) []byte {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	for i := 0; i < pages; i++ {
		doc.AddPage()
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func pageCountOf(t *testing.T, data []byte) int {
	t.Helper()
	count, err := api.PageCount(bytes.NewReader(data), nil)
	require.NoError(t, err)
	return count
}

func TestChunker_SplitTwelvePagesByFive(t *testing.T) {
	chunker := NewChunker(common.GetLogger())
	data := makePDF(t, 12)

	chunks := chunker.Split(data, 5)

	require.Len(t, chunks, 3)
	expectedPages := []int{5, 5, 2}
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, 3, chunk.Total)
		assert.Equal(t, expectedPages[i], pageCountOf(t, chunk.Data))
	}
}

func TestChunker_SplitExactMultiple(t *testing.T) {
	chunker := NewChunker(common.GetLogger())
	data := makePDF(t, 10)

	chunks := chunker.Split(data, 5)

	require.Len(t, chunks, 2)
	assert.Equal(t, 5, pageCountOf(t, chunks[0].Data))
	assert.Equal(t, 5, pageCountOf(t, chunks[1].Data))
}

func TestChunker_SmallDocumentReturnedWhole(t *testing.T) {
	chunker := NewChunker(common.GetLogger())
	data := makePDF(t, 3)

	chunks := chunker.Split(data, 5)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].Total)
	// The whole-document shortcut returns the input bytes untouched.
	assert.Equal(t, data, chunks[0].Data)
}

func TestChunker_UnparseableFallsBackToSingleChunk(t *testing.T) {
	chunker := NewChunker(common.GetLogger())
	data := []byte("this is not a pdf")

	chunks := chunker.Split(data, 5)

	require.Len(t, chunks, 1)
	assert.Equal(t, data, chunks[0].Data)
	assert.Equal(t, 1, chunks[0].Total)
}

func TestChunker_InvalidChunkSizeFallsBack(t *testing.T) {
	chunker := NewChunker(common.GetLogger())
	data := makePDF(t, 4)

	chunks := chunker.Split(data, 0)

	require.Len(t, chunks, 1)
	assert.Equal(t, data, chunks[0].Data)
}
