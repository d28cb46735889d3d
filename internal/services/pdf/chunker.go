// -----------------------------------------------------------------------
// PDF Chunker - Split multi-page PDFs into bounded page-range chunks
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// Chunker splits a PDF into contiguous page groups so each group can be
// structured as an independent model call. Chunking is a throughput
// optimization only: any failure degrades to a single unsplit chunk
// rather than failing the caller.
type Chunker struct {
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.PDFChunker = (*Chunker)(nil)

// NewChunker creates a new PDF chunker
func NewChunker(logger arbor.ILogger) *Chunker {
	return &Chunker{logger: logger}
}

// Split partitions the document into ceil(pageCount/pagesPerChunk)
// chunks of ascending, contiguous pages; the last chunk may be smaller.
// A document of pagesPerChunk pages or fewer is returned whole without
// re-assembly.
func (c *Chunker) Split(data []byte, pagesPerChunk int) []models.PDFChunk {
	whole := []models.PDFChunk{{Data: data, Index: 0, Total: 1}}
	if pagesPerChunk < 1 {
		return whole
	}

	pageCount, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil || pageCount < 1 {
		c.logger.Warn().Err(err).Msg("Failed to read PDF page count, falling back to single chunk")
		return whole
	}

	if pageCount <= pagesPerChunk {
		return whole
	}

	total := (pageCount + pagesPerChunk - 1) / pagesPerChunk
	chunks := make([]models.PDFChunk, 0, total)

	for i := 0; i < total; i++ {
		first := i*pagesPerChunk + 1
		last := first + pagesPerChunk - 1
		if last > pageCount {
			last = pageCount
		}

		var buf bytes.Buffer
		pages := []string{fmt.Sprintf("%d-%d", first, last)}
		if err := api.Trim(bytes.NewReader(data), &buf, pages, nil); err != nil {
			c.logger.Warn().
				Err(err).
				Int("first_page", first).
				Int("last_page", last).
				Msg("Failed to assemble PDF chunk, falling back to single chunk")
			return whole
		}

		chunks = append(chunks, models.PDFChunk{Data: buf.Bytes(), Index: i, Total: total})
	}

	c.logger.Debug().
		Int("page_count", pageCount).
		Int("pages_per_chunk", pagesPerChunk).
		Int("chunks", total).
		Msg("PDF split into chunks")

	return chunks
}
