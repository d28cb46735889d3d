package interfaces

import (
	"context"

	"github.com/ternarybob/memoro/internal/models"
)

// PDFChunker splits a multi-page PDF into ordered sub-documents of
// bounded page count. Splitting is a throughput optimization: on any
// parse failure implementations degrade to a single unsplit chunk.
type PDFChunker interface {
	Split(data []byte, pagesPerChunk int) []models.PDFChunk
}

// ExtractResult is the outcome of text extraction for one document.
type ExtractResult struct {
	Text      string
	PageCount int
}

// TextExtractor recovers text from captured binaries: the PDF text layer
// with an OCR fallback for scanned documents, and direct OCR for images.
// Extraction failure degrades to empty text rather than an error that
// would fail the pipeline.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) ExtractResult
	ExtractImage(ctx context.Context, data []byte) (string, error)
}
