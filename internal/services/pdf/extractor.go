// -----------------------------------------------------------------------
// PDF Text Extractor - Text-layer extraction with OCR fallback
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
)

// ocrTriggerThreshold is the minimum non-whitespace character yield the
// text layer must produce to skip the OCR fallback. Born-digital PDFs
// clear it trivially; scanned documents do not.
const ocrTriggerThreshold = 50

// Extractor recovers text from PDF binaries: the embedded text layer
// first, then page-image OCR for scanned documents. Extraction never
// fails the caller; an unreadable binary yields an empty result.
type Extractor struct {
	logger     arbor.ILogger
	engine     OCREngine
	tempDir    string
	ocrPageCap int
}

// Compile-time interface assertion
var _ interfaces.TextExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF text extractor. ocrPageCap bounds how
// many pages the OCR fallback will process for a single document.
func NewExtractor(engine OCREngine, ocrPageCap int, logger arbor.ILogger) *Extractor {
	tempDir := filepath.Join(os.TempDir(), "memoro-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:     logger,
		engine:     engine,
		tempDir:    tempDir,
		ocrPageCap: ocrPageCap,
	}
}

// Extract returns the document's text and page count. The text layer is
// used when it yields more than ocrTriggerThreshold non-whitespace
// characters; otherwise pages are OCR'd up to the page cap.
func (e *Extractor) Extract(ctx context.Context, data []byte) interfaces.ExtractResult {
	text, pageCount, err := e.extractTextLayer(data)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to read PDF, returning empty extraction")
		return interfaces.ExtractResult{}
	}

	if nonWhitespaceLen(text) > ocrTriggerThreshold {
		return interfaces.ExtractResult{Text: text, PageCount: pageCount}
	}

	e.logger.Info().
		Int("page_count", pageCount).
		Int("text_layer_chars", nonWhitespaceLen(text)).
		Msg("Text layer yield insufficient, running OCR fallback")

	if ocrText := e.runOCR(ctx, data, pageCount); strings.TrimSpace(ocrText) != "" {
		text = ocrText
	}

	return interfaces.ExtractResult{Text: text, PageCount: pageCount}
}

// ExtractImage runs OCR directly on a raster image.
func (e *Extractor) ExtractImage(ctx context.Context, data []byte) (string, error) {
	text, err := e.engine.ImageText(data)
	if err != nil {
		return "", fmt.Errorf("image OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// extractTextLayer collects per-page text-layer content. Page strings
// are joined with a single space within a page and a blank line between
// pages.
func (e *Extractor) extractTextLayer(data []byte) (string, int, error) {
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("extract_%s.pdf", uuid.New().String()))
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return "", 0, fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp(e.tempDir, "pages_")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to extract PDF content streams")
		return "", pageCount, nil
	}

	pageTexts := readPageContent(outDir)

	var pages []string
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pageText := strings.TrimSpace(decodeContentText(pageTexts[pageNum]))
		if pageText != "" {
			pages = append(pages, pageText)
		}
	}

	return strings.Join(pages, "\n\n"), pageCount, nil
}

// readPageContent maps extracted content files back to page numbers.
// pdfcpu names them "<base>_page_<n>.txt" or "Content_page_<n>".
func readPageContent(outDir string) map[int][]byte {
	pageTexts := make(map[int][]byte)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		if pageNum, ok := pageNumberFromName(file.Name()); ok {
			pageTexts[pageNum] = content
		}
	}
	return pageTexts
}

// pageNumberFromName pulls the trailing page number out of an extracted
// content file name.
func pageNumberFromName(name string) (int, bool) {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	idx := strings.LastIndex(name, "page_")
	if idx < 0 {
		return 0, false
	}
	var pageNum int
	if _, err := fmt.Sscanf(name[idx:], "page_%d", &pageNum); err != nil {
		return 0, false
	}
	return pageNum, true
}

// decodeContentText harvests text-show string literals from a decoded
// PDF content stream. String literals appear as parenthesized,
// backslash-escaped byte sequences; everything else in the stream is
// operators and operands.
func decodeContentText(content []byte) string {
	var parts []string
	var current strings.Builder

	depth := 0
	for i := 0; i < len(content); i++ {
		c := content[i]

		if depth == 0 {
			if c == '(' {
				depth = 1
				current.Reset()
			}
			continue
		}

		switch c {
		case '\\':
			if i+1 >= len(content) {
				break
			}
			i++
			switch content[i] {
			case 'n':
				current.WriteByte('\n')
			case 'r':
				current.WriteByte('\r')
			case 't':
				current.WriteByte('\t')
			case 'b', 'f':
				// discard
			case '(', ')', '\\':
				current.WriteByte(content[i])
			default:
				// octal escape \ddd
				if content[i] >= '0' && content[i] <= '7' {
					val := int(content[i] - '0')
					for j := 0; j < 2 && i+1 < len(content) && content[i+1] >= '0' && content[i+1] <= '7'; j++ {
						i++
						val = val*8 + int(content[i]-'0')
					}
					current.WriteByte(byte(val))
				} else {
					current.WriteByte(content[i])
				}
			}
		case '(':
			depth++
			current.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				if s := strings.TrimSpace(current.String()); s != "" {
					parts = append(parts, s)
				}
			} else {
				current.WriteByte(c)
			}
		default:
			current.WriteByte(c)
		}
	}

	return strings.Join(parts, " ")
}

// nonWhitespaceLen counts the characters left after removing all
// whitespace.
func nonWhitespaceLen(s string) int {
	count := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}
