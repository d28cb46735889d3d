// -----------------------------------------------------------------------
// OCR Fallback - Page-image OCR for scanned documents
// Uses gosseract (Tesseract) for recognition
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/otiai10/gosseract/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

// OCREngine recognizes text in a page image. The pdf extractor drives
// it page by page so a single bad page never aborts a whole document.
type OCREngine interface {
	ImageFileText(path string) (string, error)
	ImageText(data []byte) (string, error)
}

// TesseractEngine implements OCREngine using gosseract
type TesseractEngine struct{}

// Compile-time interface assertion
var _ OCREngine = (*TesseractEngine)(nil)

// ImageFileText recognizes text in an image file on disk
func (TesseractEngine) ImageFileText(path string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return client.Text()
}

// ImageText recognizes text in an in-memory image
func (TesseractEngine) ImageText(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to load image bytes: %w", err)
	}
	return client.Text()
}

// pageImage is one extracted page image awaiting OCR.
type pageImage struct {
	page int
	path string
}

// runOCR extracts page images for the first ocrPageCap pages and OCRs
// them sequentially. Scanned documents embed each page as a full-page
// image, so image extraction stands in for rasterization.
func (e *Extractor) runOCR(ctx context.Context, data []byte, pageCount int) string {
	processPages := pageCount
	if processPages > e.ocrPageCap {
		processPages = e.ocrPageCap
	}
	if processPages < 1 {
		return ""
	}

	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("ocr_%s.pdf", uuid.New().String()))
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to write temp PDF for OCR")
		return ""
	}
	defer os.Remove(tempFile)

	outDir, err := os.MkdirTemp(e.tempDir, "images_")
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to create OCR image directory")
		return ""
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	selected := []string{fmt.Sprintf("1-%d", processPages)}
	if err := api.ExtractImagesFile(tempFile, outDir, selected, conf); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to extract page images for OCR")
		return ""
	}

	return collectPageText(ctx, e.engine, pageImagePaths(outDir), pageCount, processPages, e.logger)
}

// imagePagePattern matches the page number pdfcpu embeds in extracted
// image names ("<base>_<page>_<objId>.<ext>").
var imagePagePattern = regexp.MustCompile(`_(\d+)_[^_]*\.\w+$`)

// pageImagePaths lists extracted page images in ascending page order.
func pageImagePaths(outDir string) []pageImage {
	var images []pageImage
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		m := imagePagePattern.FindStringSubmatch(file.Name())
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		images = append(images, pageImage{page: page, path: filepath.Join(outDir, file.Name())})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].page < images[j].page })
	return images
}

// collectPageText OCRs page images in order. A failed page is logged
// and skipped. When the page cap truncated the document, a marker is
// appended so consumers know the text is partial.
func collectPageText(ctx context.Context, engine OCREngine, images []pageImage, pageCount, processPages int, logger arbor.ILogger) string {
	var parts []string
	for _, img := range images {
		if ctx.Err() != nil {
			break
		}
		text, err := engine.ImageFileText(img.path)
		if err != nil {
			logger.Warn().Err(err).Int("page", img.page).Msg("OCR failed for page, skipping")
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}

	result := strings.Join(parts, "\n\n")
	if pageCount > processPages {
		marker := fmt.Sprintf("[Processed %d of %d pages]", processPages, pageCount)
		if result == "" {
			result = marker
		} else {
			result += "\n\n" + marker
		}
	}
	return result
}
