package models

// PDFChunk is a contiguous page range of a source PDF, assembled as an
// independently valid PDF binary. Concatenating chunk page lists in
// Index order reproduces the source page order exactly once each.
type PDFChunk struct {
	Data  []byte
	Index int // zero-based chunk index
	Total int // total chunks produced from the source document
}
