package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - live speech capture
	mux.HandleFunc("/ws/capture", s.app.CaptureHandler.HandleCapture)

	// API routes - Ingestion
	mux.HandleFunc("/api/ingest/pdf", s.app.IngestHandler.PDFHandler)
	mux.HandleFunc("/api/ingest/image", s.app.IngestHandler.ImageHandler)
	mux.HandleFunc("/api/ingest/audio", s.app.IngestHandler.AudioHandler)
	mux.HandleFunc("/api/ingest/transcript", s.app.IngestHandler.TranscriptHandler)

	// API routes - Job status
	mux.HandleFunc("/api/jobs/current", s.app.StatusHandler.CurrentJobHandler)

	// API routes - Notes
	mux.HandleFunc("/api/notes", s.app.NotesHandler.ListHandler)
	mux.HandleFunc("/api/notes/", s.app.NotesHandler.GetHandler)

	// API routes - Q&A and search
	mux.HandleFunc("/api/ask", s.app.AskHandler.AskHandler)
	mux.HandleFunc("/api/search", s.app.AskHandler.SearchHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.StatusHandler.NotFoundHandler)

	return mux
}
