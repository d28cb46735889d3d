// -----------------------------------------------------------------------
// Capture Handler - Live speech capture over websocket
// Browser recognizer events in, throttled transcript frames out
// -----------------------------------------------------------------------

package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/services/audio"
	"github.com/ternarybob/memoro/internal/services/ingest"
)

// transcriptFrameInterval throttles how often transcript view frames go
// out; interim results can arrive far faster than a UI needs.
const transcriptFrameInterval = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// captureMessage is the inbound websocket message shape.
type captureMessage struct {
	Type  string                       `json:"type"` // "event" | "stop"
	Event *interfaces.RecognitionEvent `json:"event,omitempty"`
}

// transcriptFrame is the outbound live transcript view.
type transcriptFrame struct {
	Type      string `json:"type"` // "transcript" | "complete"
	Confirmed string `json:"confirmed"`
	Interim   string `json:"interim,omitempty"`
	JobID     string `json:"job_id,omitempty"`
}

// CaptureHandler bridges a browser speech-recognition stream into an
// audio capture session and submits the finished transcript for
// structuring.
type CaptureHandler struct {
	orchestrator *ingest.Orchestrator
	logger       arbor.ILogger
}

// NewCaptureHandler creates a new capture handler
func NewCaptureHandler(orchestrator *ingest.Orchestrator, logger arbor.ILogger) *CaptureHandler {
	return &CaptureHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// HandleCapture handles GET /ws/capture.
func (h *CaptureHandler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Capture websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	recognizer := newSocketRecognizer()
	session := audio.NewSession(recognizer, h.logger)
	if err := session.Start(ctx); err != nil {
		h.logger.Error().Err(err).Msg("Failed to start capture session")
		return
	}
	defer session.Stop()

	writer := &socketWriter{conn: conn}
	go h.streamTranscript(ctx, session, writer)

	h.logger.Info().Str("remote", r.RemoteAddr).Msg("Capture session opened")

	for {
		var msg captureMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug().Err(err).Msg("Capture websocket closed")
			return
		}

		switch msg.Type {
		case "event":
			if msg.Event != nil {
				recognizer.push(*msg.Event)
			}
		case "stop":
			transcript := session.Stop()
			cancel()
			h.finish(writer, transcript)
			return
		}
	}
}

// finish submits the captured transcript and reports the job back.
func (h *CaptureHandler) finish(writer *socketWriter, transcript string) {
	frame := transcriptFrame{Type: "complete", Confirmed: transcript}
	if transcript != "" {
		jobID, err := h.orchestrator.SubmitTranscript(transcript)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to submit captured transcript")
		} else {
			frame.JobID = jobID
		}
	}
	writer.writeJSON(frame)
}

// streamTranscript pushes the live transcript view at a bounded rate.
func (h *CaptureHandler) streamTranscript(ctx context.Context, session *audio.Session, writer *socketWriter) {
	limiter := rate.NewLimiter(rate.Every(transcriptFrameInterval), 1)

	var lastConfirmed, lastInterim string
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		confirmed, interim := session.Transcript()
		if confirmed == lastConfirmed && interim == lastInterim {
			continue
		}
		lastConfirmed, lastInterim = confirmed, interim

		if err := writer.writeJSON(transcriptFrame{
			Type:      "transcript",
			Confirmed: confirmed,
			Interim:   interim,
		}); err != nil {
			return
		}
	}
}

// socketWriter serializes concurrent websocket writes.
type socketWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *socketWriter) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// socketRecognizer adapts websocket-delivered recognition events into
// the Recognizer contract the capture session consumes.
type socketRecognizer struct {
	mu     sync.Mutex
	events chan interfaces.RecognitionEvent
}

func newSocketRecognizer() *socketRecognizer {
	return &socketRecognizer{}
}

// Compile-time interface assertion
var _ interfaces.Recognizer = (*socketRecognizer)(nil)

func (r *socketRecognizer) Start(ctx context.Context) (<-chan interfaces.RecognitionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = make(chan interfaces.RecognitionEvent, 64)
	return r.events, nil
}

func (r *socketRecognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events != nil {
		close(r.events)
		r.events = nil
	}
	return nil
}

// push forwards one browser event. Events arriving after stop, or past a
// full buffer, are dropped rather than blocking the read loop.
func (r *socketRecognizer) push(event interfaces.RecognitionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		return
	}
	select {
	case r.events <- event:
	default:
	}
}
