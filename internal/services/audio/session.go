// -----------------------------------------------------------------------
// Audio Capture Session - Continuous speech capture with auto-restart
// Finalized text appends; interim text replaces. Never the other way.
// -----------------------------------------------------------------------

package audio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
)

// State is the capture session lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
	StateStopped   State = "stopped"
)

// Session owns one capture stream and its transcript buffer. Confirmed
// text only ever grows; the interim suffix is overwritten by every
// non-final result so callers always see "confirmed + live guess".
type Session struct {
	recognizer interfaces.Recognizer
	logger     arbor.ILogger

	mu        sync.Mutex
	state     State
	confirmed strings.Builder
	interim   string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates an idle capture session over the given recognizer.
func NewSession(recognizer interfaces.Recognizer, logger arbor.ILogger) *Session {
	return &Session{
		recognizer: recognizer,
		logger:     logger,
		state:      StateIdle,
	}
}

// Start opens the capture stream and resets the transcript buffer. Only
// one stream may be open per session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateCapturing {
		s.mu.Unlock()
		return fmt.Errorf("capture already running")
	}
	s.state = StateCapturing
	s.confirmed.Reset()
	s.interim = ""

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	events, err := s.recognizer.Start(streamCtx)
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("failed to start recognition stream: %w", err)
	}

	s.wg.Add(1)
	go s.consume(streamCtx, events)

	s.logger.Debug().Msg("Capture session started")
	return nil
}

// consume drains recognition events, restarting the stream whenever it
// ends while the session is still logically capturing.
func (s *Session) consume(ctx context.Context, events <-chan interfaces.RecognitionEvent) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				next, restarted := s.restart(ctx)
				if !restarted {
					return
				}
				events = next
				continue
			}

			switch event.Kind {
			case interfaces.RecognitionResult:
				s.applyResult(event)
			case interfaces.RecognitionError:
				if event.Code == interfaces.ErrCodeNoSpeech {
					// Expected during natural pauses; the stream restart
					// arrives as an end event.
					s.logger.Debug().Msg("Recognizer reported no speech, continuing capture")
					continue
				}
				s.logger.Warn().Str("code", event.Code).Msg("Recognition stream error")
			case interfaces.RecognitionEnd:
				next, restarted := s.restart(ctx)
				if !restarted {
					return
				}
				events = next
			}
		}
	}
}

// restart reopens the recognition stream if the session still wants it.
func (s *Session) restart(ctx context.Context) (<-chan interfaces.RecognitionEvent, bool) {
	if ctx.Err() != nil || s.State() != StateCapturing {
		return nil, false
	}

	events, err := s.recognizer.Start(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to restart recognition stream")
		return nil, false
	}

	s.logger.Debug().Msg("Recognition stream restarted")
	return events, true
}

// applyResult folds one recognition result into the transcript buffer.
func (s *Session) applyResult(event interfaces.RecognitionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCapturing {
		return
	}

	if event.IsFinal {
		if text := strings.TrimSpace(event.Transcript); text != "" {
			s.confirmed.WriteString(text + " ")
		}
		s.interim = ""
	} else {
		s.interim = event.Transcript
	}
}

// Stop ends the stream, clears the interim suffix, and freezes the
// confirmed buffer as the session's output. Safe to call repeatedly and
// after the underlying stream already ended on its own.
func (s *Session) Stop() string {
	s.mu.Lock()
	if s.state == StateStopped {
		result := s.confirmed.String()
		s.mu.Unlock()
		return result
	}
	wasCapturing := s.state == StateCapturing
	s.state = StateStopped
	s.interim = ""
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if wasCapturing {
		if err := s.recognizer.Stop(); err != nil {
			s.logger.Warn().Err(err).Msg("Recognizer stop returned error")
		}
	}
	s.wg.Wait()

	s.mu.Lock()
	result := s.confirmed.String()
	s.mu.Unlock()

	s.logger.Debug().Int("transcript_chars", len(result)).Msg("Capture session stopped")
	return result
}

// State returns the session lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns the confirmed text and the current interim suffix.
func (s *Session) Transcript() (confirmed, interim string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmed.String(), s.interim
}
