package interfaces

import "context"

// RecognitionEventKind discriminates recognizer stream events.
type RecognitionEventKind string

const (
	RecognitionResult RecognitionEventKind = "result"
	RecognitionError  RecognitionEventKind = "error"
	RecognitionEnd    RecognitionEventKind = "end"
)

// ErrCodeNoSpeech is the transient recognizer error emitted during natural
// pauses. It must not terminate a capture session.
const ErrCodeNoSpeech = "no-speech"

// RecognitionEvent is the fixed event shape crossing the recognizer
// boundary. Provider-specific fields do not leak past this point.
type RecognitionEvent struct {
	Kind       RecognitionEventKind `json:"kind"`
	Transcript string               `json:"transcript,omitempty"`
	IsFinal    bool                 `json:"is_final,omitempty"`
	Code       string               `json:"code,omitempty"`
}

// Recognizer is a restartable speech-to-text event stream. Start opens a
// fresh stream and returns its event channel; the channel closes when the
// stream ends. Stop ends the current stream and must be safe to call
// after the stream has already ended on its own.
type Recognizer interface {
	Start(ctx context.Context) (<-chan RecognitionEvent, error)
	Stop() error
}
