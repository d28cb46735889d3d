package audio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
)

// fakeRecognizer hands the test a channel to script events on.
type fakeRecognizer struct {
	mu     sync.Mutex
	starts int
	events chan interfaces.RecognitionEvent
}

func (f *fakeRecognizer) Start(ctx context.Context) (<-chan interfaces.RecognitionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.events = make(chan interfaces.RecognitionEvent, 16)
	return f.events, nil
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events != nil {
		close(f.events)
		f.events = nil
	}
	return nil
}

func (f *fakeRecognizer) emit(event interfaces.RecognitionEvent) {
	f.mu.Lock()
	ch := f.events
	f.mu.Unlock()
	ch <- event
}

func (f *fakeRecognizer) closeStream() {
	f.Stop()
}

func (f *fakeRecognizer) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func interim(text string) interfaces.RecognitionEvent {
	return interfaces.RecognitionEvent{Kind: interfaces.RecognitionResult, Transcript: text}
}

func final(text string) interfaces.RecognitionEvent {
	return interfaces.RecognitionEvent{Kind: interfaces.RecognitionResult, Transcript: text, IsFinal: true}
}

func waitFor(t *testing.T, condition func() bool, msg string) {
	t.Helper()
	assert.Eventually(t, condition, time.Second, 10*time.Millisecond, msg)
}

func TestSession_InterimReplacesFinalAppends(t *testing.T) {
	recognizer := &fakeRecognizer{}
	session := NewSession(recognizer, common.GetLogger())
	require.NoError(t, session.Start(context.Background()))
	defer session.Stop()

	recognizer.emit(interim("the ca"))
	waitFor(t, func() bool {
		_, i := session.Transcript()
		return i == "the ca"
	}, "interim should appear")

	recognizer.emit(interim("the cat"))
	waitFor(t, func() bool {
		_, i := session.Transcript()
		return i == "the cat"
	}, "interim should be replaced, not appended")

	recognizer.emit(final("the cat sat."))
	waitFor(t, func() bool {
		c, i := session.Transcript()
		return c == "the cat sat. " && i == ""
	}, "final should append to confirmed and clear interim")
}

func TestSession_NoSpeechErrorDoesNotEndCapture(t *testing.T) {
	recognizer := &fakeRecognizer{}
	session := NewSession(recognizer, common.GetLogger())
	require.NoError(t, session.Start(context.Background()))
	defer session.Stop()

	recognizer.emit(interfaces.RecognitionEvent{Kind: interfaces.RecognitionError, Code: interfaces.ErrCodeNoSpeech})
	recognizer.emit(final("still listening."))

	waitFor(t, func() bool {
		c, _ := session.Transcript()
		return c == "still listening. "
	}, "capture should survive a no-speech error")
	assert.Equal(t, StateCapturing, session.State())
}

func TestSession_StreamCloseRestartsWhileCapturing(t *testing.T) {
	recognizer := &fakeRecognizer{}
	session := NewSession(recognizer, common.GetLogger())
	require.NoError(t, session.Start(context.Background()))
	defer session.Stop()

	recognizer.emit(final("first part."))
	waitFor(t, func() bool {
		c, _ := session.Transcript()
		return c == "first part. "
	}, "first segment should land")

	recognizer.closeStream()
	waitFor(t, func() bool { return recognizer.startCount() == 2 }, "session should reopen the stream")

	recognizer.emit(final("second part."))
	waitFor(t, func() bool {
		c, _ := session.Transcript()
		return c == "first part. second part. "
	}, "buffer should accumulate across restarts")
}

func TestSession_EndEventRestartsWhileCapturing(t *testing.T) {
	recognizer := &fakeRecognizer{}
	session := NewSession(recognizer, common.GetLogger())
	require.NoError(t, session.Start(context.Background()))
	defer session.Stop()

	recognizer.emit(interfaces.RecognitionEvent{Kind: interfaces.RecognitionEnd})
	waitFor(t, func() bool { return recognizer.startCount() == 2 }, "end event should trigger a restart")
}

func TestSession_StopFreezesBufferAndIsIdempotent(t *testing.T) {
	recognizer := &fakeRecognizer{}
	session := NewSession(recognizer, common.GetLogger())
	require.NoError(t, session.Start(context.Background()))

	recognizer.emit(final("closing thoughts."))
	recognizer.emit(interim("and one more"))
	waitFor(t, func() bool {
		_, i := session.Transcript()
		return i == "and one more"
	}, "interim should be pending before stop")

	result := session.Stop()
	assert.Equal(t, "closing thoughts. ", result)
	assert.Equal(t, StateStopped, session.State())

	_, interimText := session.Transcript()
	assert.Empty(t, interimText, "stop must clear the interim suffix")

	assert.Equal(t, "closing thoughts. ", session.Stop(), "repeated stop returns the frozen buffer")
}

func TestSession_StartResetsBuffer(t *testing.T) {
	recognizer := &fakeRecognizer{}
	session := NewSession(recognizer, common.GetLogger())
	require.NoError(t, session.Start(context.Background()))

	recognizer.emit(final("old session text."))
	waitFor(t, func() bool {
		c, _ := session.Transcript()
		return c != ""
	}, "first session should capture")
	session.Stop()

	require.NoError(t, session.Start(context.Background()))
	defer session.Stop()

	confirmed, interimText := session.Transcript()
	assert.Empty(t, confirmed)
	assert.Empty(t, interimText)
}

func TestSession_SecondStartWhileCapturingFails(t *testing.T) {
	recognizer := &fakeRecognizer{}
	session := NewSession(recognizer, common.GetLogger())
	require.NoError(t, session.Start(context.Background()))
	defer session.Stop()

	assert.Error(t, session.Start(context.Background()))
}
