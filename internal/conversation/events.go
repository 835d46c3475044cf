package conversation

import (
	"github.com/englishpartner/eva/internal/feedback"
	"github.com/englishpartner/eva/internal/speech"
)

// Event is one named input to the turn machine. All state changes happen in
// response to exactly one event, inside the controller's single loop.
type Event interface{ isEvent() }

// TopicSelected fires once when the user picks a conversation topic.
type TopicSelected struct{ Topic string }

// CaptureToggled is the mic control: arm capture, or stop it if armed.
type CaptureToggled struct{}

// TranscriptFinal carries the single finalized transcript of one capture.
type TranscriptFinal struct{ Text string }

// CaptureFailed carries the classified error that ended a capture.
type CaptureFailed struct{ Code speech.ErrorCode }

// CaptureEnded reports a capture that stopped without transcript or error.
type CaptureEnded struct{}

// NarrationEnded reports that an utterance finished (or failed; narration
// failures are treated as completion).
type NarrationEnded struct{ UtteranceID string }

// ErrorReset is the external recovery action out of the blocking error state.
type ErrorReset struct{}

// feedbackReady is posted internally when an in-flight request resolves.
type feedbackReady struct {
	token  string
	result feedback.Result
}

func (TopicSelected) isEvent()   {}
func (CaptureToggled) isEvent()  {}
func (TranscriptFinal) isEvent() {}
func (CaptureFailed) isEvent()   {}
func (CaptureEnded) isEvent()    {}
func (NarrationEnded) isEvent()  {}
func (ErrorReset) isEvent()      {}
func (feedbackReady) isEvent()   {}
