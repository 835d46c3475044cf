package speech

import "context"

// ErrorCode is the classified vocabulary reported by a capture engine.
// The values mirror the Web Speech API error names so a browser client can
// forward them unchanged.
type ErrorCode string

const (
	CodeNotAllowed        ErrorCode = "not-allowed"
	CodeServiceNotAllowed ErrorCode = "service-not-allowed"
	CodeNoSpeech          ErrorCode = "no-speech"
	CodeAborted           ErrorCode = "aborted"
	CodeAudioCapture      ErrorCode = "audio-capture"
	CodeNetwork           ErrorCode = "network"
	CodeOther             ErrorCode = "other"
)

// ParseErrorCode normalizes a raw engine error name to the known vocabulary.
func ParseErrorCode(raw string) ErrorCode {
	switch ErrorCode(raw) {
	case CodeNotAllowed, CodeServiceNotAllowed, CodeNoSpeech, CodeAborted, CodeAudioCapture, CodeNetwork:
		return ErrorCode(raw)
	default:
		return CodeOther
	}
}

// Outcome groups capture errors by the recovery path they demand.
type Outcome string

const (
	// OutcomeBlocked means microphone access is denied; no automatic retry.
	OutcomeBlocked Outcome = "blocked"
	// OutcomeNoSpeech is a benign non-event: prompt the user, stay quiet.
	OutcomeNoSpeech Outcome = "no_speech"
	// OutcomeTransient covers everything else: apologize out loud and recover.
	OutcomeTransient Outcome = "transient"
)

// Classify maps a capture error code to its conversational outcome.
func Classify(code ErrorCode) Outcome {
	switch code {
	case CodeNotAllowed, CodeServiceNotAllowed:
		return OutcomeBlocked
	case CodeNoSpeech:
		return OutcomeNoSpeech
	default:
		return OutcomeTransient
	}
}

// Capture commands a speech-to-text engine. Results and errors arrive as
// events on the conversation loop, not as return values; at most one capture
// is active at a time. Stop is idempotent and must release the microphone on
// every exit path.
type Capture interface {
	Start(ctx context.Context) error
	Stop()
}

// Utterance identifies one narration request. Completion events carry the id
// back so superseded utterances can be told apart from the live one.
type Utterance struct {
	ID   string
	Text string
}

// Narrator commands a text-to-speech engine. Speak supersedes any in-flight
// utterance (last-write-wins, no queueing). Cancel silences the engine
// outright.
type Narrator interface {
	Speak(ctx context.Context, text string) (Utterance, error)
	Cancel()
}
