package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/englishpartner/eva/internal/feedback"
	"github.com/englishpartner/eva/internal/speech"
)

// User-facing conversational strings.
const (
	greetingFormat    = "Great, let's talk about %s! What's on your mind?"
	micBlockedText    = "Microphone access is blocked. Please enable it in your browser settings to continue."
	noSpeechText      = "I'm sorry, I didn't catch that. Could you please try again?"
	captureTroubleTxt = "There was a problem with the microphone. Let's try again."
)

// Turn outcome labels reported to the observer.
const (
	OutcomeCompleted    = "completed"
	OutcomeFallback     = "fallback"
	OutcomeEmpty        = "empty"
	OutcomeNoSpeech     = "no_speech"
	OutcomeCaptureError = "capture_error"
	OutcomeBlocked      = "blocked"
)

// Turn stage labels for latency observation.
const (
	StageListen    = "listen"
	StageProcess   = "process"
	StageSpeak     = "speak"
	StageTurnTotal = "turn_total"
)

// Requestor produces feedback for one transcript. It never fails; failures
// arrive as the degraded fallback result.
type Requestor interface {
	Request(ctx context.Context, transcript string, history []feedback.Turn, topic string) feedback.Result
}

// Notifier receives conversation changes for the transport to push to the
// client.
type Notifier interface {
	PhaseChanged(phase Phase)
	MessageAppended(msg Message)
}

// Observer receives operational signals. Implementations must be cheap; they
// are called from the controller loop.
type Observer interface {
	PhaseTransition(from, to Phase)
	TurnOutcome(outcome string)
	StageLatency(stage string, d time.Duration)
}

type nopNotifier struct{}

func (nopNotifier) PhaseChanged(Phase)      {}
func (nopNotifier) MessageAppended(Message) {}

type nopObserver struct{}

func (nopObserver) PhaseTransition(Phase, Phase)       {}
func (nopObserver) TurnOutcome(string)                 {}
func (nopObserver) StageLatency(string, time.Duration) {}

// Config carries the controller's policy knobs.
type Config struct {
	HistoryWindow int
	// SpeakNoSpeechPrompt narrates the "didn't catch that" prompt instead of
	// showing it silently.
	SpeakNoSpeechPrompt bool
	// Topic pre-seeds the gate for reconnects to a session whose topic was
	// already chosen; the greeting is not replayed.
	Topic string
}

// Controller is the conversation turn machine. It owns the message log and
// the phase, sequences capture, feedback and narration, and guarantees at
// most one in-flight operation of each kind. All mutation happens on the
// goroutine running Run.
type Controller struct {
	capture   speech.Capture
	narrator  speech.Narrator
	requestor Requestor
	notify    Notifier
	obs       Observer
	cfg       Config

	log   *Log
	topic string
	phase Phase

	// pendingTurn tokens the single in-flight feedback request; utteranceID
	// tokens the single live narration. Stale completions are dropped.
	pendingTurn string
	utteranceID string

	listenStartedAt  time.Time
	processStartedAt time.Time
	speakStartedAt   time.Time
	turnStartedAt    time.Time

	// self carries internally generated events back into the loop.
	self chan Event
}

func New(capture speech.Capture, narrator speech.Narrator, requestor Requestor, notify Notifier, obs Observer, cfg Config) *Controller {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 4
	}
	if notify == nil {
		notify = nopNotifier{}
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &Controller{
		capture:   capture,
		narrator:  narrator,
		requestor: requestor,
		notify:    notify,
		obs:       obs,
		cfg:       cfg,
		log:       NewLog(),
		topic:     strings.TrimSpace(cfg.Topic),
		phase:     PhaseIdle,
		self:      make(chan Event, 16),
	}
}

// Run consumes events until the context ends or the channel closes. It is the
// only goroutine allowed to touch conversation state.
func (c *Controller) Run(ctx context.Context, events <-chan Event) error {
	defer func() {
		c.capture.Stop()
		c.narrator.Cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.self:
			c.handle(ctx, ev)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.handle(ctx, ev)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev Event) {
	switch ev := ev.(type) {
	case TopicSelected:
		c.onTopicSelected(ctx, ev.Topic)
	case CaptureToggled:
		c.onCaptureToggled(ctx)
	case TranscriptFinal:
		c.onTranscriptFinal(ctx, ev.Text)
	case CaptureFailed:
		c.onCaptureFailed(ctx, ev.Code)
	case CaptureEnded:
		c.onCaptureEnded()
	case NarrationEnded:
		c.onNarrationEnded(ev.UtteranceID)
	case ErrorReset:
		c.onErrorReset()
	case feedbackReady:
		c.onFeedbackReady(ctx, ev)
	}
}

// onTopicSelected is the one-way topic gate: the first selection seeds the
// greeting and enters speaking; later selections are ignored.
func (c *Controller) onTopicSelected(ctx context.Context, topic string) {
	topic = strings.TrimSpace(topic)
	if topic == "" || c.topic != "" {
		return
	}
	c.topic = topic

	greeting := fmt.Sprintf(greetingFormat, strings.ToLower(topic))
	c.appendMessage(Message{Role: RoleAssistant, Text: greeting})
	c.speak(ctx, greeting)
}

func (c *Controller) onCaptureToggled(ctx context.Context) {
	if c.topic == "" {
		return
	}
	switch c.phase {
	case PhaseListening:
		c.capture.Stop()
		c.setPhase(PhaseIdle)
	case PhaseIdle, PhaseSpeaking:
		if c.phase == PhaseSpeaking {
			// Re-arming interrupts narration outright.
			c.narrator.Cancel()
			c.utteranceID = ""
		}
		if err := c.capture.Start(ctx); err != nil {
			c.onCaptureFailed(ctx, speech.CodeOther)
			return
		}
		c.listenStartedAt = time.Now()
		c.setPhase(PhaseListening)
	case PhaseProcessing, PhaseError:
		// Processing keeps the one-request-in-flight guarantee; error
		// requires an external reset.
	}
}

func (c *Controller) onTranscriptFinal(ctx context.Context, text string) {
	if c.phase != PhaseListening {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		// A silent capture is a benign non-event.
		c.setPhase(PhaseIdle)
		c.obs.TurnOutcome(OutcomeEmpty)
		return
	}

	if !c.listenStartedAt.IsZero() {
		c.obs.StageLatency(StageListen, time.Since(c.listenStartedAt))
	}
	c.turnStartedAt = time.Now()

	// History is framed from the log as it stood before this transcript.
	history := toTurns(c.log.Window(c.cfg.HistoryWindow))
	c.appendMessage(Message{Role: RoleUser, Text: text})

	token := uuid.NewString()
	c.pendingTurn = token
	c.processStartedAt = time.Now()
	c.setPhase(PhaseProcessing)

	go func() {
		result := c.requestor.Request(ctx, text, history, c.topic)
		select {
		case c.self <- feedbackReady{token: token, result: result}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) onFeedbackReady(ctx context.Context, ev feedbackReady) {
	if ev.token != c.pendingTurn {
		return
	}
	c.pendingTurn = ""

	if !c.processStartedAt.IsZero() {
		c.obs.StageLatency(StageProcess, time.Since(c.processStartedAt))
	}
	if ev.result.Degraded {
		c.obs.TurnOutcome(OutcomeFallback)
	} else {
		c.obs.TurnOutcome(OutcomeCompleted)
	}

	c.appendMessage(Message{
		Role:        RoleAssistant,
		Text:        ev.result.FollowUpQuestion,
		Correction:  ev.result.Correction,
		Explanation: ev.result.Explanation,
	})
	c.speak(ctx, ev.result.FollowUpQuestion)
}

func (c *Controller) onCaptureFailed(ctx context.Context, code speech.ErrorCode) {
	if c.phase == PhaseError || c.phase == PhaseProcessing {
		return
	}

	switch speech.Classify(code) {
	case speech.OutcomeBlocked:
		c.capture.Stop()
		c.appendMessage(Message{Role: RoleAssistant, Text: micBlockedText})
		c.setPhase(PhaseError)
		c.obs.TurnOutcome(OutcomeBlocked)
	case speech.OutcomeNoSpeech:
		c.appendMessage(Message{Role: RoleAssistant, Text: noSpeechText})
		c.obs.TurnOutcome(OutcomeNoSpeech)
		if c.cfg.SpeakNoSpeechPrompt {
			c.speak(ctx, noSpeechText)
			return
		}
		// Intentionally silent: showing the prompt without audio is less
		// intrusive after a non-event.
		c.setPhase(PhaseIdle)
	default:
		c.appendMessage(Message{Role: RoleAssistant, Text: captureTroubleTxt})
		c.obs.TurnOutcome(OutcomeCaptureError)
		c.speak(ctx, captureTroubleTxt)
	}
}

func (c *Controller) onCaptureEnded() {
	if c.phase == PhaseListening {
		c.setPhase(PhaseIdle)
	}
}

func (c *Controller) onNarrationEnded(utteranceID string) {
	if utteranceID == "" || utteranceID != c.utteranceID {
		return
	}
	c.utteranceID = ""
	if c.phase != PhaseSpeaking {
		return
	}
	if !c.speakStartedAt.IsZero() {
		c.obs.StageLatency(StageSpeak, time.Since(c.speakStartedAt))
	}
	if !c.turnStartedAt.IsZero() {
		c.obs.StageLatency(StageTurnTotal, time.Since(c.turnStartedAt))
		c.turnStartedAt = time.Time{}
	}
	c.setPhase(PhaseIdle)
}

func (c *Controller) onErrorReset() {
	if c.phase == PhaseError {
		c.setPhase(PhaseIdle)
	}
}

// speak starts narration for text, superseding any live utterance. Empty text
// and narrator failures complete immediately: narration absence is never an
// error.
func (c *Controller) speak(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		c.setPhase(PhaseIdle)
		return
	}
	utt, err := c.narrator.Speak(ctx, text)
	if err != nil {
		c.setPhase(PhaseIdle)
		return
	}
	c.utteranceID = utt.ID
	c.speakStartedAt = time.Now()
	c.setPhase(PhaseSpeaking)
}

func (c *Controller) appendMessage(m Message) {
	stored := c.log.Append(m)
	c.notify.MessageAppended(stored)
}

func (c *Controller) setPhase(p Phase) {
	if p == c.phase {
		return
	}
	from := c.phase
	c.phase = p
	c.obs.PhaseTransition(from, p)
	c.notify.PhaseChanged(p)
}

// Phase returns the current phase. Only safe to call between Run iterations
// in tests or from the loop itself; the transport reads phase through the
// notifier instead.
func (c *Controller) Phase() Phase { return c.phase }

// Topic returns the selected topic, or empty before the gate has passed.
func (c *Controller) Topic() string { return c.topic }

// Messages returns a snapshot of the conversation log.
func (c *Controller) Messages() []Message { return c.log.Snapshot() }

func toTurns(msgs []Message) []feedback.Turn {
	out := make([]feedback.Turn, 0, len(msgs))
	for _, m := range msgs {
		role := feedback.RoleUser
		if m.Role == RoleAssistant {
			role = feedback.RoleAssistant
		}
		out = append(out, feedback.Turn{Role: role, Text: m.Text})
	}
	return out
}
