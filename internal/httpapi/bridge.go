package httpapi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/englishpartner/eva/internal/conversation"
	"github.com/englishpartner/eva/internal/observability"
	"github.com/englishpartner/eva/internal/protocol"
	"github.com/englishpartner/eva/internal/speech"
)

// wsBridge is the server-side half of the browser speech engines. Capture and
// narration commands become protocol messages on the outbound queue; the
// browser reports results back as events. It also pushes conversation state
// and messages to the client.
type wsBridge struct {
	sessionID string
	outbound  chan<- any
	metrics   *observability.Metrics
	lang      string
	markers   []string

	mu     sync.Mutex
	voices []speech.Voice
	topic  string
}

func newWSBridge(sessionID, topic string, outbound chan<- any, metrics *observability.Metrics, lang string, markers []string) *wsBridge {
	return &wsBridge{
		sessionID: sessionID,
		outbound:  outbound,
		metrics:   metrics,
		lang:      lang,
		markers:   markers,
		topic:     topic,
	}
}

var errOutboundFull = errors.New("outbound queue full")

// send enqueues one message for the writer goroutine. Writes stay
// single-threaded; when the queue is saturated the message is dropped and
// counted rather than blocking the conversation loop.
func (b *wsBridge) send(msgType protocol.MessageType, msg any) bool {
	select {
	case b.outbound <- msg:
		b.metrics.ObserveOutboundMessage(string(msgType), "queued")
		return true
	default:
		b.metrics.ObserveOutboundMessage(string(msgType), "drop_full")
		return false
	}
}

func (b *wsBridge) Start(_ context.Context) error {
	ok := b.send(protocol.TypeCaptureStart, protocol.CaptureCommand{
		Type:      protocol.TypeCaptureStart,
		SessionID: b.sessionID,
		Lang:      b.lang,
	})
	if !ok {
		return errOutboundFull
	}
	return nil
}

func (b *wsBridge) Stop() {
	b.send(protocol.TypeCaptureStop, protocol.CaptureCommand{
		Type:      protocol.TypeCaptureStop,
		SessionID: b.sessionID,
	})
}

func (b *wsBridge) Speak(_ context.Context, text string) (speech.Utterance, error) {
	utt := speech.Utterance{ID: uuid.NewString(), Text: text}
	ok := b.send(protocol.TypeSpeak, protocol.Speak{
		Type:        protocol.TypeSpeak,
		SessionID:   b.sessionID,
		UtteranceID: utt.ID,
		Text:        text,
		Voice:       b.chooseVoice(),
		Lang:        b.lang,
	})
	if !ok {
		return speech.Utterance{}, errOutboundFull
	}
	return utt, nil
}

func (b *wsBridge) Cancel() {
	b.send(protocol.TypeNarrationCancel, protocol.NarrationCancel{
		Type:      protocol.TypeNarrationCancel,
		SessionID: b.sessionID,
	})
}

func (b *wsBridge) PhaseChanged(phase conversation.Phase) {
	b.mu.Lock()
	topic := b.topic
	b.mu.Unlock()
	b.send(protocol.TypeState, protocol.StateUpdate{
		Type:      protocol.TypeState,
		SessionID: b.sessionID,
		Phase:     string(phase),
		Topic:     topic,
	})
}

func (b *wsBridge) MessageAppended(msg conversation.Message) {
	b.send(protocol.TypeMessage, protocol.MessageAppended{
		Type:        protocol.TypeMessage,
		SessionID:   b.sessionID,
		Role:        string(msg.Role),
		Text:        msg.Text,
		Correction:  msg.Correction,
		Explanation: msg.Explanation,
		TSMs:        msg.At.UnixMilli(),
	})
}

// setVoices stores the synthesis voices the client reported. Narration picks
// from this list on every Speak so late voice reports still take effect.
func (b *wsBridge) setVoices(reported []protocol.ReportedVoice) {
	voices := make([]speech.Voice, 0, len(reported))
	for _, v := range reported {
		voices = append(voices, speech.Voice{Name: v.Name, Lang: v.Lang, Default: v.Default})
	}
	b.mu.Lock()
	b.voices = voices
	b.mu.Unlock()
}

func (b *wsBridge) setTopic(topic string) {
	b.mu.Lock()
	b.topic = topic
	b.mu.Unlock()
}

func (b *wsBridge) chooseVoice() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return speech.ChooseVoice(b.voices, b.lang, b.markers)
}

// metricsObserver feeds controller signals into Prometheus and the rolling
// stage window.
type metricsObserver struct {
	metrics *observability.Metrics
}

func (o metricsObserver) PhaseTransition(from, to conversation.Phase) {
	o.metrics.PhaseTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func (o metricsObserver) TurnOutcome(outcome string) {
	o.metrics.TurnOutcomes.WithLabelValues(outcome).Inc()
}

func (o metricsObserver) StageLatency(stage string, d time.Duration) {
	o.metrics.ObserveStage(stage, d)
}
