package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubEngine struct {
	reply string
	err   error

	gotSystem string
	gotTurns  []Turn
}

func (e *stubEngine) Complete(_ context.Context, systemInstruction string, turns []Turn) (string, error) {
	e.gotSystem = systemInstruction
	e.gotTurns = turns
	return e.reply, e.err
}

func TestRequestNormalizesReply(t *testing.T) {
	engine := &stubEngine{reply: `{"correction":"I went to the store yesterday.","explanation":"Past tense of go is went.","followUpQuestion":"What did you buy?"}`}
	r := NewRequestor(engine, time.Second)

	res := r.Request(context.Background(), "I go to store yesterday", nil, "General Chat")
	if res.Degraded {
		t.Fatalf("result degraded, want normal")
	}
	if res.Correction != "I went to the store yesterday." {
		t.Fatalf("Correction = %q", res.Correction)
	}
	if res.Explanation == "" || res.FollowUpQuestion == "" {
		t.Fatalf("missing required fields: %+v", res)
	}
}

func TestRequestNormalizesEmptyCorrectionToAbsent(t *testing.T) {
	engine := &stubEngine{reply: `{"correction":"   ","explanation":"Great sentence!","followUpQuestion":"Where would you travel next?"}`}
	r := NewRequestor(engine, time.Second)

	res := r.Request(context.Background(), "I love traveling.", nil, "Travel")
	if res.Correction != "" {
		t.Fatalf("Correction = %q, want absent", res.Correction)
	}
	if res.Degraded {
		t.Fatalf("result degraded, want normal")
	}
}

func TestRequestFallsBackOnEngineError(t *testing.T) {
	engine := &stubEngine{err: errors.New("upstream rejected")}
	r := NewRequestor(engine, time.Second)

	res := r.Request(context.Background(), "hello", nil, "Food")
	assertFallback(t, res)
}

func TestRequestFallsBackOnMalformedReply(t *testing.T) {
	engine := &stubEngine{reply: `{"correction":`}
	r := NewRequestor(engine, time.Second)
	assertFallback(t, r.Request(context.Background(), "hello", nil, "Food"))
}

func TestRequestFallsBackOnMissingRequiredFields(t *testing.T) {
	cases := []string{
		`{"correction":"x","explanation":"","followUpQuestion":"y"}`,
		`{"correction":"x","explanation":"ok"}`,
		`{}`,
	}
	for _, reply := range cases {
		engine := &stubEngine{reply: reply}
		r := NewRequestor(engine, time.Second)
		assertFallback(t, r.Request(context.Background(), "hello", nil, "Work"))
	}
}

func TestRequestFramesTopicAndTranscript(t *testing.T) {
	engine := &stubEngine{reply: `{"explanation":"ok","followUpQuestion":"next?"}`}
	r := NewRequestor(engine, time.Second)

	history := []Turn{
		{Role: RoleAssistant, Text: "Great, let's talk about travel!"},
		{Role: RoleUser, Text: "I like trains"},
		{Role: RoleAssistant, Text: "Where do trains take you?"},
	}
	r.Request(context.Background(), "they take me home", history, "Travel")

	if !strings.Contains(engine.gotSystem, `"Travel"`) {
		t.Fatalf("system instruction missing topic: %q", engine.gotSystem)
	}
	if len(engine.gotTurns) == 0 {
		t.Fatalf("no turns framed")
	}
	if first := engine.gotTurns[0]; first.Role != RoleUser {
		t.Fatalf("first framed turn role = %q, want user", first.Role)
	}
	if last := engine.gotTurns[len(engine.gotTurns)-1]; last.Role != RoleUser || last.Text != "they take me home" {
		t.Fatalf("last framed turn = %+v, want current transcript", last)
	}
}

func TestFrameHistoryDropsLeadingAssistantTurns(t *testing.T) {
	history := []Turn{
		{Role: RoleAssistant, Text: "greeting"},
		{Role: RoleAssistant, Text: "sorry, say again?"},
		{Role: RoleUser, Text: "hello"},
		{Role: RoleAssistant, Text: "hi there"},
	}
	framed := frameHistory(history)
	if len(framed) != 2 {
		t.Fatalf("framed %d turns, want 2", len(framed))
	}
	if framed[0].Role != RoleUser {
		t.Fatalf("framed history starts with %q, want user", framed[0].Role)
	}
}

func TestFrameHistoryEmptyAndShort(t *testing.T) {
	if got := frameHistory(nil); len(got) != 0 {
		t.Fatalf("frameHistory(nil) = %v, want empty", got)
	}
	onlyAssistant := []Turn{{Role: RoleAssistant, Text: "greeting"}}
	if got := frameHistory(onlyAssistant); len(got) != 0 {
		t.Fatalf("frameHistory(assistant-only) = %v, want empty", got)
	}
}

func TestFallbackAlwaysSpeakable(t *testing.T) {
	res := Fallback()
	if res.Explanation == "" || res.FollowUpQuestion == "" {
		t.Fatalf("fallback missing narration text: %+v", res)
	}
	if res.Correction != "" {
		t.Fatalf("fallback carries a correction: %q", res.Correction)
	}
	if !res.Degraded {
		t.Fatalf("fallback not marked degraded")
	}
}

func assertFallback(t *testing.T, res Result) {
	t.Helper()
	if !res.Degraded {
		t.Fatalf("result = %+v, want degraded fallback", res)
	}
	if res.Correction != "" {
		t.Fatalf("fallback Correction = %q, want absent", res.Correction)
	}
	if res.Explanation == "" || res.FollowUpQuestion == "" {
		t.Fatalf("fallback missing required fields: %+v", res)
	}
}
