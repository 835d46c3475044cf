package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// Engine is the raw inference boundary: it turns a system instruction plus
// role-tagged turns into one structured JSON reply.
type Engine interface {
	Complete(ctx context.Context, systemInstruction string, turns []Turn) (string, error)
}

// Requestor frames a transcript plus bounded history into one inference call
// and normalizes the reply. Request never fails: every transport, schema or
// parse problem degrades to the fixed fallback result.
type Requestor struct {
	engine  Engine
	timeout time.Duration
}

func NewRequestor(engine Engine, timeout time.Duration) *Requestor {
	return &Requestor{engine: engine, timeout: timeout}
}

// Request performs one feedback call for the given transcript. history is the
// rolling window of messages preceding the transcript, oldest first.
func (r *Requestor) Request(ctx context.Context, transcript string, history []Turn, topic string) Result {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	turns := append(frameHistory(history), Turn{Role: RoleUser, Text: transcript})
	raw, err := r.engine.Complete(ctx, systemInstruction(topic), turns)
	if err != nil {
		log.Printf("feedback request failed, using fallback: %v", err)
		return Fallback()
	}

	result, err := parseReply(raw)
	if err != nil {
		log.Printf("feedback reply rejected, using fallback: %v", err)
		return Fallback()
	}
	return result
}

// frameHistory drops leading assistant turns (such as the topic greeting):
// the remote protocol requires the first history item to be user-authored.
func frameHistory(history []Turn) []Turn {
	start := 0
	for start < len(history) && history[start].Role == RoleAssistant {
		start++
	}
	out := make([]Turn, 0, len(history)-start)
	for _, t := range history[start:] {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func systemInstruction(topic string) string {
	return fmt.Sprintf(`You are Eva, an expert English language tutor. Your goal is to help a user practice their spoken English.
The current conversation topic is %q.
1.  Analyze the user's most recent response for any grammatical errors, awkward phrasing, or mistakes.
2.  If there are errors, provide a corrected version of their sentence and a brief, simple explanation of the correction. Frame feedback positively.
3.  If their response is grammatically perfect, praise them with a short encouragement. Do not provide a correction if none is needed (correction should be null).
4.  ALWAYS ask a natural, follow-up question that is relevant to the topic of %s to keep the conversation flowing.
5.  Keep all your responses concise and friendly.
6.  Your entire response MUST be in JSON format, adhering to the provided schema.`, topic, topic)
}

type rawReply struct {
	Correction       string `json:"correction"`
	Explanation      string `json:"explanation"`
	FollowUpQuestion string `json:"followUpQuestion"`
}

func parseReply(raw string) (Result, error) {
	var reply rawReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &reply); err != nil {
		return Result{}, fmt.Errorf("malformed reply: %w", err)
	}

	explanation := strings.TrimSpace(reply.Explanation)
	followUp := strings.TrimSpace(reply.FollowUpQuestion)
	if explanation == "" {
		return Result{}, fmt.Errorf("reply missing required explanation")
	}
	if followUp == "" {
		return Result{}, fmt.Errorf("reply missing required followUpQuestion")
	}

	// An empty-string correction means "no correction needed".
	return Result{
		Correction:       strings.TrimSpace(reply.Correction),
		Explanation:      explanation,
		FollowUpQuestion: followUp,
	}, nil
}
