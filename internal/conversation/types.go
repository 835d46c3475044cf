package conversation

import (
	"strings"
	"sync"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Phase is the current state of the turn machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseListening  Phase = "listening"
	PhaseProcessing Phase = "processing"
	PhaseSpeaking   Phase = "speaking"
	PhaseError      Phase = "error"
)

// Message is one immutable turn of the conversation. Correction and
// Explanation are set only on assistant messages; an absent correction is the
// empty string, never a present-but-empty value.
type Message struct {
	Role        Role      `json:"role"`
	Text        string    `json:"text"`
	Correction  string    `json:"correction,omitempty"`
	Explanation string    `json:"explanation,omitempty"`
	At          time.Time `json:"at"`
}

// Log is the append-only, insertion-ordered message log for one conversation.
// Messages are never mutated or removed; the log lives and dies with the
// session.
type Log struct {
	mu       sync.RWMutex
	messages []Message
}

func NewLog() *Log { return &Log{} }

// Append stamps and stores the message, returning the stored copy.
func (l *Log) Append(m Message) Message {
	m.Text = strings.TrimSpace(m.Text)
	m.Correction = strings.TrimSpace(m.Correction)
	m.Explanation = strings.TrimSpace(m.Explanation)
	m.At = time.Now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, m)
	return m
}

// Window returns up to the last n messages, oldest first.
func (l *Log) Window(n int) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	start := len(l.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(l.messages)-start)
	copy(out, l.messages[start:])
	return out
}

// Snapshot returns a copy of the full log.
func (l *Log) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
