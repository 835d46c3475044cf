package speech

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockCapture records start/stop commands for controller tests.
type MockCapture struct {
	mu        sync.Mutex
	active    bool
	starts    int
	stops     int
	startErr  error
	lastStart context.Context
}

func NewMockCapture() *MockCapture { return &MockCapture{} }

func (c *MockCapture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.active = true
	c.starts++
	c.lastStart = ctx
	return nil
}

func (c *MockCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	c.stops++
}

func (c *MockCapture) FailStarts(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startErr = err
}

func (c *MockCapture) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *MockCapture) Starts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

func (c *MockCapture) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

// MockNarrator records spoken utterances and cancellations.
type MockNarrator struct {
	mu        sync.Mutex
	spoken    []Utterance
	cancels   int
	speakErr  error
	nextID    func() string
	lastSpeak Utterance
}

func NewMockNarrator() *MockNarrator {
	return &MockNarrator{nextID: uuid.NewString}
}

func (n *MockNarrator) Speak(_ context.Context, text string) (Utterance, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.speakErr != nil {
		return Utterance{}, n.speakErr
	}
	utt := Utterance{ID: n.nextID(), Text: text}
	n.spoken = append(n.spoken, utt)
	n.lastSpeak = utt
	return utt, nil
}

func (n *MockNarrator) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancels++
}

func (n *MockNarrator) FailSpeaks(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.speakErr = err
}

func (n *MockNarrator) Spoken() []Utterance {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Utterance, len(n.spoken))
	copy(out, n.spoken)
	return out
}

func (n *MockNarrator) Last() (Utterance, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastSpeak, n.lastSpeak.ID != ""
}

func (n *MockNarrator) Cancels() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cancels
}
