package session

import (
	"errors"
	"testing"
	"time"
)

func TestCreateAndGet(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create()
	if s.ID == "" || s.Status != StatusActive {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.Topic != "" {
		t.Fatalf("new session has topic %q, want empty", s.Topic)
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != s.ID {
		t.Fatalf("Get() = %+v", got)
	}

	if _, err := m.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestSetTopicIsWriteOnce(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create()

	if err := m.SetTopic(s.ID, "Travel"); err != nil {
		t.Fatalf("SetTopic() error = %v", err)
	}
	if err := m.SetTopic(s.ID, "Food"); !errors.Is(err, ErrTopicSet) {
		t.Fatalf("second SetTopic() error = %v, want ErrTopicSet", err)
	}

	got, _ := m.Get(s.ID)
	if got.Topic != "Travel" {
		t.Fatalf("Topic = %q, want Travel", got.Topic)
	}
}

func TestSetTopicValidation(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create()
	if err := m.SetTopic(s.ID, "   "); err == nil {
		t.Fatalf("SetTopic accepted blank topic")
	}
	if err := m.SetTopic("nope", "Travel"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetTopic(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestEnd(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create()

	ended, err := m.End(s.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if ended.Status != StatusEnded {
		t.Fatalf("Status = %q, want ended", ended.Status)
	}
	if m.ActiveCount() != 0 {
		t.Fatalf("ActiveCount = %d, want 0", m.ActiveCount())
	}
}

func TestExpireInactiveFiresHook(t *testing.T) {
	m := NewManager(5 * time.Second)
	s := m.Create()

	var expired []*Session
	m.SetExpireHook(func(s *Session) { expired = append(expired, s) })

	m.mu.Lock()
	m.sessions[s.ID].LastActivityAt = time.Now().UTC().Add(-time.Minute)
	m.mu.Unlock()

	m.expireInactive()

	if len(expired) != 1 || expired[0].ID != s.ID {
		t.Fatalf("expired = %+v, want one session", expired)
	}
	got, _ := m.Get(s.ID)
	if got.Status != StatusEnded {
		t.Fatalf("Status = %q, want ended", got.Status)
	}
}

func TestTouchKeepsSessionAlive(t *testing.T) {
	m := NewManager(5 * time.Second)
	s := m.Create()

	m.mu.Lock()
	m.sessions[s.ID].LastActivityAt = time.Now().UTC().Add(-time.Minute)
	m.mu.Unlock()

	if err := m.Touch(s.ID); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	m.expireInactive()

	got, _ := m.Get(s.ID)
	if got.Status != StatusActive {
		t.Fatalf("Status = %q, want active after touch", got.Status)
	}
}
