package conversation

import "testing"

func TestLogAppendOnlyOrdering(t *testing.T) {
	l := NewLog()
	l.Append(Message{Role: RoleAssistant, Text: "one"})
	l.Append(Message{Role: RoleUser, Text: "two"})
	l.Append(Message{Role: RoleAssistant, Text: "three"})

	snap := l.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	for i, want := range []string{"one", "two", "three"} {
		if snap[i].Text != want {
			t.Fatalf("snap[%d].Text = %q, want %q", i, snap[i].Text, want)
		}
	}
}

func TestLogAppendTrimsAndStamps(t *testing.T) {
	l := NewLog()
	stored := l.Append(Message{Role: RoleAssistant, Text: "  hi  ", Correction: "  ", Explanation: " ok "})
	if stored.Text != "hi" {
		t.Fatalf("Text = %q, want trimmed", stored.Text)
	}
	if stored.Correction != "" {
		t.Fatalf("Correction = %q, want absent", stored.Correction)
	}
	if stored.Explanation != "ok" {
		t.Fatalf("Explanation = %q, want trimmed", stored.Explanation)
	}
	if stored.At.IsZero() {
		t.Fatalf("At not stamped")
	}
}

func TestLogWindowClampsToAvailable(t *testing.T) {
	l := NewLog()
	for _, text := range []string{"a", "b", "c"} {
		l.Append(Message{Role: RoleUser, Text: text})
	}

	if got := l.Window(2); len(got) != 2 || got[0].Text != "b" || got[1].Text != "c" {
		t.Fatalf("Window(2) = %v", got)
	}
	if got := l.Window(10); len(got) != 3 {
		t.Fatalf("Window(10) len = %d, want 3", len(got))
	}
	if got := l.Window(0); got != nil {
		t.Fatalf("Window(0) = %v, want nil", got)
	}
}

func TestLogSnapshotIsCopy(t *testing.T) {
	l := NewLog()
	l.Append(Message{Role: RoleUser, Text: "original"})
	snap := l.Snapshot()
	snap[0].Text = "mutated"
	if l.Snapshot()[0].Text != "original" {
		t.Fatalf("snapshot mutation leaked into log")
	}
}
