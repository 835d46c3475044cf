package feedback

// Role tags one turn of framed conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged history item sent to the inference boundary.
type Turn struct {
	Role Role
	Text string
}

// Result is the normalized outcome of one feedback request. Explanation and
// FollowUpQuestion are always populated, even on the degraded fallback, so a
// completed turn always has narration text. An absent correction is the empty
// string; a non-empty correction is the full corrected sentence.
type Result struct {
	Correction       string
	Explanation      string
	FollowUpQuestion string

	// Degraded marks the fixed fallback produced when the boundary failed.
	Degraded bool
}

// Fallback is the fixed degraded result used when the inference boundary
// fails in any way. The dialogue always continues.
func Fallback() Result {
	return Result{
		Explanation:      "I seem to be having trouble connecting. Let's try that again.",
		FollowUpQuestion: "Can you please repeat what you said?",
		Degraded:         true,
	}
}
