package feedback

import "context"

// MockEngine is the keyless development engine. It always praises the user
// and asks a fixed follow-up, exercising the same normalization path as the
// real boundary (including the empty-correction convention).
type MockEngine struct{}

func NewMockEngine() *MockEngine { return &MockEngine{} }

func (e *MockEngine) Complete(_ context.Context, _ string, _ []Turn) (string, error) {
	return `{"correction":"","explanation":"Nice phrasing! Keep going.","followUpQuestion":"What happened next?"}`, nil
}
