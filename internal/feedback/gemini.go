package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/englishpartner/eva/internal/reliability"
)

const (
	geminiRetryMax  = 1
	geminiRetryBase = 200 * time.Millisecond
	geminiRetryCap  = time.Second
)

var feedbackSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"correction": {
			Type:        genai.TypeString,
			Description: "The corrected version of the user's sentence. Should be null if the sentence is grammatically perfect.",
		},
		"explanation": {
			Type:        genai.TypeString,
			Description: "A brief, simple explanation of the mistake. If the sentence is perfect, this should be a short, positive encouragement.",
		},
		"followUpQuestion": {
			Type:        genai.TypeString,
			Description: "A friendly, open-ended question to continue the conversation.",
		},
	},
	Required: []string{"explanation", "followUpQuestion"},
}

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error)

// GeminiEngine completes feedback requests against the Gemini API with a
// structured JSON response schema.
type GeminiEngine struct {
	model    string
	generate generateFunc
}

func NewGeminiEngine(ctx context.Context, apiKey, model string) (*GeminiEngine, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiEngine{
		model: model,
		generate: func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
			resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
			if err != nil {
				return "", err
			}
			return resp.Text(), nil
		},
	}, nil
}

func (e *GeminiEngine) Complete(ctx context.Context, systemInstruction string, turns []Turn) (string, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.8),
		TopP:              genai.Ptr[float32](0.95),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    feedbackSchema,
	}

	var lastErr error
	for attempt := 0; attempt <= geminiRetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt-1, geminiRetryBase, geminiRetryCap)):
			}
		}

		text, err := e.generate(ctx, e.model, contents, cfg)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return "", errors.New("empty model reply")
			}
			return text, nil
		}
		lastErr = err
		if !retryableGeminiError(err) {
			break
		}
	}
	return "", lastErr
}

func retryableGeminiError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return reliability.IsRetryableHTTPStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return reliability.IsRetryableHTTPStatus(apiErrPtr.Code)
	}
	return false
}
