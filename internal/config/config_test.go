package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.FeedbackMode != "auto" {
		t.Fatalf("FeedbackMode = %q, want %q", cfg.FeedbackMode, "auto")
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Fatalf("GeminiModel = %q, want default flash model", cfg.GeminiModel)
	}
	if cfg.HistoryWindow != 4 {
		t.Fatalf("HistoryWindow = %d, want 4", cfg.HistoryWindow)
	}
	if cfg.SpeakNoSpeechPrompt {
		t.Fatalf("SpeakNoSpeechPrompt = true, want false default")
	}
	if cfg.FeedbackTimeout != 20*time.Second {
		t.Fatalf("FeedbackTimeout = %v, want 20s", cfg.FeedbackTimeout)
	}
	if len(cfg.PreferredVoiceMarkers) == 0 {
		t.Fatalf("PreferredVoiceMarkers is empty, want defaults")
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("FEEDBACK_MODE", "mock")
	t.Setenv("HISTORY_WINDOW", "6")
	t.Setenv("SPEAK_NO_SPEECH_PROMPT", "yes")
	t.Setenv("PREFERRED_VOICE_MARKERS", " Victoria , Karen ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.FeedbackMode != "mock" {
		t.Fatalf("FeedbackMode = %q, want %q", cfg.FeedbackMode, "mock")
	}
	if cfg.HistoryWindow != 6 {
		t.Fatalf("HistoryWindow = %d, want 6", cfg.HistoryWindow)
	}
	if !cfg.SpeakNoSpeechPrompt {
		t.Fatalf("SpeakNoSpeechPrompt = false, want true")
	}
	if len(cfg.PreferredVoiceMarkers) != 2 || cfg.PreferredVoiceMarkers[0] != "Victoria" || cfg.PreferredVoiceMarkers[1] != "Karen" {
		t.Fatalf("PreferredVoiceMarkers = %v, want trimmed pair", cfg.PreferredVoiceMarkers)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad feedback mode", key: "FEEDBACK_MODE", value: "wat"},
		{name: "non-positive history window", key: "HISTORY_WINDOW", value: "0"},
		{name: "bad bool", key: "SPEAK_NO_SPEECH_PROMPT", value: "maybe"},
		{name: "bad duration", key: "FEEDBACK_TIMEOUT", value: "soon"},
		{name: "tiny inactivity timeout", key: "APP_SESSION_INACTIVITY_TIMEOUT", value: "1s"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() accepted %s=%q, want error", tc.key, tc.value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"FEEDBACK_MODE",
		"GEMINI_API_KEY",
		"GEMINI_MODEL",
		"FEEDBACK_TIMEOUT",
		"HISTORY_WINDOW",
		"SPEAK_NO_SPEECH_PROMPT",
		"TARGET_LANGUAGE",
		"PREFERRED_VOICE_MARKERS",
		"ASSET_CACHE_GENERATION",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
