package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the Eva practice service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	FeedbackMode    string
	GeminiAPIKey    string
	GeminiModel     string
	FeedbackTimeout time.Duration
	HistoryWindow   int

	// SpeakNoSpeechPrompt controls whether the "I didn't catch that" prompt is
	// narrated or only shown as text.
	SpeakNoSpeechPrompt bool

	TargetLanguage        string
	PreferredVoiceMarkers []string

	AssetCacheGeneration string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "eva"),
		AllowAnyOrigin:   false,
		FeedbackMode:     strings.ToLower(envOrDefault("FEEDBACK_MODE", "auto")),
		GeminiAPIKey:     envTrimmed("GEMINI_API_KEY"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		TargetLanguage:   envOrDefault("TARGET_LANGUAGE", "en"),
		// Markers favor the warm voices the web speech engines usually expose.
		PreferredVoiceMarkers:    splitCSV(envOrDefault("PREFERRED_VOICE_MARKERS", "Female,Eva,Zira,Google US English")),
		AssetCacheGeneration:     envOrDefault("ASSET_CACHE_GENERATION", "v1"),
		FeedbackTimeout:          20 * time.Second,
		HistoryWindow:            4,
		SpeakNoSpeechPrompt:      false,
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 10 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.FeedbackTimeout, err = durationFromEnv("FEEDBACK_TIMEOUT", cfg.FeedbackTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryWindow, err = intFromEnv("HISTORY_WINDOW", cfg.HistoryWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.SpeakNoSpeechPrompt, err = boolFromEnv("SPEAK_NO_SPEECH_PROMPT", cfg.SpeakNoSpeechPrompt)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	switch cfg.FeedbackMode {
	case "auto", "gemini", "mock":
	default:
		return Config{}, fmt.Errorf("FEEDBACK_MODE must be auto, gemini or mock, got %q", cfg.FeedbackMode)
	}
	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.FeedbackTimeout <= 0 {
		return Config{}, fmt.Errorf("FEEDBACK_TIMEOUT must be positive")
	}
	if cfg.HistoryWindow <= 0 {
		return Config{}, fmt.Errorf("HISTORY_WINDOW must be positive")
	}
	if strings.TrimSpace(cfg.GeminiModel) == "" {
		return Config{}, fmt.Errorf("GEMINI_MODEL must not be empty")
	}
	if strings.TrimSpace(cfg.TargetLanguage) == "" {
		return Config{}, fmt.Errorf("TARGET_LANGUAGE must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
