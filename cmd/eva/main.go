package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/englishpartner/eva/internal/config"
	"github.com/englishpartner/eva/internal/conversation"
	"github.com/englishpartner/eva/internal/feedback"
	"github.com/englishpartner/eva/internal/httpapi"
	"github.com/englishpartner/eva/internal/observability"
	"github.com/englishpartner/eva/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	var (
		engine    feedback.Engine
		configErr string
	)

	tryGemini := func() bool {
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return false
		}
		g, err := feedback.NewGeminiEngine(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("gemini engine init failed: %v", err)
		}
		engine = g
		log.Printf("feedback engine: gemini (%s)", cfg.GeminiModel)
		return true
	}

	switch cfg.FeedbackMode {
	case "gemini":
		if !tryGemini() {
			log.Fatalf("FEEDBACK_MODE=gemini but GEMINI_API_KEY is not set")
		}
	case "mock":
		engine = feedback.NewMockEngine()
		log.Printf("feedback engine: mock")
	case "auto":
		if !tryGemini() {
			// Serve the shell so the banner can explain what is missing, but
			// refuse to start conversations against a silently fake tutor.
			configErr = "GEMINI_API_KEY is not set; conversations are disabled"
			log.Printf("feedback engine: unavailable (%s)", configErr)
		}
	default:
		log.Fatalf("invalid FEEDBACK_MODE: %q (expected auto|gemini|mock)", cfg.FeedbackMode)
	}

	var requestor conversation.Requestor
	if engine != nil {
		requestor = feedback.NewRequestor(engine, cfg.FeedbackTimeout)
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	api := httpapi.New(cfg, sessions, requestor, metrics, configErr)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
