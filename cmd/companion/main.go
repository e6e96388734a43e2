// Package main boots the MindMate companion service and wires application dependencies.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/easeaico/mindmate/internal/agent"
	"github.com/easeaico/mindmate/internal/background"
	"github.com/easeaico/mindmate/internal/config"
	"github.com/easeaico/mindmate/internal/emotion"
	"github.com/easeaico/mindmate/internal/insight"
	"github.com/easeaico/mindmate/internal/memory"
	"github.com/easeaico/mindmate/internal/models"
	"github.com/easeaico/mindmate/internal/repository"
	"github.com/easeaico/mindmate/internal/server"
	"github.com/easeaico/mindmate/internal/voice"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	slog.Info("slog logger initialized", "level", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.Info("configuration loaded", "openai_model", cfg.OpenAIModel, "gemini_model", cfg.GeminiModel, "hosted_model", cfg.HostedModel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	registry := models.NewRegistry(ctx, &cfg)
	slog.Info("provider registry ready", "current", registry.Current())

	var embedder memory.Embedder
	if cfg.GoogleAPIKey != "" {
		genaiEmbedder, err := memory.NewGenAIEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
		if err != nil {
			slog.Warn("embeddings disabled", "error", err.Error())
		} else {
			embedder = genaiEmbedder
		}
	}
	memoryService := memory.NewService(store.Memories, store.Records, embedder, cfg.TopK, cfg.SimilarityThreshold)

	deps := agent.Deps{
		Sessions:     store.Sessions,
		Permissions:  store.Permissions,
		Memory:       memoryService,
		Generator:    models.NewGenerator(registry, nil),
		Sentiment:    emotion.NewAnalyzerFromRegistry(registry),
		Insights:     insight.NewGenerator(registry),
		Tasks:        background.NewRunner(cfg.ProviderTimeout * 2),
		HistoryLimit: cfg.HistoryLimit,
	}

	var transcriber server.Transcriber
	if cfg.OpenAIAPIKey != "" {
		voiceService, err := voice.NewService(voice.Options{
			APIKey:          cfg.OpenAIAPIKey,
			TTSModel:        cfg.TTSModel,
			Voice:           cfg.TTSVoice,
			TranscribeModel: cfg.TranscribeModel,
		})
		if err != nil {
			slog.Warn("voice disabled", "error", err.Error())
		} else {
			deps.Voice = voiceService
			transcriber = voiceService
		}
	}

	manager := agent.NewManager(deps)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(manager, registry, transcriber),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.HTTPAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server shutdown failed", "error", err.Error())
	}

	manager.DisposeAll()
	deps.Tasks.Wait()
	slog.Info("companion shutdown complete")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
