package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confidant-ai/confidant/internal/api"
	"github.com/confidant-ai/confidant/internal/config"
	"github.com/confidant-ai/confidant/internal/llm"
	"github.com/confidant-ai/confidant/internal/platform/factory"
	"github.com/confidant-ai/confidant/internal/platform/logger"
	"github.com/confidant-ai/confidant/internal/timex"
)

func main() {
	log := logger.New("confidant-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("confidant service starting")

	st, err := factory.NewStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store adapter unavailable")
	}
	defer func() { _ = st.Close() }()

	router := api.NewRouter(api.Deps{
		Store:               st,
		Normalizer:          timex.NewNormalizer(timex.SystemClock{}, cfg.Location()),
		VisionLLM:           llm.NewOpenAI(cfg.VisionAPIKey, cfg.VisionAPIBase, cfg.VisionModel),
		ChatLLM:             llm.NewOpenAI(cfg.ChatAPIKey, cfg.ChatAPIBase, cfg.ChatModel),
		AssistMaxRounds:     cfg.AssistMaxRounds,
		ContextInsightCount: cfg.ContextInsightCount,
		Log:                 log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // analysis and assist calls are slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
