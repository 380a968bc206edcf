package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients/openai"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients/ytdlp"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/httpapi"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/llm"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/service"
	pg "github.com/romariotrain/clip-pipeline/internal/storage/postgres"
)

func run(ctx context.Context, logger zerolog.Logger) error {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is empty")
	}

	db, err := pg.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	genClient, err := openai.New(openai.Config{
		APIKey:  apiKey,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   envStr("OPENAI_MODEL", "gpt-4o-mini"),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("openai client: %w", err)
	}

	orch, err := llm.NewOrchestrator(llm.Config{Client: genClient, Logger: logger})
	if err != nil {
		return fmt.Errorf("llm orchestrator: %w", err)
	}
	defer orch.Close()

	source, err := ytdlp.New(ytdlp.Config{
		WorkDir: envStr("WORK_DIR", "data/work"),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("ytdlp client: %w", err)
	}
	if err := source.CheckDependencies(); err != nil {
		// API работает и без бинаря, недоступен только POST /discover
		logger.Warn().Err(err).Msg("discovery disabled")
	}

	// Dependencies
	repo := pg.NewJobRepo(db)
	svc := service.New(repo, source, orch, logger)
	router := httpapi.NewRouter(httpapi.New(svc))

	srv := &http.Server{
		Addr:              envStr("HTTP_ADDR", ":8081"),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
