package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

type Runner func(ctx context.Context, logger zerolog.Logger) error

// Run wraps a service entrypoint with signal handling and returns the
// process exit code.
func Run(serviceName string, run Runner) int {
	logger := zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	logger.Info().Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, logger) }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		// ждем, пока runner закроет коннекты, но не бесконечно
		select {
		case err := <-errCh:
			if err != nil && !isShutdownErr(err) {
				logger.Error().Err(err).Msg("shutdown error")
				return 1
			}
		case <-time.After(10 * time.Second):
			logger.Warn().Msg("shutdown grace period expired")
		}
		return 0
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("failed")
			return 1
		}
		logger.Info().Msg("stopped")
		return 0
	}
}

func isShutdownErr(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
