package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/VladPetriv/botapi/config"
	"github.com/VladPetriv/botapi/internal/app"
	"github.com/VladPetriv/botapi/pkg/logger"
)

func main() {
	cfg := config.Get()

	logger, err := logger.New(logger.Options{
		LogLevel:        cfg.Logger.LogLevel,
		LogFile:         cfg.Logger.LogFilename,
		PrettyLogOutput: cfg.Logger.PrettyLogOutput,
	})
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.Run(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("run app")
		stop()
		os.Exit(1)
	}
}
