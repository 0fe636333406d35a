package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/VladPetriv/botapi/config"
	"github.com/VladPetriv/botapi/internal/service"
	"github.com/VladPetriv/botapi/pkg/botapi"
	"github.com/VladPetriv/botapi/pkg/logger"
	"github.com/VladPetriv/botapi/pkg/transport"
	"github.com/VladPetriv/botapi/pkg/worker"
)

// Run is used to start the application. It blocks until ctx is done or the
// update stream gives up.
func Run(ctx context.Context, cfg *config.Config, logger *logger.Logger) error {
	strategy, err := parseStrategy(cfg.Telegram.UpdateStrategy)
	if err != nil {
		return err
	}

	httpTransport, err := transport.New(transport.Kind(cfg.Telegram.Transport))
	if err != nil {
		return fmt.Errorf("create transport: %w", err)
	}

	client, err := botapi.New(botapi.Options{
		Token:     cfg.Telegram.BotToken,
		BaseURL:   cfg.Telegram.BaseURL,
		Transport: httpTransport,
		Logger:    logger,
	})
	if err != nil {
		_ = httpTransport.Close()
		return fmt.Errorf("create bot api client: %w", err)
	}
	defer func() {
		err := client.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("close bot api client")
		}
	}()

	me, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	logger.Info().Str("username", me.Username).Msg("bot api client is ready")

	services := service.Services{
		Echo: service.NewEcho(client, logger),
	}

	pool := worker.NewPool[*botapi.Dict](cfg.Telegram.WorkersCount, func(ctx context.Context, _ string, update *botapi.Dict) error {
		return services.Echo.HandleUpdate(ctx, update)
	}, logger)
	// In-flight replies are allowed to finish after shutdown starts.
	pool.Start(context.WithoutCancel(ctx))
	defer pool.Stop()

	stream := client.Updates(botapi.StreamOptions{
		Strategy:       strategy,
		PollTimeout:    cfg.Telegram.PollTimeoutDuration(),
		AllowedUpdates: []string{"message"},
	})

	return consume(ctx, stream, pool, logger)
}

func consume(ctx context.Context, stream *botapi.UpdateStream, pool *worker.Pool[*botapi.Dict], logger *logger.Logger) error {
	for {
		update, more, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info().Msg("shutting down")
				return nil
			}

			return fmt.Errorf("read updates: %w", err)
		}
		if !more {
			return nil
		}

		updateID, _ := update.Int64("update_id")

		err = pool.AddJob(ctx, strconv.FormatInt(updateID, 10), update)
		if err != nil {
			logger.Warn().Err(err).Int64("updateID", updateID).Msg("update was not handled before shutdown")
			return nil
		}
	}
}

func parseStrategy(value string) (botapi.Strategy, error) {
	switch strategy := botapi.Strategy(value); strategy {
	case botapi.StrategyBatch, botapi.StrategySingle:
		return strategy, nil
	default:
		return "", fmt.Errorf("unknown update strategy %q, %q or %q is expected", value, botapi.StrategyBatch, botapi.StrategySingle)
	}
}
