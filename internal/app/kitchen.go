package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/kitchen-stream/config"
	"github.com/andreyxaxa/kitchen-stream/internal/controller/stream"
	"github.com/andreyxaxa/kitchen-stream/internal/events"
	"github.com/andreyxaxa/kitchen-stream/internal/infrastructure/inventoryclient"
	infraredis "github.com/andreyxaxa/kitchen-stream/internal/infrastructure/redis"
	"github.com/andreyxaxa/kitchen-stream/internal/usecase/kitchen"
	"github.com/andreyxaxa/kitchen-stream/pkg/logger"
	"github.com/andreyxaxa/kitchen-stream/pkg/redisstream"
)

// RunKitchen starts the kitchen fulfillment worker: the waitress-stream
// consumer loop feeding the order orchestrator.
func RunKitchen(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Event log
	eventLog, err := redisstream.New(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunKitchen - redisstream.New: %w", err))
	}
	defer eventLog.Close()

	publisher := infraredis.NewEventPublisher(eventLog)

	// Inventory RPC client
	inventoryRPC := inventoryclient.New(
		cfg.Inventory.BaseURL,
		cfg.Inventory.RetryMax,
		cfg.Inventory.RetryWaitMin,
		cfg.Inventory.RetryWaitMax,
		l,
	)

	// Use-Case
	orderUseCase := kitchen.New(inventoryRPC, publisher, l)

	// Consumer Loop
	consumer := stream.New(
		eventLog,
		publisher,
		orderUseCase,
		l,
		events.WaitressOrderStream,
		events.KitchenDeadStream,
		events.KitchenCheckpointKey,
		cfg.Consumer,
	)

	if err := consumer.Start(ctx); err != nil {
		l.Fatal(fmt.Errorf("app - RunKitchen - consumer.Start: %w", err))
	}

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	s := <-interrupt
	l.Info("app - RunKitchen - signal: %s", s.String())

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Consumer.ShutdownTimeout)
	defer shutdownCancel()

	if err := consumer.Shutdown(shutdownCtx); err != nil {
		l.Error(fmt.Errorf("app - RunKitchen - consumer.Shutdown: %w", err))
	}
}
