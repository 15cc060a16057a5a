package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/kitchen-stream/config"
	waitressapi "github.com/andreyxaxa/kitchen-stream/internal/controller/restapi/waitress"
	"github.com/andreyxaxa/kitchen-stream/internal/infrastructure/inventoryclient"
	infraredis "github.com/andreyxaxa/kitchen-stream/internal/infrastructure/redis"
	waitressuc "github.com/andreyxaxa/kitchen-stream/internal/usecase/waitress"
	"github.com/andreyxaxa/kitchen-stream/pkg/httpserver"
	"github.com/andreyxaxa/kitchen-stream/pkg/logger"
	"github.com/andreyxaxa/kitchen-stream/pkg/redisstream"
)

// RunWaitress starts the front-of-house ordering service.
func RunWaitress(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Event log
	eventLog, err := redisstream.New(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunWaitress - redisstream.New: %w", err))
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
	waitressUseCase := waitressuc.New(
		eventLog,
		publisher,
		inventoryRPC,
		cfg.MenuCache.TTL,
		cfg.Waitress.PollBlock,
		l,
	)

	// Warm the menu cache; the read path refreshes on demand if this fails.
	if _, err := waitressUseCase.RefreshMenu(ctx); err != nil {
		l.Warn("app - RunWaitress - menu warm-up failed: %v", err)
	}

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	waitressapi.NewRouter(httpServer.App, waitressUseCase, l)

	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - RunWaitress - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - RunWaitress - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - RunWaitress - httpServer.Shutdown: %w", err))
	}
}
