package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/kitchen-stream/config"
	inventoryapi "github.com/andreyxaxa/kitchen-stream/internal/controller/restapi/inventory"
	"github.com/andreyxaxa/kitchen-stream/internal/repo/persistent"
	inventoryuc "github.com/andreyxaxa/kitchen-stream/internal/usecase/inventory"
	"github.com/andreyxaxa/kitchen-stream/pkg/httpserver"
	"github.com/andreyxaxa/kitchen-stream/pkg/logger"
	"github.com/andreyxaxa/kitchen-stream/pkg/postgres"
)

// RunInventory starts the inventory service over the pooled transactional
// store.
func RunInventory(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository
	pg, err := postgres.New(
		cfg.PG.URL,
		postgres.MaxPoolSize(cfg.PG.PoolMax),
		postgres.AcquireTimeout(cfg.PG.AcquireTimeout),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunInventory - postgres.New: %w", err))
	}
	defer pg.Close()

	inventoryRepo := persistent.NewInventoryRepo(pg)

	if err := inventoryRepo.EnsureSchema(ctx); err != nil {
		l.Fatal(fmt.Errorf("app - RunInventory - inventoryRepo.EnsureSchema: %w", err))
	}

	// Use-Case
	inventoryUseCase := inventoryuc.New(inventoryRepo, l)

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	inventoryapi.NewRouter(httpServer.App, inventoryUseCase, l)

	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - RunInventory - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - RunInventory - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - RunInventory - httpServer.Shutdown: %w", err))
	}
}
