// Package waitress implements the front-of-house use-case: menu reads with a
// read-through cache, order placement and kitchen outcome polling.
package waitress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andreyxaxa/kitchen-stream/internal/dto"
	"github.com/andreyxaxa/kitchen-stream/internal/entity"
	"github.com/andreyxaxa/kitchen-stream/internal/events"
	"github.com/andreyxaxa/kitchen-stream/internal/infrastructure"
	"github.com/andreyxaxa/kitchen-stream/pkg/logger"
	"github.com/andreyxaxa/kitchen-stream/pkg/redisstream"
	"github.com/andreyxaxa/kitchen-stream/pkg/types/errs"
)

type UseCase struct {
	log       infrastructure.EventLog
	publisher infrastructure.EventPublisher
	inventory infrastructure.InventoryClient

	menuTTL   time.Duration
	pollBlock time.Duration

	logger logger.Interface
}

func New(
	log infrastructure.EventLog,
	publisher infrastructure.EventPublisher,
	inventory infrastructure.InventoryClient,
	menuTTL time.Duration,
	pollBlock time.Duration,
	l logger.Interface,
) *UseCase {
	return &UseCase{
		log:       log,
		publisher: publisher,
		inventory: inventory,
		menuTTL:   menuTTL,
		pollBlock: pollBlock,
		logger:    l,
	}
}

// GetMenu serves the menu from the cache, refreshing it from the inventory
// service on a miss. A cache entry that fails to decode counts as a miss.
func (uc *UseCase) GetMenu(ctx context.Context) (*entity.Menu, error) {
	cached, err := uc.log.GetValue(ctx, events.MenuCacheKey)
	if err != nil {
		return nil, fmt.Errorf("WaitressUseCase - GetMenu - uc.log.GetValue: %w", err)
	}

	if cached != "" {
		menu := &entity.Menu{}
		if err := json.Unmarshal([]byte(cached), menu); err == nil {
			return menu, nil
		}

		uc.logger.Warn("menu cache entry is not valid JSON, refreshing")
	}

	return uc.RefreshMenu(ctx)
}

// RefreshMenu fetches the menu from the inventory service and caches it.
func (uc *UseCase) RefreshMenu(ctx context.Context) (*entity.Menu, error) {
	menu, err := uc.inventory.Menu(ctx)
	if err != nil {
		return nil, fmt.Errorf("WaitressUseCase - RefreshMenu - uc.inventory.Menu: %w", err)
	}

	encoded, err := json.Marshal(menu)
	if err != nil {
		return nil, fmt.Errorf("WaitressUseCase - RefreshMenu - json.Marshal: %w", err)
	}

	if err := uc.log.SetValue(ctx, events.MenuCacheKey, string(encoded), uc.menuTTL); err != nil {
		return nil, fmt.Errorf("WaitressUseCase - RefreshMenu - uc.log.SetValue: %w", err)
	}

	return menu, nil
}

// PlaceOrder assigns the next order id from the process-wide counter and
// appends OrderPlaced to the waitress stream.
func (uc *UseCase) PlaceOrder(ctx context.Context, tableNo int, items []map[string]int, comments string) (int64, error) {
	orderID, err := uc.log.IncrementCounter(ctx, events.OrderIDCounterKey)
	if err != nil {
		return 0, fmt.Errorf("WaitressUseCase - PlaceOrder - uc.log.IncrementCounter: %w", err)
	}

	placed := entity.NewOrderPlaced(orderID, tableNo, items, comments)

	if _, err := uc.publisher.Publish(ctx, events.WaitressOrderStream, placed); err != nil {
		return 0, fmt.Errorf("WaitressUseCase - PlaceOrder - uc.publisher.Publish: %w", err)
	}

	uc.logger.Info("order %d placed for table %d", orderID, tableNo)

	return orderID, nil
}

// ConsumeKitchenOrder reads the next terminal order event after this
// service's checkpoint. It returns (nil, nil) when nothing is pending; the
// checkpoint advances only after a recognized event is decoded.
func (uc *UseCase) ConsumeKitchenOrder(ctx context.Context) (*dto.KitchenOrder, error) {
	lastID, err := uc.log.GetValue(ctx, events.WaitressCheckpointKey)
	if err != nil {
		return nil, fmt.Errorf("WaitressUseCase - ConsumeKitchenOrder - uc.log.GetValue: %w", err)
	}
	if lastID == "" {
		lastID = redisstream.StartID
	}

	msg, err := uc.log.ReadSince(ctx, events.KitchenOrderStream, lastID, uc.pollBlock)
	if err != nil {
		return nil, fmt.Errorf("WaitressUseCase - ConsumeKitchenOrder - uc.log.ReadSince: %w", err)
	}
	if msg == nil {
		return nil, nil
	}

	event, err := events.Decode(msg.Fields)
	if err != nil {
		return nil, fmt.Errorf("WaitressUseCase - ConsumeKitchenOrder - events.Decode: %w", err)
	}

	var status string

	switch event.(type) {
	case *entity.OrderReady:
		status = "Ready"
	case *entity.OrderCanceled:
		status = "Canceled"
	default:
		return nil, fmt.Errorf("WaitressUseCase - ConsumeKitchenOrder - %q: %w", event.EventType(), errs.ErrUnknownEvent)
	}

	if err := uc.log.SetValue(ctx, events.WaitressCheckpointKey, msg.ID, 0); err != nil {
		return nil, fmt.Errorf("WaitressUseCase - ConsumeKitchenOrder - uc.log.SetValue: %w", err)
	}

	orderID, _ := event.Order()

	return &dto.KitchenOrder{
		OrderID:  orderID,
		Status:   status,
		Comments: event.Comment(),
	}, nil
}
