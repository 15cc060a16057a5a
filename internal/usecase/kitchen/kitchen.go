// Package kitchen implements the order fulfillment orchestrator: it expands
// an OrderPlaced event into ingredient-consumption tasks, executes them
// against the inventory service and emits the terminal order event.
package kitchen

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/andreyxaxa/kitchen-stream/internal/dto"
	"github.com/andreyxaxa/kitchen-stream/internal/entity"
	"github.com/andreyxaxa/kitchen-stream/internal/events"
	"github.com/andreyxaxa/kitchen-stream/internal/infrastructure"
	"github.com/andreyxaxa/kitchen-stream/pkg/logger"
)

const _rpcUserID = "kitchen_service"

type OrderUseCase struct {
	inventory infrastructure.InventoryClient
	publisher infrastructure.EventPublisher

	logger logger.Interface
}

func New(inventory infrastructure.InventoryClient, publisher infrastructure.EventPublisher, l logger.Interface) *OrderUseCase {
	return &OrderUseCase{
		inventory: inventory,
		publisher: publisher,
		logger:    l,
	}
}

// HandleOrderPlaced consumes the order's ingredients recipe by recipe and
// publishes OrderReady with the aggregated per-recipe outcomes. An order
// with no valid items is canceled without touching the inventory.
//
// OrderReady is published even when some consumptions fail; the outcome is
// only reflected in the comments. This mirrors the established behavior the
// waitress side relies on.
func (uc *OrderUseCase) HandleOrderPlaced(ctx context.Context, event *entity.OrderPlaced) error {
	request := &dto.ConsumeRecipesRequest{
		UserID: _rpcUserID,
		Tasks:  flattenItems(event.Items),
	}

	if len(request.Tasks) == 0 {
		uc.logger.Warn("no valid items in order %d, canceling", event.OrderID)

		canceled := entity.NewOrderCanceled(event.OrderID, event.TableNo, "No valid items in order")

		if _, err := uc.publisher.Publish(ctx, events.KitchenOrderStream, canceled); err != nil {
			return fmt.Errorf("OrderUseCase - HandleOrderPlaced - uc.publisher.Publish: %w", err)
		}

		return nil
	}

	response, err := uc.inventory.ConsumeRecipes(ctx, request)
	if err != nil {
		return fmt.Errorf("OrderUseCase - HandleOrderPlaced - uc.inventory.ConsumeRecipes: %w", err)
	}

	comments := make([]string, 0, len(response.Results))
	for _, res := range response.Results {
		outcome := "Success"
		if !res.Consumed {
			outcome = "Failed"
		}
		comments = append(comments, fmt.Sprintf("%s: %s - %s", res.RecipeName, outcome, res.Comments))
	}

	uc.logger.Info("order %d ingredient consumption done: %s", event.OrderID, strings.Join(comments, ", "))

	ready := entity.NewOrderReady(event.OrderID, event.TableNo, strings.Join(comments, ", "))

	if _, err := uc.publisher.Publish(ctx, events.KitchenOrderStream, ready); err != nil {
		return fmt.Errorf("OrderUseCase - HandleOrderPlaced - uc.publisher.Publish: %w", err)
	}

	return nil
}

// HandleOrderCanceled acknowledges the cancellation; nothing to fulfill.
func (uc *OrderUseCase) HandleOrderCanceled(ctx context.Context, event *entity.OrderCanceled) error {
	uc.logger.Info("order %d canceled, table %d", event.OrderID, event.TableNo)

	return nil
}

// flattenItems turns the event's ordered sequence of name -> quantity
// mappings into a flat list of consumption tasks.
func flattenItems(items []map[string]int) []dto.ConsumeRecipeTask {
	tasks := make([]dto.ConsumeRecipeTask, 0, len(items))

	for _, item := range items {
		for name, qty := range item {
			tasks = append(tasks, dto.ConsumeRecipeTask{
				ID:         uuid.NewString(),
				RecipeName: name,
				Qty:        qty,
			})
		}
	}

	return tasks
}
