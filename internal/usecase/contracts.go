package usecase

import (
	"context"

	"github.com/andreyxaxa/kitchen-stream/internal/dto"
	"github.com/andreyxaxa/kitchen-stream/internal/entity"
)

type (
	WaitressUseCase interface {
		GetMenu(ctx context.Context) (*entity.Menu, error)
		PlaceOrder(ctx context.Context, tableNo int, items []map[string]int, comments string) (int64, error)
		ConsumeKitchenOrder(ctx context.Context) (*dto.KitchenOrder, error)
	}

	// OrderEventHandler receives decoded order events from the consumer
	// loop. A returned error pauses progress on that message and routes it
	// through the retry-then-dead-letter path.
	OrderEventHandler interface {
		HandleOrderPlaced(ctx context.Context, event *entity.OrderPlaced) error
		HandleOrderCanceled(ctx context.Context, event *entity.OrderCanceled) error
	}

	InventoryUseCase interface {
		Menu(ctx context.Context) (*entity.Menu, error)
		CheckRecipes(ctx context.Context, req *dto.CheckRecipesRequest) (*dto.CheckRecipesResponse, error)
		ConsumeRecipes(ctx context.Context, req *dto.ConsumeRecipesRequest) (*dto.ConsumeRecipesResponse, error)
	}
)
