package repo

import (
	"context"

	"github.com/andreyxaxa/kitchen-stream/internal/entity"
)

type (
	// InventoryRepo is the single source of truth for recipes and stock.
	// All multi-step mutations run inside one transaction.
	InventoryRepo interface {
		GetMenuItems(ctx context.Context) ([]entity.MenuItem, error)
		GetRecipeIngredients(ctx context.Context, recipeName string) ([]entity.RecipeIngredient, error)
		CheckRecipeFeasible(ctx context.Context, recipeName string, qty int) (bool, error)
		ConsumeRecipe(ctx context.Context, recipeName string, qty int) (entity.ConsumeResult, error)
	}
)
