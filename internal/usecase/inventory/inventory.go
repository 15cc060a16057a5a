// Package inventory implements the stock-keeping use-case over the
// transactional repository. Business-rule failures (unknown recipe,
// insufficient stock) are results, not errors.
package inventory

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/kitchen-stream/internal/dto"
	"github.com/andreyxaxa/kitchen-stream/internal/entity"
	"github.com/andreyxaxa/kitchen-stream/internal/repo"
	"github.com/andreyxaxa/kitchen-stream/pkg/logger"
)

type UseCase struct {
	inventoryRepo repo.InventoryRepo

	logger logger.Interface
}

func New(inventoryRepo repo.InventoryRepo, l logger.Interface) *UseCase {
	return &UseCase{
		inventoryRepo: inventoryRepo,
		logger:        l,
	}
}

func (uc *UseCase) Menu(ctx context.Context) (*entity.Menu, error) {
	items, err := uc.inventoryRepo.GetMenuItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("InventoryUseCase - Menu - uc.inventoryRepo.GetMenuItems: %w", err)
	}

	return &entity.Menu{Items: items}, nil
}

func (uc *UseCase) CheckRecipes(ctx context.Context, req *dto.CheckRecipesRequest) (*dto.CheckRecipesResponse, error) {
	results := make([]dto.CheckRecipeResult, 0, len(req.RecipeIDs))

	for _, task := range req.RecipeIDs {
		canMake, err := uc.inventoryRepo.CheckRecipeFeasible(ctx, task.RecipeName, task.Qty)
		if err != nil {
			return nil, fmt.Errorf("InventoryUseCase - CheckRecipes - uc.inventoryRepo.CheckRecipeFeasible: %w", err)
		}

		if !canMake {
			uc.logger.Warn("recipe %q not feasible for qty %d", task.RecipeName, task.Qty)
		}

		results = append(results, dto.CheckRecipeResult{
			ID:       task.ID,
			RecipeID: task.RecipeName,
			CanMake:  canMake,
		})
	}

	return &dto.CheckRecipesResponse{UserID: req.UserID, Results: results}, nil
}

// ConsumeRecipes executes each consumption task in its own transaction.
// Tasks are independent: a failed task does not roll back earlier ones.
func (uc *UseCase) ConsumeRecipes(ctx context.Context, req *dto.ConsumeRecipesRequest) (*dto.ConsumeRecipesResponse, error) {
	results := make([]dto.ConsumeRecipeResult, 0, len(req.Tasks))

	for _, task := range req.Tasks {
		result, err := uc.inventoryRepo.ConsumeRecipe(ctx, task.RecipeName, task.Qty)
		if err != nil {
			return nil, fmt.Errorf("InventoryUseCase - ConsumeRecipes - uc.inventoryRepo.ConsumeRecipe: %w", err)
		}

		results = append(results, dto.ConsumeRecipeResult{
			ID:         task.ID,
			RecipeName: task.RecipeName,
			Consumed:   result.Consumed,
			Comments:   result.Comments,
		})
	}

	return &dto.ConsumeRecipesResponse{UserID: req.UserID, Results: results}, nil
}
