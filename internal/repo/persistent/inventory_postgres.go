package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/andreyxaxa/kitchen-stream/internal/entity"
	"github.com/andreyxaxa/kitchen-stream/pkg/postgres"
)

const (
	// Tables
	recipesTable           = "recipes"
	recipeIngredientsTable = "recipe_ingredients"
	stockTable             = "stock"

	// Columns
	nameColumn           = "name"
	descriptionColumn    = "description"
	recipeNameColumn     = "recipe_name"
	ingredientNameColumn = "ingredient_name"
	requiredQtyColumn    = "required_qty"
	qtyColumn            = "qty"
)

// errInsufficientStock forces a transaction rollback when a conditional
// decrement touches no rows; it never leaves ConsumeRecipe.
var errInsufficientStock = errors.New("insufficient stock")

type InventoryRepo struct {
	*postgres.Postgres
}

func NewInventoryRepo(pg *postgres.Postgres) *InventoryRepo {
	return &InventoryRepo{pg}
}

func (r *InventoryRepo) GetMenuItems(ctx context.Context) ([]entity.MenuItem, error) {
	sql, args, err := r.Builder.
		Select(nameColumn, descriptionColumn).
		From(recipesTable).
		OrderBy(nameColumn).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("InventoryRepo - GetMenuItems - r.Builder.ToSql: %w", err)
	}

	items := make([]entity.MenuItem, 0)

	err = r.WithConn(ctx, func(executor postgres.Executor) error {
		rows, err := executor.Query(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("executor.Query: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var item entity.MenuItem
			if err := rows.Scan(&item.Name, &item.Description); err != nil {
				return fmt.Errorf("rows.Scan: %w", err)
			}
			items = append(items, item)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("InventoryRepo - GetMenuItems - r.WithConn: %w", err)
	}

	return items, nil
}

func (r *InventoryRepo) GetRecipeIngredients(ctx context.Context, recipeName string) ([]entity.RecipeIngredient, error) {
	sql, args, err := r.Builder.
		Select(ingredientNameColumn, requiredQtyColumn).
		From(recipeIngredientsTable).
		Where(squirrel.Eq{recipeNameColumn: recipeName}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("InventoryRepo - GetRecipeIngredients - r.Builder.ToSql: %w", err)
	}

	var ingredients []entity.RecipeIngredient

	err = r.WithConn(ctx, func(executor postgres.Executor) error {
		rows, err := executor.Query(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("executor.Query: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var ing entity.RecipeIngredient
			if err := rows.Scan(&ing.IngredientName, &ing.RequiredQty); err != nil {
				return fmt.Errorf("rows.Scan: %w", err)
			}
			ingredients = append(ingredients, ing)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("InventoryRepo - GetRecipeIngredients - r.WithConn: %w", err)
	}

	return ingredients, nil
}

// CheckRecipeFeasible reports whether every ingredient of the recipe has
// enough stock for qty servings. An unknown recipe is not feasible rather
// than an error.
func (r *InventoryRepo) CheckRecipeFeasible(ctx context.Context, recipeName string, qty int) (bool, error) {
	ingredients, err := r.GetRecipeIngredients(ctx, recipeName)
	if err != nil {
		return false, fmt.Errorf("InventoryRepo - CheckRecipeFeasible - r.GetRecipeIngredients: %w", err)
	}

	if len(ingredients) == 0 {
		return false, nil
	}

	for _, ing := range ingredients {
		available, err := r.getStock(ctx, ing.IngredientName)
		if err != nil {
			return false, fmt.Errorf("InventoryRepo - CheckRecipeFeasible - r.getStock: %w", err)
		}

		if available < ing.RequiredQty*qty {
			return false, nil
		}
	}

	return true, nil
}

// ConsumeRecipe decrements the stock of every ingredient of the recipe
// inside one transaction. Each decrement is conditional on sufficient stock,
// so stock never goes negative; the first insufficient ingredient rolls the
// whole transaction back and no partial decrement is persisted.
func (r *InventoryRepo) ConsumeRecipe(ctx context.Context, recipeName string, qty int) (entity.ConsumeResult, error) {
	var result entity.ConsumeResult

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		ingredients, err := r.GetRecipeIngredients(ctx, recipeName)
		if err != nil {
			return fmt.Errorf("r.GetRecipeIngredients: %w", err)
		}

		if len(ingredients) == 0 {
			result = entity.ConsumeResult{Consumed: false, Comments: entity.ReasonRecipeNotFound}
			return nil
		}

		for _, ing := range ingredients {
			need := ing.RequiredQty * qty

			consumed, err := r.consumeIngredient(ctx, ing.IngredientName, need)
			if err != nil {
				return fmt.Errorf("r.consumeIngredient: %w", err)
			}

			if !consumed {
				result = entity.ConsumeResult{Consumed: false, Comments: entity.ReasonInsufficient(ing.IngredientName)}
				return errInsufficientStock
			}
		}

		result = entity.ConsumeResult{Consumed: true, Comments: entity.ReasonConsumed}
		return nil
	})
	if err != nil && !errors.Is(err, errInsufficientStock) {
		return entity.ConsumeResult{}, fmt.Errorf("InventoryRepo - ConsumeRecipe - r.WithinTransaction: %w", err)
	}

	return result, nil
}

// consumeIngredient runs the conditional decrement; zero affected rows means
// insufficient stock (or unknown ingredient).
func (r *InventoryRepo) consumeIngredient(ctx context.Context, ingredientName string, need int) (bool, error) {
	sql, args, err := r.Builder.
		Update(stockTable).
		Set(qtyColumn, squirrel.Expr(qtyColumn+" - ?", need)).
		Where(squirrel.Eq{ingredientNameColumn: ingredientName}).
		Where(squirrel.GtOrEq{qtyColumn: need}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("r.Builder.ToSql: %w", err)
	}

	var affected int64

	err = r.WithConn(ctx, func(executor postgres.Executor) error {
		tag, err := executor.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("executor.Exec: %w", err)
		}
		affected = tag.RowsAffected()

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("r.WithConn: %w", err)
	}

	return affected > 0, nil
}

func (r *InventoryRepo) getStock(ctx context.Context, ingredientName string) (int, error) {
	sql, args, err := r.Builder.
		Select(qtyColumn).
		From(stockTable).
		Where(squirrel.Eq{ingredientNameColumn: ingredientName}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("r.Builder.ToSql: %w", err)
	}

	var qty int

	err = r.WithConn(ctx, func(executor postgres.Executor) error {
		err := executor.QueryRow(ctx, sql, args...).Scan(&qty)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("executor.QueryRow.Scan: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("r.WithConn: %w", err)
	}

	return qty, nil
}
