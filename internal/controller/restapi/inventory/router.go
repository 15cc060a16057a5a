// Package inventory wires the inventory service HTTP routes. The route
// spellings are a frozen service-to-service contract.
package inventory

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andreyxaxa/kitchen-stream/internal/controller/restapi/response"
	"github.com/andreyxaxa/kitchen-stream/internal/usecase"
	"github.com/andreyxaxa/kitchen-stream/pkg/logger"
)

type controller struct {
	inventory usecase.InventoryUseCase
	logger    logger.Interface
}

func NewRouter(app *fiber.App, inv usecase.InventoryUseCase, l logger.Interface) {
	r := &controller{inventory: inv, logger: l}

	app.Get("/menu", r.showMenu)
	app.Post("/checkRecipeForIngredients", r.checkRecipes)
	app.Post("/consumeRecipeIngridients", r.consumeRecipes)
}

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}
