// Package waitress wires the front-of-house HTTP routes.
package waitress

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andreyxaxa/kitchen-stream/internal/controller/restapi/response"
	"github.com/andreyxaxa/kitchen-stream/internal/usecase"
	"github.com/andreyxaxa/kitchen-stream/pkg/logger"
)

type controller struct {
	waitress usecase.WaitressUseCase
	logger   logger.Interface
}

func NewRouter(app *fiber.App, w usecase.WaitressUseCase, l logger.Interface) {
	r := &controller{waitress: w, logger: l}

	app.Get("/menu", r.showMenu)
	app.Post("/place-order", r.placeOrder)
	app.Get("/consume-kitchen-order", r.consumeKitchenOrder)
}

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}
