package inventory

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/andreyxaxa/kitchen-stream/internal/dto"
	"github.com/andreyxaxa/kitchen-stream/pkg/types/errs"
)

func (r *controller) showMenu(ctx *fiber.Ctx) error {
	menu, err := r.inventory.Menu(ctx.UserContext())
	if err != nil {
		r.logger.Error(err, "restapi - inventory - showMenu")

		return errorResponse(ctx, statusFor(err), "failed to fetch menu")
	}

	return ctx.Status(http.StatusOK).JSON(menu)
}

func (r *controller) checkRecipes(ctx *fiber.Ctx) error {
	var req dto.CheckRecipesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	resp, err := r.inventory.CheckRecipes(ctx.UserContext(), &req)
	if err != nil {
		r.logger.Error(err, "restapi - inventory - checkRecipes")

		return errorResponse(ctx, statusFor(err), "failed to check recipes")
	}

	return ctx.Status(http.StatusOK).JSON(resp)
}

func (r *controller) consumeRecipes(ctx *fiber.Ctx) error {
	var req dto.ConsumeRecipesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	resp, err := r.inventory.ConsumeRecipes(ctx.UserContext(), &req)
	if err != nil {
		r.logger.Error(err, "restapi - inventory - consumeRecipes")

		return errorResponse(ctx, statusFor(err), "failed to consume recipes")
	}

	return ctx.Status(http.StatusOK).JSON(resp)
}

// statusFor maps pool exhaustion to 503; callers retry. Business negatives
// never reach here, they are 200s with false flags.
func statusFor(err error) int {
	if errors.Is(err, errs.ErrPoolExhausted) {
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}
