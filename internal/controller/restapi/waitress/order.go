package waitress

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/andreyxaxa/kitchen-stream/internal/controller/restapi/response"
	"github.com/andreyxaxa/kitchen-stream/pkg/types/errs"
)

type placeOrderRequest struct {
	TableNo  int              `json:"table_no"`
	Items    []map[string]int `json:"items"`
	Comments string           `json:"comments"`
}

func (r *controller) showMenu(ctx *fiber.Ctx) error {
	menu, err := r.waitress.GetMenu(ctx.UserContext())
	if err != nil {
		r.logger.Error(err, "restapi - waitress - showMenu")

		return errorResponse(ctx, statusFor(err), "failed to fetch menu")
	}

	return ctx.Status(http.StatusOK).JSON(menu)
}

func (r *controller) placeOrder(ctx *fiber.Ctx) error {
	var req placeOrderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if req.TableNo < 0 {
		return errorResponse(ctx, http.StatusBadRequest, "table_no must be non-negative")
	}

	for _, item := range req.Items {
		for name, qty := range item {
			if name == "" || qty <= 0 {
				return errorResponse(ctx, http.StatusBadRequest, "items must map recipe names to positive quantities")
			}
		}
	}

	orderID, err := r.waitress.PlaceOrder(ctx.UserContext(), req.TableNo, req.Items, req.Comments)
	if err != nil {
		r.logger.Error(err, "restapi - waitress - placeOrder")

		return errorResponse(ctx, statusFor(err), "failed to place order")
	}

	return ctx.Status(http.StatusCreated).JSON(response.PlaceOrder{OrderID: orderID})
}

func (r *controller) consumeKitchenOrder(ctx *fiber.Ctx) error {
	order, err := r.waitress.ConsumeKitchenOrder(ctx.UserContext())
	if err != nil {
		r.logger.Error(err, "restapi - waitress - consumeKitchenOrder")

		return errorResponse(ctx, statusFor(err), "failed to consume kitchen order")
	}

	if order == nil {
		return errorResponse(ctx, http.StatusNotFound, "No new kitchen orders")
	}

	return ctx.Status(http.StatusOK).JSON(order)
}

// statusFor maps transient infra exhaustion to 503, everything else to 500.
func statusFor(err error) int {
	if errors.Is(err, errs.ErrBackendUnavailable) || errors.Is(err, errs.ErrPoolExhausted) {
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}
