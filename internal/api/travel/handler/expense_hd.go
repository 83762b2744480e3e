package travelHandler

import (
	"TravelExpense/internal/api/travel"
	contextPkg "TravelExpense/pkg/context"
	"TravelExpense/pkg/handlerUtil"
	jwtPkg "TravelExpense/pkg/jwt"
	"TravelExpense/pkg/log"
	"errors"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
	"time"
)

var errExpenseIDRequired = errors.New("expense ID is required")

func (h *TravelHandler) ListExpenses(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	tripID := ctx.Params("tripId")
	if tripID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errTripIDRequired, ctx.Path())
	}

	expenses, err := h.travelService.ListExpenses(c, actor, tripID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_expenses")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, travel.MakeExpenseResponses(expenses))
	}
}

func (h *TravelHandler) CreateExpense(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing create expense request")

	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	tripID := ctx.Params("tripId")
	if tripID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errTripIDRequired, ctx.Path())
	}

	var req travel.CreateExpenseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	expense, err := h.travelService.CreateExpense(c, actor, tripID, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_expense")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, travel.MakeExpenseResponse(expense))
	}
}

func (h *TravelHandler) UpdateExpense(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing update expense request")

	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	tripID, expenseID := ctx.Params("tripId"), ctx.Params("expenseId")
	if tripID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errTripIDRequired, ctx.Path())
	}
	if expenseID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errExpenseIDRequired, ctx.Path())
	}

	var req travel.UpdateExpenseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	expense, err := h.travelService.UpdateExpense(c, actor, tripID, expenseID, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_expense")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, travel.MakeExpenseResponse(expense))
	}
}

func (h *TravelHandler) DeleteExpense(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	tripID, expenseID := ctx.Params("tripId"), ctx.Params("expenseId")
	if tripID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errTripIDRequired, ctx.Path())
	}
	if expenseID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errExpenseIDRequired, ctx.Path())
	}

	if err := h.travelService.DeleteExpense(c, actor, tripID, expenseID); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_expense")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"message": "Expense deleted successfully",
		})
	}
}
