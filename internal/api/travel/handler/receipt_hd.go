package travelHandler

import (
	"TravelExpense/internal/api/travel"
	contextPkg "TravelExpense/pkg/context"
	"TravelExpense/pkg/handlerUtil"
	jwtPkg "TravelExpense/pkg/jwt"
	"TravelExpense/pkg/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
	"time"
)

func (h *TravelHandler) UploadReceipt(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing receipt upload request")

	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		return errHandler.Handle(ctx, requestID, travel.ErrInvalidField("image", "required", "image is required"), ctx.Path(), "parse_receipt_form")
	}

	res, err := h.travelService.StoreReceipt(c, actor, ctx.FormValue("tripId"), file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "upload_receipt")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, res)
	}
}

func (h *TravelHandler) ExtractReceipt(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing receipt extraction request")

	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		return errHandler.Handle(ctx, requestID, travel.ErrInvalidField("image", "required", "image is required"), ctx.Path(), "parse_receipt_form")
	}

	extraction, err := h.travelService.ExtractFields(c, actor, file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "extract_receipt")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, travel.MakeExtractReceiptResponse(extraction))
	}
}
