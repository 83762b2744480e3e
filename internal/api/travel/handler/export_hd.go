package travelHandler

import (
	"TravelExpense/internal/accounting"
	contextPkg "TravelExpense/pkg/context"
	"TravelExpense/pkg/handlerUtil"
	jwtPkg "TravelExpense/pkg/jwt"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
	"time"
)

func (h *TravelHandler) ExportAccounting(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	data, err := h.travelService.ExportAccounting(c, actor)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "export_accounting")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		ctx.Attachment(accounting.FileName(time.Now()))
		ctx.Set(fiber.HeaderContentType, accounting.ContentType)
		return ctx.Status(fiber.StatusOK).Send(data)
	}
}
