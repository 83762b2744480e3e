package authHandler

import (
	contextPkg "TravelExpense/pkg/context"
	"TravelExpense/pkg/handlerUtil"
	"TravelExpense/pkg/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
	"net/url"
	"os"
	"time"
)

func (h *AuthHandler) HandleMicrosoftLogin(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	loginURL, err := h.authService.Auth().MicrosoftLoginURL()
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "microsoft_login")
	}

	return ctx.Redirect(loginURL, fiber.StatusTemporaryRedirect)
}

// CallBackFromMicrosoft answers with the login payload, or redirects to
// MICROSOFT_SUCCESS_REDIRECT with the token in the fragment when it is set.
func (h *AuthHandler) CallBackFromMicrosoft(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if reason := ctx.Query("error"); reason != "" {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"reason":     reason,
			"path":       ctx.Path(),
		}).Info("Microsoft sign-in cancelled")
		return errHandler.HandleUnauthorized(ctx, requestID, "Access denied by user")
	}

	res, err := h.authService.Auth().LoginMicrosoft(c, ctx.Query("state"), ctx.Query("code"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "microsoft_callback")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
	}

	if target := os.Getenv("MICROSOFT_SUCCESS_REDIRECT"); target != "" {
		fragment := url.Values{}
		fragment.Set("token", res.AccessToken)
		return ctx.Redirect(target+"#"+fragment.Encode(), fiber.StatusTemporaryRedirect)
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
}
