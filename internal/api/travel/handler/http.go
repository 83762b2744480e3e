package travelHandler

import (
	travelService "TravelExpense/internal/api/travel/service"
	"TravelExpense/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type TravelHandler struct {
	log           *logrus.Logger
	validator     *validator.Validate
	middleware    middleware.Middleware
	travelService travelService.ITravelService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	travelService travelService.ITravelService,
) *TravelHandler {
	return &TravelHandler{
		log:           log,
		validator:     validate,
		middleware:    middleware,
		travelService: travelService,
	}
}

func (h *TravelHandler) Start(srv fiber.Router) {
	admin := srv.Group("/admin")

	admin.Post("/trips", h.middleware.NewTokenMiddleware, h.middleware.NewAdminMiddleware, h.CreateTrip)
	admin.Get("/trips", h.middleware.NewTokenMiddleware, h.middleware.NewAdminMiddleware, h.ListTrips)
	admin.Get("/trips/stats", h.middleware.NewTokenMiddleware, h.middleware.NewAdminMiddleware, h.TripStats)
	admin.Get("/trips/:tripId", h.middleware.NewTokenMiddleware, h.middleware.NewAdminMiddleware, h.GetTrip)
	admin.Put("/trips/:tripId", h.middleware.NewTokenMiddleware, h.middleware.NewAdminMiddleware, h.UpdateTrip)
	admin.Delete("/trips/:tripId", h.middleware.NewTokenMiddleware, h.middleware.NewAdminMiddleware, h.DeleteTrip)
	admin.Put("/trips/:tripId/status", h.middleware.NewTokenMiddleware, h.middleware.NewAdminMiddleware, h.SetTripStatus)
	admin.Post("/trips/:tripId/recompute", h.middleware.NewTokenMiddleware, h.middleware.NewAdminMiddleware, h.RecomputeTripTotal)
	admin.Get("/export", h.middleware.NewTokenMiddleware, h.middleware.NewAdminMiddleware, h.ExportAccounting)

	trips := srv.Group("/trips")

	trips.Get("/", h.middleware.NewTokenMiddleware, h.ListTrips)
	trips.Get("/stats", h.middleware.NewTokenMiddleware, h.TripStats)
	trips.Get("/:tripId", h.middleware.NewTokenMiddleware, h.GetTrip)
	trips.Get("/:tripId/expenses", h.middleware.NewTokenMiddleware, h.ListExpenses)
	trips.Post("/:tripId/expenses", h.middleware.NewTokenMiddleware, h.CreateExpense)
	trips.Put("/:tripId/expenses/:expenseId", h.middleware.NewTokenMiddleware, h.UpdateExpense)
	trips.Delete("/:tripId/expenses/:expenseId", h.middleware.NewTokenMiddleware, h.DeleteExpense)

	expenses := srv.Group("/expenses")

	expenses.Post("/upload-receipt", h.middleware.NewTokenMiddleware, h.middleware.NewRateLimiter, h.UploadReceipt)
	expenses.Post("/ocr", h.middleware.NewTokenMiddleware, h.middleware.NewRateLimiter, h.ExtractReceipt)
}
