package travelHandler

import (
	"TravelExpense/internal/api/travel"
	"TravelExpense/internal/entity"
	contextPkg "TravelExpense/pkg/context"
	"TravelExpense/pkg/handlerUtil"
	jwtPkg "TravelExpense/pkg/jwt"
	"TravelExpense/pkg/log"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/net/context"
	"time"
)

var errTripIDRequired = errors.New("trip ID is required")

func (h *TravelHandler) CreateTrip(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing create trip request")

	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req travel.CreateTripRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	trip, err := h.travelService.CreateTrip(c, actor, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_trip")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, travel.MakeTripResponse(trip))
	}
}

func (h *TravelHandler) GetTrip(ctx *fiber.Ctx) error {
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

	trip, err := h.travelService.GetTrip(c, actor, tripID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_trip")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, travel.MakeTripResponse(trip))
	}
}

func (h *TravelHandler) UpdateTrip(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing update trip request")

	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	tripID := ctx.Params("tripId")
	if tripID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errTripIDRequired, ctx.Path())
	}

	var req travel.UpdateTripRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	trip, err := h.travelService.UpdateTrip(c, actor, tripID, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_trip")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, travel.MakeTripResponse(trip))
	}
}

func (h *TravelHandler) DeleteTrip(ctx *fiber.Ctx) error {
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

	if err := h.travelService.DeleteTrip(c, actor, tripID); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_trip")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"message": "Trip deleted successfully",
		})
	}
}

func (h *TravelHandler) SetTripStatus(ctx *fiber.Ctx) error {
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

	var req travel.SetTripStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	trip, err := h.travelService.SetTripStatus(c, actor, tripID, entity.TripStatus(req.Status))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "set_trip_status")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, travel.MakeTripResponse(trip))
	}
}

// ListTrips serves both /admin/trips and /trips. The service scopes the result
// by the caller's role.
func (h *TravelHandler) ListTrips(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req travel.ListTripsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	trips, pagination, err := h.travelService.ListTrips(c, actor, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_trips")
	}

	res := travel.ListTripsResponse{
		Trips:      make([]travel.TripResponse, 0, len(trips)),
		Pagination: pagination,
	}
	for _, trip := range trips {
		res.Trips = append(res.Trips, travel.MakeTripResponse(trip))
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *TravelHandler) TripStats(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	stats, err := h.travelService.TripStats(c, actor)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "trip_stats")
	}

	res := travel.TripStatsResponse{
		TotalAmount: decimal.Zero,
		ByStatus:    make([]travel.StatusStatResponse, 0, len(stats)),
	}
	for _, stat := range stats {
		res.TotalTrips += stat.Count
		res.TotalAmount = res.TotalAmount.Add(stat.TotalAmount)
		res.ByStatus = append(res.ByStatus, travel.StatusStatResponse{
			Status:      stat.Status,
			Count:       stat.Count,
			TotalAmount: stat.TotalAmount,
		})
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *TravelHandler) RecomputeTripTotal(ctx *fiber.Ctx) error {
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

	total, err := h.travelService.RecomputeTripTotal(c, actor, tripID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "recompute_trip_total")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, travel.RecomputeTotalResponse{
			TripID:      tripID,
			TotalAmount: total,
		})
	}
}
