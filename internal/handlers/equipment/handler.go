package equipment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"agrirent/infras/otel"
	bookingService "agrirent/internal/domains/booking/service"
	"agrirent/internal/domains/equipment/model/dto"
	"agrirent/internal/domains/equipment/service"
	"agrirent/shared/constant"
	gDto "agrirent/shared/dto"
	"agrirent/transport/http/response"
)

type Handler struct {
	service service.EquipmentService
	booking bookingService.BookingService
	otel    otel.Otel
}

func New(service service.EquipmentService, booking bookingService.BookingService, otel otel.Otel) Handler {
	return Handler{
		service: service,
		booking: booking,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/equipment", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetEquipments)
		routerGroup.Get("/categories", handler.GetCategories)
		routerGroup.Get("/locations", handler.GetLocations)
		routerGroup.Get("/{id}", handler.GetEquipmentByID)
		routerGroup.Get("/{id}/unavailable-dates", handler.GetUnavailableDates)
	})
}

// GetEquipments lists the equipment catalog.
// @Summary Get the equipment catalog
// @Description List rentable equipment with optional category, location and search filters.
// @Tags Equipment
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param category query string false "Filter by category"
// @Param location query string false "Filter by location"
// @Param search query string false "Search by name"
// @Success 200 {object} response.Data[dto.GetEquipmentsResponse] "Equipment list"
// @Failure 502 {object} response.Error
// @Router /v1/equipment [get]
func (handler *Handler) GetEquipments(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetEquipments")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	filters := map[string]string{
		constant.RequestParamCategory: request.URL.Query().Get(constant.RequestParamCategory),
		constant.RequestParamLocation: request.URL.Query().Get(constant.RequestParamLocation),
		constant.RequestParamSearch:   request.URL.Query().Get(constant.RequestParamSearch),
	}

	equipment, err := handler.service.GetEquipments(ctx, queryParams, filters)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get equipment list")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, equipment)
}

// GetEquipmentByID returns one piece of equipment.
// @Summary Get equipment by ID
// @Tags Equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Data[dto.EquipmentResponse] "Equipment details"
// @Failure 404 {object} response.Error
// @Router /v1/equipment/{id} [get]
func (handler *Handler) GetEquipmentByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetEquipmentByID")
	defer scope.End()

	equipment, err := handler.service.GetEquipmentByID(ctx, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get equipment by ID")

		response.WithError(writer, err)

		return
	}

	res := dto.EquipmentResponse{}
	res.FromModel(equipment)

	response.WithJSON(writer, http.StatusOK, res)
}

// GetUnavailableDates returns the dates already booked or held for a piece
// of equipment.
// @Summary Get unavailable dates
// @Tags Equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Data[dto.UnavailableDatesResponse] "Unavailable dates"
// @Failure 502 {object} response.Error
// @Router /v1/equipment/{id}/unavailable-dates [get]
func (handler *Handler) GetUnavailableDates(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetUnavailableDates")
	defer scope.End()

	equipmentID := chi.URLParam(request, constant.RequestParamID)

	dates, err := handler.booking.UnavailableDates(ctx, equipmentID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get unavailable dates")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, dto.UnavailableDatesResponse{
		EquipmentID:      equipmentID,
		UnavailableDates: dates,
	})
}

// GetCategories lists the known equipment categories.
// @Summary Get equipment categories
// @Tags Equipment
// @Produce json
// @Success 200 {object} response.Data[[]string] "Categories"
// @Router /v1/equipment/categories [get]
func (handler *Handler) GetCategories(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetCategories")
	defer scope.End()

	categories, err := handler.service.GetCategories(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get categories")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, categories)
}

// GetLocations lists the known equipment locations.
// @Summary Get equipment locations
// @Tags Equipment
// @Produce json
// @Success 200 {object} response.Data[[]string] "Locations"
// @Router /v1/equipment/locations [get]
func (handler *Handler) GetLocations(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetLocations")
	defer scope.End()

	locations, err := handler.service.GetLocations(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get locations")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, locations)
}
