package booking

import (
	"marina/infras/otel"
	"marina/internal/domains/booking/model"
	"marina/internal/domains/booking/model/dto"
	"marina/internal/domains/booking/service"
	"marina/shared"
	"marina/shared/constant"
	gDto "marina/shared/dto"
	"marina/shared/validator"
	"marina/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

var sortableFields = []string{
	model.FieldBookingDate,
	model.FieldStatus,
	model.FieldPaymentStatus,
	model.FieldTotalPrice,
	constant.FieldCreatedAt,
	constant.FieldModifiedAt,
}

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/", handler.GetBookings)
		routerGroup.Get("/mybookings", handler.GetMyBookings)
		routerGroup.Get("/deleted", handler.GetDeletedBookings)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Patch("/{id}/status", handler.SetStatus)
		routerGroup.Patch("/{id}/payment-status", handler.SetPaymentStatus)
		routerGroup.Post("/{id}/payment-proof", handler.UploadPaymentProof)
		routerGroup.Delete("/{id}", handler.DeleteBooking)
		routerGroup.Post("/{id}/restore", handler.RestoreBooking)
		routerGroup.Get("/{id}/history", handler.GetHistory)
	})

	router.Route("/boats/{id}", func(routerGroup chi.Router) {
		routerGroup.Get("/availability", handler.GetAvailability)
		routerGroup.Get("/unavailable-dates", handler.GetUnavailableDates)
	})
}

// CreateBooking handles the creation of a new booking.
// @Summary Create a new booking
// @Description Book a boat for one day. Customers always book for themselves, owners and admins pass customer_id.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.CreateBookingResponse] "Booking created"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	id, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Booking created successfully by user " + shared.ActorFromContext(ctx).ID)

	response.WithJSON(writer, http.StatusCreated, dto.CreateBookingResponse{ID: id})
}

// GetBookings lists live bookings visible to the caller.
// @Summary Get all bookings
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param boat_id query string false "Filter by boat ID"
// @Param customer_id query string false "Filter by customer ID"
// @Param status query string false "Filter by status (Pending, Confirmed, Completed, Cancelled)"
// @Param payment_status query string false "Filter by payment status (Paid, Unpaid)"
// @Param booking_date query string false "Filter by booking date (YYYY-MM-DD)"
// @Param date_from query string false "Bookings on or after this day (YYYY-MM-DD)"
// @Param date_to query string false "Bookings on or before this day (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams, filter, err := listRequest(r)
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	bookings, err := handler.service.GetAll(ctx, queryParams, filter)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Bookings retrieved successfully")

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetMyBookings lists the bookings made for the caller.
// @Summary Get my bookings
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status"
// @Param booking_date query string false "Filter by booking date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of the caller's bookings"
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/mybookings [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyBookings")
	defer scope.End()

	actor := shared.ActorFromContext(ctx)

	queryParams, filter, err := listRequest(r)
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}
	filter.CustomerID = actor.ID

	bookings, err := handler.service.GetAll(ctx, queryParams, filter)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get user bookings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("User bookings retrieved successfully for user " + actor.ID)

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetDeletedBookings lists soft deleted bookings.
// @Summary Get deleted bookings
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of deleted bookings"
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/deleted [get]
// @Security BearerAuth
func (handler *Handler) GetDeletedBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetDeletedBookings")
	defer scope.End()

	queryParams, filter, err := listRequest(r)
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	bookings, err := handler.service.GetDeleted(ctx, queryParams, filter)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get deleted bookings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Deleted bookings retrieved successfully")

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetBookingByID retrieves a live booking with its line items.
// @Summary Get a booking by ID
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking details"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	booking, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking retrieved successfully")

	response.WithJSON(w, http.StatusOK, booking)
}

// SetStatus moves a booking to another status.
// @Summary Change booking status
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.SetStatusRequest true "Set Status Request"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetStatus")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.SetStatusRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.SetStatus(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to set booking status")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking status set to " + booking.Status + " by user " + shared.ActorFromContext(ctx).ID)

	response.WithJSON(w, http.StatusOK, booking)
}

// SetPaymentStatus marks a booking paid or unpaid.
// @Summary Change payment status
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.SetPaymentStatusRequest true "Set Payment Status Request"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/payment-status [patch]
// @Security BearerAuth
func (handler *Handler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetPaymentStatus")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.SetPaymentStatusRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.SetPaymentStatus(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to set payment status")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Payment status set to " + booking.PaymentStatus)

	response.WithJSON(w, http.StatusOK, booking)
}

// UploadPaymentProof attaches a base64 data uri as the booking's payment proof.
// @Summary Upload payment proof
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.UploadPaymentProofRequest true "Upload Payment Proof Request"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/payment-proof [post]
// @Security BearerAuth
func (handler *Handler) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UploadPaymentProof")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UploadPaymentProofRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.UploadPaymentProof(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to upload payment proof")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Payment proof uploaded")

	response.WithJSON(w, http.StatusOK, booking)
}

// DeleteBooking soft deletes a booking.
// @Summary Delete a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.DeleteBookingRequest false "Delete Booking Request"
// @Success 200 {object} response.Message "Booking deleted successfully"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.DeleteBookingRequest{}
	if err := validateOptionalBody(r, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.SoftDelete(ctx, id, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking deleted successfully by user " + shared.ActorFromContext(ctx).ID)

	response.WithMessage(w, http.StatusOK, "Booking deleted successfully")
}

// RestoreBooking brings a soft deleted booking back.
// @Summary Restore a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.RestoreBookingRequest false "Restore Booking Request"
// @Success 200 {object} response.Message "Booking restored successfully"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/restore [post]
// @Security BearerAuth
func (handler *Handler) RestoreBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RestoreBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.RestoreBookingRequest{}
	if err := validateOptionalBody(r, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Restore(ctx, id, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to restore booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking restored successfully by user " + shared.ActorFromContext(ctx).ID)

	response.WithMessage(w, http.StatusOK, "Booking restored successfully")
}

// GetHistory returns the audit trail of a booking, newest first.
// @Summary Get booking history
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.GetHistoryResponse] "Booking history"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/history [get]
// @Security BearerAuth
func (handler *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetHistory")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	history, err := handler.service.GetHistory(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking history")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, history)
}

// GetAvailability reports whether a boat is free on a day.
// @Summary Check boat availability
// @Tags Availability
// @Produce json
// @Param id path string true "Boat ID"
// @Param date query string true "Day to check (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.AvailabilityResponse] "Availability"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/boats/{id}/availability [get]
func (handler *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAvailability")
	defer scope.End()

	boatID := chi.URLParam(r, constant.RequestParamID)
	date := r.URL.Query().Get(constant.RequestParamDate)

	available, err := handler.service.IsAvailable(ctx, boatID, date)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check boat availability")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, dto.AvailabilityResponse{BoatID: boatID, Date: date, Available: available})
}

// GetUnavailableDates lists the days a boat is held by a booking.
// @Summary Get unavailable dates of a boat
// @Tags Availability
// @Produce json
// @Param id path string true "Boat ID"
// @Success 200 {object} response.Data[dto.UnavailableDatesResponse] "Blocked days"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/boats/{id}/unavailable-dates [get]
func (handler *Handler) GetUnavailableDates(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetUnavailableDates")
	defer scope.End()

	boatID := chi.URLParam(r, constant.RequestParamID)

	dates, err := handler.service.UnavailableDates(ctx, boatID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get unavailable dates")

		response.WithError(w, err)

		return
	}

	if dates == nil {
		dates = []string{}
	}

	response.WithJSON(w, http.StatusOK, dto.UnavailableDatesResponse{BoatID: boatID, Dates: dates})
}

func listRequest(r *http.Request) (gDto.QueryParams, dto.ListFilter, error) {
	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)
	queryParams.RestrictSortBy(sortableFields...)

	filter := dto.ListFilter{}
	filter.FromRequest(r)

	return queryParams, filter, filter.Validate()
}

// validateOptionalBody accepts an empty body for requests whose fields are all optional.
func validateOptionalBody[T any](r *http.Request, req *T) error {
	if r.ContentLength == 0 {
		return nil
	}

	return validator.Validate(r.Body, req) // nolint:wrapcheck
}
