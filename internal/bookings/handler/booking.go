package handler

import (
	"encoding/json"
	"net/http"

	"salonbliss/internal/bookings/service"
	apperrors "salonbliss/pkg/errors"
	httputil "salonbliss/pkg/http"
	"salonbliss/pkg/logger"
	"salonbliss/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, auth *middleware.Authenticator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

type createBookingRequest struct {
	ServiceID string `json:"serviceId"`
	Date      string `json:"date"`
	TimeSlot  string `json:"timeSlot"`
}

type confirmOfflineRequest struct {
	BookingID   string `json:"bookingId"`
	PaymentMode string `json:"paymentMode"`
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	serviceID := ps.ByName("serviceId")
	date := ps.ByName("date")

	slots, err := h.service.AvailableSlots(r.Context(), serviceID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{"availableSlots": slots}); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Authentication required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.Create(r.Context(), identity.UserID, identity.Email, req.ServiceID, req.Date, req.TimeSlot)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, map[string]any{
		"message": "Booking created successfully",
		"booking": booking,
	}); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) MyBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Authentication required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "MyBookings", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	views, err := h.service.MyBookings(r.Context(), identity.UserID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "MyBookings", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, views); err != nil {
		h.log.Error("failed to write success response", "handler", "MyBookings", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ConfirmOffline(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Authentication required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ConfirmOffline", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var req confirmOfflineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "ConfirmOffline", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.ConfirmOffline(r.Context(), identity.UserID, req.BookingID, req.PaymentMode)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ConfirmOffline", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{
		"success": true,
		"booking": booking,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "ConfirmOffline", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/bookings/availability/:serviceId/:date", h.Availability)
	router.POST("/api/bookings", h.auth.Require(h.Create))
	router.GET("/api/bookings/my-bookings", h.auth.Require(h.MyBookings))
	router.POST("/api/bookings/confirm-offline", h.auth.Require(h.ConfirmOffline))
}
