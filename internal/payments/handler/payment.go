package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"salonbliss/internal/payments/service"
	apperrors "salonbliss/pkg/errors"
	httputil "salonbliss/pkg/http"
	"salonbliss/pkg/logger"
	"salonbliss/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type PaymentHandler struct {
	service service.PaymentService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, auth *middleware.Authenticator, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

type createIntentRequest struct {
	BookingID string `json:"bookingId"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Authentication required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateIntent", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateIntent", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	result, err := h.service.CreateIntent(r.Context(), identity.UserID, req.BookingID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateIntent", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "CreateIntent", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Confirm", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.Confirm(r.Context(), req.PaymentIntentID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Confirm", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{
		"success": true,
		"booking": booking,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Confirm", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Authentication required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Status", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	result, err := h.service.Status(r.Context(), identity.UserID, ps.ByName("bookingId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Status", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Status", "operation", "WriteSuccess", "error", err)
	}
}

// Webhook consumes the raw request body; the signature header is the only
// authentication this endpoint has.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Failed to read request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Webhook", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Webhook", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{"received": true}); err != nil {
		h.log.Error("failed to write success response", "handler", "Webhook", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/payment/create-payment-intent", h.auth.Require(h.CreateIntent))
	router.POST("/api/payment/confirm", h.auth.Require(h.Confirm))
	router.GET("/api/payment/status/:bookingId", h.auth.Require(h.Status))
	router.POST("/api/payment/webhook", h.Webhook)
}
