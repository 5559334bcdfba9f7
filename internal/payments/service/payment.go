package service

import (
	"context"
	"errors"
	"math"

	bookingserrors "salonbliss/internal/bookings/errors"
	bookingrepo "salonbliss/internal/bookings/repository"
	catalogerrors "salonbliss/internal/catalog/errors"
	catalogrepo "salonbliss/internal/catalog/repository"
	"salonbliss/internal/notifications"
	"salonbliss/internal/payments/gateway"
	reminders "salonbliss/internal/reminders/service"
	"salonbliss/pkg/config"
	apperrors "salonbliss/pkg/errors"
	"salonbliss/pkg/model"
)

// IntentResult is what the client needs to complete a payment.
type IntentResult struct {
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// StatusResult is the payment status snapshot for one booking. Intent fields
// are present only when the booking holds a payment intent.
type StatusResult struct {
	BookingID          string   `json:"bookingId"`
	BookingStatus      string   `json:"bookingStatus"`
	PaymentStatus      string   `json:"paymentStatus"`
	PaymentIntentID    string   `json:"paymentIntentId,omitempty"`
	Amount             int64    `json:"amount,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	PaymentMethodTypes []string `json:"paymentMethodTypes,omitempty"`
	Created            int64    `json:"created,omitempty"`
}

// PaymentStatusNone is reported when a booking never entered the card flow.
const PaymentStatusNone = "no_payment"

type PaymentService interface {
	CreateIntent(ctx context.Context, userID, bookingID string) (*IntentResult, error)
	Confirm(ctx context.Context, paymentIntentID string) (*model.Booking, error)
	Status(ctx context.Context, userID, bookingID string) (*StatusResult, error)
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

type paymentService struct {
	repo        bookingrepo.BookingRepository
	serviceRepo catalogrepo.ServiceRepository
	gateway     gateway.Gateway
	mailer      notifications.Mailer
	scheduler   *reminders.Scheduler
	events      *notifications.EventPublisher
	cfg         *config.Config
}

func NewPaymentService(
	repo bookingrepo.BookingRepository,
	serviceRepo catalogrepo.ServiceRepository,
	gw gateway.Gateway,
	mailer notifications.Mailer,
	scheduler *reminders.Scheduler,
	events *notifications.EventPublisher,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		repo:        repo,
		serviceRepo: serviceRepo,
		gateway:     gw,
		mailer:      mailer,
		scheduler:   scheduler,
		events:      events,
		cfg:         cfg,
	}
}

func (s *paymentService) CreateIntent(ctx context.Context, userID, bookingID string) (*IntentResult, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, apperrors.Forbidden("Booking belongs to another user")
	}

	svc, err := s.serviceRepo.FindByID(ctx, booking.ServiceID)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrNotFound) || errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Service", booking.ServiceID)
		}
		return nil, apperrors.Internal("Failed to retrieve service", err)
	}

	amount := int64(math.Round(svc.Price * 100))
	if amount <= 0 {
		return nil, apperrors.InvalidInput("Service price must be positive")
	}

	// A booking that re-enters the payment flow supersedes its old intent:
	// cancel it at the gateway so only the latest one can succeed.
	if booking.PaymentIntentID != "" {
		if err := s.gateway.CancelIntent(ctx, booking.PaymentIntentID); err != nil {
			s.cfg.Log.Warn("Failed to cancel superseded payment intent",
				"booking_id", booking.ID,
				"payment_intent_id", booking.PaymentIntentID,
				"error", err,
			)
		}
	}

	intent, err := s.gateway.CreateIntent(ctx, amount, s.cfg.PaymentCurrency, gateway.IntentMetadata{
		BookingID: booking.ID,
		ServiceID: booking.ServiceID,
		UserID:    booking.UserID,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create payment intent", "booking_id", booking.ID, "error", err)
		return nil, err
	}

	if err := s.repo.SetPaymentIntent(ctx, booking.ID, intent.ID); err != nil {
		s.cfg.Log.Error("Failed to persist payment intent id", "booking_id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to store payment intent", err)
	}

	s.cfg.Log.Info("Payment intent created",
		"booking_id", booking.ID,
		"payment_intent_id", intent.ID,
		"amount", amount,
	)
	return &IntentResult{
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	}, nil
}

func (s *paymentService) Confirm(ctx context.Context, paymentIntentID string) (*model.Booking, error) {
	if paymentIntentID == "" {
		return nil, apperrors.InvalidInput("Payment intent ID cannot be empty")
	}

	intent, err := s.gateway.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		s.cfg.Log.Error("Failed to retrieve payment intent", "payment_intent_id", paymentIntentID, "error", err)
		return nil, err
	}

	if intent.Status != gateway.IntentSucceeded {
		return nil, apperrors.InvalidInput("Payment not successful")
	}

	bookingID := intent.Metadata["bookingId"]
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Payment intent carries no booking reference")
	}

	first, booking, err := s.repo.ConfirmOnce(ctx, bookingID, bookingrepo.ConfirmUpdate{
		Status:          model.StatusConfirmed,
		PaymentStatus:   model.PaymentPaid,
		PaymentMethod:   model.MethodStripe,
		StripePaymentID: intent.ID,
	})
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to confirm booking", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to confirm booking", err)
	}

	if first {
		s.sendConfirmationEmail(ctx, booking)
		s.events.BookingConfirmed(ctx, booking)
	}

	s.cfg.Log.Info("Payment confirmed",
		"booking_id", bookingID,
		"payment_intent_id", intent.ID,
		"first_confirmation", first,
	)
	return booking, nil
}

func (s *paymentService) Status(ctx context.Context, userID, bookingID string) (*StatusResult, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, apperrors.Forbidden("Booking belongs to another user")
	}

	result := &StatusResult{
		BookingID:     booking.ID,
		BookingStatus: booking.Status,
		PaymentStatus: booking.PaymentStatus,
	}

	if booking.PaymentIntentID == "" {
		result.PaymentStatus = PaymentStatusNone
		return result, nil
	}

	intent, err := s.gateway.RetrieveIntent(ctx, booking.PaymentIntentID)
	if err != nil {
		s.cfg.Log.Error("Failed to retrieve payment intent for status", "booking_id", bookingID, "error", err)
		return nil, err
	}

	result.PaymentStatus = intent.Status
	result.PaymentIntentID = intent.ID
	result.Amount = intent.Amount
	result.Currency = intent.Currency
	result.PaymentMethodTypes = intent.PaymentMethodTypes
	result.Created = intent.Created
	return result, nil
}

// HandleWebhook verifies and processes a gateway webhook delivery.
// Verification failures are returned to the caller; processing failures after
// a verified signature are logged and swallowed so the gateway does not
// endlessly redeliver events we cannot apply.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.gateway.VerifyWebhook(payload, sigHeader)
	if err != nil {
		s.cfg.Log.Warn("Webhook verification failed", "error", err)
		return err
	}

	switch event.Type {
	case gateway.EventIntentSucceeded:
		s.applyIntentSucceeded(ctx, event.Intent)
	case gateway.EventIntentFailed, gateway.EventIntentCanceled:
		s.applyIntentFailed(ctx, event.Intent)
	default:
		s.cfg.Log.Debug("Ignoring webhook event", "event_type", event.Type)
	}

	return nil
}

func (s *paymentService) applyIntentSucceeded(ctx context.Context, intent *gateway.Intent) {
	bookingID := intent.Metadata["bookingId"]
	if bookingID == "" {
		s.cfg.Log.Error("Webhook intent carries no booking reference", "payment_intent_id", intent.ID)
		return
	}

	first, booking, err := s.repo.ConfirmOnce(ctx, bookingID, bookingrepo.ConfirmUpdate{
		Status:          model.StatusConfirmed,
		PaymentStatus:   model.PaymentPaid,
		PaymentMethod:   model.MethodStripe,
		StripePaymentID: intent.ID,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to apply webhook confirmation", "booking_id", bookingID, "error", err)
		return
	}

	// Stripe delivers webhooks at least once. Only the delivery that wins the
	// confirmation claim sends the email, publishes the event, and schedules
	// the reminder; redeliveries change nothing.
	if first {
		s.sendConfirmationEmail(ctx, booking)
		s.events.BookingConfirmed(ctx, booking)

		svc, err := s.serviceRepo.FindByID(ctx, booking.ServiceID)
		if err != nil {
			svc = nil
		}
		if err := s.scheduler.Schedule(ctx, booking, svc); err != nil {
			s.cfg.Log.Error("Failed to schedule reminder", "booking_id", bookingID, "error", err)
		}
	}

	s.cfg.Log.Info("Webhook confirmed booking",
		"booking_id", bookingID,
		"payment_intent_id", intent.ID,
		"first_confirmation", first,
	)
}

func (s *paymentService) applyIntentFailed(ctx context.Context, intent *gateway.Intent) {
	bookingID := intent.Metadata["bookingId"]
	if bookingID == "" {
		s.cfg.Log.Error("Webhook intent carries no booking reference", "payment_intent_id", intent.ID)
		return
	}

	booking, err := s.repo.MarkPaymentFailed(ctx, bookingID, intent.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to mark booking payment failed", "booking_id", bookingID, "error", err)
		return
	}

	s.events.PaymentFailed(ctx, booking)
	s.cfg.Log.Info("Webhook marked payment failed",
		"booking_id", bookingID,
		"payment_intent_id", intent.ID,
	)
}

func (s *paymentService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *paymentService) sendConfirmationEmail(ctx context.Context, booking *model.Booking) {
	svc, err := s.serviceRepo.FindByID(ctx, booking.ServiceID)
	if err != nil {
		svc = nil
	}
	if err := s.mailer.SendBookingConfirmation(booking, svc); err != nil {
		s.cfg.Log.Error("Failed to send confirmation email", "booking_id", booking.ID, "error", err)
	}
}
