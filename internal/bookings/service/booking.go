package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "salonbliss/internal/bookings/errors"
	"salonbliss/internal/bookings/repository"
	"salonbliss/internal/bookings/validator"
	catalogerrors "salonbliss/internal/catalog/errors"
	catalogrepo "salonbliss/internal/catalog/repository"
	"salonbliss/internal/notifications"
	"salonbliss/pkg/config"
	apperrors "salonbliss/pkg/errors"
	"salonbliss/pkg/model"
	"salonbliss/pkg/sanitizer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	AvailableSlots(ctx context.Context, serviceID string, date string) ([]string, error)
	Create(ctx context.Context, userID, email, serviceID, date, timeSlot string) (*model.Booking, error)
	MyBookings(ctx context.Context, userID string) ([]*model.BookingView, error)
	ConfirmOffline(ctx context.Context, userID, bookingID, paymentMode string) (*model.Booking, error)
}

type bookingService struct {
	repo        repository.BookingRepository
	lockRepo    repository.SlotLockRepository
	serviceRepo catalogrepo.ServiceRepository
	validator   *validator.BookingValidator
	mailer      notifications.Mailer
	events      *notifications.EventPublisher
	cfg         *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.SlotLockRepository,
	serviceRepo catalogrepo.ServiceRepository,
	validator *validator.BookingValidator,
	mailer notifications.Mailer,
	events *notifications.EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:        repo,
		lockRepo:    lockRepo,
		serviceRepo: serviceRepo,
		validator:   validator,
		mailer:      mailer,
		events:      events,
		cfg:         cfg,
	}
}

// AvailableSlots returns the catalog labels, in order, that still have
// capacity for the service on the given date.
func (s *bookingService) AvailableSlots(ctx context.Context, serviceID string, date string) ([]string, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	svc, err := s.findService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountsByServiceAndDate(ctx, serviceID, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load slot occupancy", "service_id", serviceID, "date", date, "error", err)
		return nil, apperrors.Internal("Failed to compute availability", err)
	}

	capacity := effectiveCapacity(svc)
	available := make([]string, 0, len(model.SlotLabels()))
	for _, label := range model.SlotLabels() {
		if counts[label] < capacity {
			available = append(available, label)
		}
	}

	return available, nil
}

func (s *bookingService) Create(ctx context.Context, userID, email, serviceID, date, timeSlot string) (*model.Booking, error) {
	booking := &model.Booking{
		UserID:        userID,
		ServiceID:     serviceID,
		Email:         sanitizer.NormalizeEmail(email),
		Date:          sanitizer.TrimAndNormalize(date),
		TimeSlot:      sanitizer.NormalizeSlotLabel(timeSlot),
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: model.MethodStripe,
	}

	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	svc, err := s.findService(ctx, booking.ServiceID)
	if err != nil {
		return nil, err
	}
	capacity := effectiveCapacity(svc)

	// Advisory lock serializes creation for this slot across requests.
	lockID, err := s.acquireSlotLock(ctx, booking.ServiceID, booking.Date, booking.TimeSlot)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		count, err := s.repo.CountBySlot(sessCtx, booking.ServiceID, booking.Date, booking.TimeSlot)
		if err != nil {
			return apperrors.Internal("Failed to check slot occupancy", err)
		}
		if count >= capacity {
			return apperrors.Conflict("This time slot is fully booked")
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"service_id", booking.ServiceID,
		"date", booking.Date,
		"time_slot", booking.TimeSlot,
	)
	s.events.BookingCreated(ctx, booking)
	return booking, nil
}

func (s *bookingService) MyBookings(ctx context.Context, userID string) ([]*model.BookingView, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	bookings, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	// Populate service documents, caching per distinct service id.
	services := make(map[string]*model.Service)
	views := make([]*model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		svc, ok := services[b.ServiceID]
		if !ok {
			svc, err = s.serviceRepo.FindByID(ctx, b.ServiceID)
			if err != nil {
				s.cfg.Log.Warn("Failed to populate service for booking", "booking_id", b.ID, "service_id", b.ServiceID, "error", err)
				svc = nil
			}
			services[b.ServiceID] = svc
		}
		views = append(views, &model.BookingView{
			ID:       b.ID,
			Date:     b.Date,
			TimeSlot: b.TimeSlot,
			Status:   b.Status,
			Service:  svc,
		})
	}

	return views, nil
}

func (s *bookingService) ConfirmOffline(ctx context.Context, userID, bookingID, paymentMode string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, apperrors.Forbidden("Booking belongs to another user")
	}

	mode := sanitizer.NormalizePaymentMode(paymentMode)
	if mode == "" {
		mode = model.MethodCash
	}

	first, updated, err := s.repo.ConfirmOnce(ctx, bookingID, repository.ConfirmUpdate{
		Status:        model.StatusConfirmed,
		PaymentStatus: mode,
		PaymentMethod: mode,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to confirm booking offline", "id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to confirm booking", err)
	}

	if first {
		s.sendConfirmationEmail(ctx, updated)
		s.events.BookingConfirmed(ctx, updated)
	}

	s.cfg.Log.Info("Booking confirmed offline",
		"id", bookingID,
		"payment_mode", mode,
		"first_confirmation", first,
	)
	return updated, nil
}

// --- Helpers ---

func (s *bookingService) findService(ctx context.Context, serviceID string) (*model.Service, error) {
	svc, err := s.serviceRepo.FindByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid service ID format")
		}
		if errors.Is(err, catalogerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service", serviceID)
		}
		return nil, apperrors.Internal("Failed to retrieve service", err)
	}
	return svc, nil
}

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
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

func (s *bookingService) sendConfirmationEmail(ctx context.Context, booking *model.Booking) {
	svc, err := s.serviceRepo.FindByID(ctx, booking.ServiceID)
	if err != nil {
		svc = nil
	}
	if err := s.mailer.SendBookingConfirmation(booking, svc); err != nil {
		s.cfg.Log.Error("Failed to send confirmation email", "booking_id", booking.ID, "error", err)
	}
}

func effectiveCapacity(svc *model.Service) int64 {
	if svc.Capacity <= 0 {
		return 1
	}
	return int64(svc.Capacity)
}

// acquireSlotLock creates an advisory lock keyed by the slot coordinates.
// Returns Conflict when another request holds it.
func (s *bookingService) acquireSlotLock(ctx context.Context, serviceID, date, timeSlot string) (string, error) {
	lockID := fmt.Sprintf("slot_lock_%s_%s_%s", serviceID, date, timeSlot)

	lock := &model.SlotLock{
		ID:        lockID,
		Owner:     uuid.New().String(),
		ExpiresAt: time.Now().Add(10 * time.Second),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
