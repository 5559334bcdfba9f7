package service

import (
	"context"
	"testing"
	"time"

	bookingrepo "salonbliss/internal/bookings/repository"
	"salonbliss/internal/payments/gateway"
	reminderrepo "salonbliss/internal/reminders/repository"
	reminders "salonbliss/internal/reminders/service"
	"salonbliss/pkg/config"
	mongotx "salonbliss/pkg/db/mongo"
	apperrors "salonbliss/pkg/errors"
	"salonbliss/pkg/logger"
	"salonbliss/pkg/model"
)

const (
	testServiceID = "64b0f0a1c2d3e4f5a6b7c8d9"
	testBookingID = "64b0f0a1c2d3e4f5a6b7c8da"
	testUserID    = "64b0f0a1c2d3e4f5a6b7c8db"
	testIntentID  = "pi_123"
)

// Mocks

type mockBookingRepository struct {
	findByIDFunc    func(ctx context.Context, id string) (*model.Booking, error)
	setIntentFunc   func(ctx context.Context, id, intentID string) error
	confirmOnceFunc func(ctx context.Context, id string, upd bookingrepo.ConfirmUpdate) (bool, *model.Booking, error)
	markFailedFunc  func(ctx context.Context, id, stripePaymentID string) (*model.Booking, error)

	confirmCalls int
	failedCalls  int
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Booking{ID: id, UserID: testUserID, ServiceID: testServiceID, Email: "jo@example.com"}, nil
}

func (m *mockBookingRepository) FindByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) CountBySlot(ctx context.Context, serviceID, date, timeSlot string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) CountsByServiceAndDate(ctx context.Context, serviceID, date string) (map[string]int64, error) {
	return nil, nil
}

func (m *mockBookingRepository) SetPaymentIntent(ctx context.Context, id, intentID string) error {
	if m.setIntentFunc != nil {
		return m.setIntentFunc(ctx, id, intentID)
	}
	return nil
}

func (m *mockBookingRepository) ConfirmOnce(ctx context.Context, id string, upd bookingrepo.ConfirmUpdate) (bool, *model.Booking, error) {
	m.confirmCalls++
	if m.confirmOnceFunc != nil {
		return m.confirmOnceFunc(ctx, id, upd)
	}
	return true, &model.Booking{
		ID:            id,
		UserID:        testUserID,
		ServiceID:     testServiceID,
		Email:         "jo@example.com",
		Date:          time.Now().AddDate(0, 0, 7).Format(model.DateLayout),
		TimeSlot:      "10:00 AM",
		Status:        upd.Status,
		PaymentStatus: upd.PaymentStatus,
	}, nil
}

func (m *mockBookingRepository) MarkPaymentFailed(ctx context.Context, id, stripePaymentID string) (*model.Booking, error) {
	m.failedCalls++
	if m.markFailedFunc != nil {
		return m.markFailedFunc(ctx, id, stripePaymentID)
	}
	return &model.Booking{ID: id, Status: model.StatusPaymentFailed, PaymentStatus: model.PaymentFailed}, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockServiceRepository struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Service, error)
}

func (m *mockServiceRepository) FindByID(ctx context.Context, id string) (*model.Service, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Service{ID: id, Name: "Haircut", Price: 35.50, Capacity: 2}, nil
}

func (m *mockServiceRepository) FindAll(ctx context.Context) ([]*model.Service, error) {
	return nil, nil
}

type mockGateway struct {
	createFunc   func(ctx context.Context, amount int64, currency string, meta gateway.IntentMetadata) (*gateway.Intent, error)
	retrieveFunc func(ctx context.Context, id string) (*gateway.Intent, error)
	cancelFunc   func(ctx context.Context, id string) error
	verifyFunc   func(payload []byte, sigHeader string) (*gateway.WebhookEvent, error)

	cancelled []string
}

func (m *mockGateway) CreateIntent(ctx context.Context, amount int64, currency string, meta gateway.IntentMetadata) (*gateway.Intent, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, amount, currency, meta)
	}
	return &gateway.Intent{
		ID:           testIntentID,
		ClientSecret: "secret_123",
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     currency,
		Metadata:     map[string]string{"bookingId": meta.BookingID},
	}, nil
}

func (m *mockGateway) RetrieveIntent(ctx context.Context, id string) (*gateway.Intent, error) {
	if m.retrieveFunc != nil {
		return m.retrieveFunc(ctx, id)
	}
	return &gateway.Intent{ID: id, Status: gateway.IntentSucceeded, Metadata: map[string]string{"bookingId": testBookingID}}, nil
}

func (m *mockGateway) CancelIntent(ctx context.Context, id string) error {
	m.cancelled = append(m.cancelled, id)
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id)
	}
	return nil
}

func (m *mockGateway) VerifyWebhook(payload []byte, sigHeader string) (*gateway.WebhookEvent, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(payload, sigHeader)
	}
	return &gateway.WebhookEvent{Type: "unknown"}, nil
}

type mockMailer struct {
	confirmations []string
	reminders     []string
}

func (m *mockMailer) SendBookingConfirmation(booking *model.Booking, _ *model.Service) error {
	m.confirmations = append(m.confirmations, booking.ID)
	return nil
}

func (m *mockMailer) SendBookingReminder(reminder *model.Reminder) error {
	m.reminders = append(m.reminders, reminder.BookingID)
	return nil
}

type mockReminderRepository struct {
	inserted []*model.Reminder
}

func (m *mockReminderRepository) Insert(ctx context.Context, reminder *model.Reminder) error {
	m.inserted = append(m.inserted, reminder)
	return nil
}

func (m *mockReminderRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
	return nil, nil
}

func (m *mockReminderRepository) RequeueStale(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

func (m *mockReminderRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	return nil
}

func (m *mockReminderRepository) MarkFailed(ctx context.Context, id string) error {
	return nil
}

var _ reminderrepo.ReminderRepository = (*mockReminderRepository)(nil)

type fixture struct {
	repo         *mockBookingRepository
	serviceRepo  *mockServiceRepository
	gateway      *mockGateway
	mailer       *mockMailer
	reminderRepo *mockReminderRepository
	service      *paymentService
}

func newFixture() *fixture {
	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		PaymentCurrency: "usd",
		ReminderLead:    24 * time.Hour,
	}

	f := &fixture{
		repo:         &mockBookingRepository{},
		serviceRepo:  &mockServiceRepository{},
		gateway:      &mockGateway{},
		mailer:       &mockMailer{},
		reminderRepo: &mockReminderRepository{},
	}
	f.service = &paymentService{
		repo:        f.repo,
		serviceRepo: f.serviceRepo,
		gateway:     f.gateway,
		mailer:      f.mailer,
		scheduler:   reminders.NewScheduler(f.reminderRepo, cfg),
		cfg:         cfg,
	}
	return f
}

func succeededEvent(intentID, bookingID string) *gateway.WebhookEvent {
	return &gateway.WebhookEvent{
		Type: gateway.EventIntentSucceeded,
		Intent: &gateway.Intent{
			ID:       intentID,
			Status:   gateway.IntentSucceeded,
			Metadata: map[string]string{"bookingId": bookingID},
		},
	}
}

func TestCreateIntent_AmountFromPrice(t *testing.T) {
	f := newFixture()

	var gotAmount int64
	var gotMeta gateway.IntentMetadata
	f.gateway.createFunc = func(ctx context.Context, amount int64, currency string, meta gateway.IntentMetadata) (*gateway.Intent, error) {
		gotAmount = amount
		gotMeta = meta
		return &gateway.Intent{ID: testIntentID, ClientSecret: "secret_123", Amount: amount, Currency: currency}, nil
	}

	result, err := f.service.CreateIntent(context.Background(), testUserID, testBookingID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAmount != 3550 {
		t.Errorf("expected amount 3550 minor units, got %d", gotAmount)
	}
	if gotMeta.BookingID != testBookingID {
		t.Errorf("expected booking id in metadata, got %q", gotMeta.BookingID)
	}
	if result.ClientSecret != "secret_123" {
		t.Errorf("expected client secret, got %q", result.ClientSecret)
	}
	if result.Currency != "usd" {
		t.Errorf("expected currency usd, got %q", result.Currency)
	}
}

func TestCreateIntent_SupersedesPriorIntent(t *testing.T) {
	f := newFixture()
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, UserID: testUserID, ServiceID: testServiceID, PaymentIntentID: "pi_old"}, nil
	}

	if _, err := f.service.CreateIntent(context.Background(), testUserID, testBookingID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.gateway.cancelled) != 1 || f.gateway.cancelled[0] != "pi_old" {
		t.Errorf("expected prior intent pi_old cancelled, got %v", f.gateway.cancelled)
	}
}

func TestCreateIntent_Forbidden(t *testing.T) {
	f := newFixture()
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, UserID: "someone-else"}, nil
	}

	_, err := f.service.CreateIntent(context.Background(), testUserID, testBookingID)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
}

func TestConfirm_Success(t *testing.T) {
	f := newFixture()

	booking, err := f.service.Confirm(context.Background(), testIntentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != model.StatusConfirmed {
		t.Errorf("expected status confirmed, got %q", booking.Status)
	}
	if booking.PaymentStatus != model.PaymentPaid {
		t.Errorf("expected payment status paid, got %q", booking.PaymentStatus)
	}
	if len(f.mailer.confirmations) != 1 {
		t.Errorf("expected one confirmation email, got %d", len(f.mailer.confirmations))
	}
}

func TestConfirm_NotSucceeded(t *testing.T) {
	f := newFixture()
	f.gateway.retrieveFunc = func(ctx context.Context, id string) (*gateway.Intent, error) {
		return &gateway.Intent{ID: id, Status: "requires_payment_method"}, nil
	}

	_, err := f.service.Confirm(context.Background(), testIntentID)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
	if f.repo.confirmCalls != 0 {
		t.Errorf("expected no booking mutation, got %d confirm calls", f.repo.confirmCalls)
	}
}

func TestConfirm_DuplicateDoesNotResendEmail(t *testing.T) {
	f := newFixture()
	f.repo.confirmOnceFunc = func(ctx context.Context, id string, upd bookingrepo.ConfirmUpdate) (bool, *model.Booking, error) {
		return false, &model.Booking{ID: id, Status: model.StatusConfirmed, PaymentStatus: model.PaymentPaid}, nil
	}

	if _, err := f.service.Confirm(context.Background(), testIntentID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.mailer.confirmations) != 0 {
		t.Errorf("expected no email on duplicate confirmation, got %d", len(f.mailer.confirmations))
	}
}

func TestStatus_NoIntent(t *testing.T) {
	f := newFixture()
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, UserID: testUserID, Status: model.StatusPending, PaymentStatus: model.PaymentPending}, nil
	}

	result, err := f.service.Status(context.Background(), testUserID, testBookingID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PaymentStatus != PaymentStatusNone {
		t.Errorf("expected %q, got %q", PaymentStatusNone, result.PaymentStatus)
	}
	if result.PaymentIntentID != "" {
		t.Errorf("expected no intent fields, got %q", result.PaymentIntentID)
	}
}

func TestStatus_LiveIntentSnapshot(t *testing.T) {
	f := newFixture()
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, UserID: testUserID, Status: model.StatusPending, PaymentIntentID: testIntentID}, nil
	}
	f.gateway.retrieveFunc = func(ctx context.Context, id string) (*gateway.Intent, error) {
		return &gateway.Intent{
			ID:                 id,
			Status:             "processing",
			Amount:             3550,
			Currency:           "usd",
			PaymentMethodTypes: []string{"card"},
			Created:            1700000000,
		}, nil
	}

	result, err := f.service.Status(context.Background(), testUserID, testBookingID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PaymentStatus != "processing" {
		t.Errorf("expected live intent status, got %q", result.PaymentStatus)
	}
	if result.Amount != 3550 || result.Currency != "usd" {
		t.Errorf("expected intent amount/currency, got %d %q", result.Amount, result.Currency)
	}
}

func TestStatus_Forbidden(t *testing.T) {
	f := newFixture()
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, UserID: "someone-else"}, nil
	}

	_, err := f.service.Status(context.Background(), testUserID, testBookingID)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	f := newFixture()
	f.gateway.verifyFunc = func(payload []byte, sigHeader string) (*gateway.WebhookEvent, error) {
		return nil, apperrors.Signature("Webhook signature verification failed", nil)
	}

	err := f.service.HandleWebhook(context.Background(), []byte("{}"), "bad-sig")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeSignature {
		t.Errorf("expected %s, got %s", apperrors.CodeSignature, appErr.Code)
	}
	if f.repo.confirmCalls != 0 || f.repo.failedCalls != 0 {
		t.Error("expected no processing after failed verification")
	}
}

func TestHandleWebhook_SucceededConfirmsAndSchedulesReminder(t *testing.T) {
	f := newFixture()
	f.gateway.verifyFunc = func(payload []byte, sigHeader string) (*gateway.WebhookEvent, error) {
		return succeededEvent(testIntentID, testBookingID), nil
	}

	if err := f.service.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.repo.confirmCalls != 1 {
		t.Errorf("expected one confirmation, got %d", f.repo.confirmCalls)
	}
	if len(f.mailer.confirmations) != 1 {
		t.Errorf("expected one confirmation email, got %d", len(f.mailer.confirmations))
	}
	if len(f.reminderRepo.inserted) != 1 {
		t.Fatalf("expected one reminder scheduled, got %d", len(f.reminderRepo.inserted))
	}
	reminder := f.reminderRepo.inserted[0]
	if reminder.BookingID != testBookingID || reminder.Status != model.ReminderPending {
		t.Errorf("unexpected reminder: %+v", reminder)
	}
}

func TestHandleWebhook_RedeliveredSuccessSchedulesOnce(t *testing.T) {
	f := newFixture()
	f.gateway.verifyFunc = func(payload []byte, sigHeader string) (*gateway.WebhookEvent, error) {
		return succeededEvent(testIntentID, testBookingID), nil
	}
	f.repo.confirmOnceFunc = func(ctx context.Context, id string, upd bookingrepo.ConfirmUpdate) (bool, *model.Booking, error) {
		first := f.repo.confirmCalls == 1
		return first, &model.Booking{
			ID:            id,
			UserID:        testUserID,
			ServiceID:     testServiceID,
			Email:         "jo@example.com",
			Date:          time.Now().AddDate(0, 0, 7).Format(model.DateLayout),
			TimeSlot:      "10:00 AM",
			Status:        model.StatusConfirmed,
			PaymentStatus: model.PaymentPaid,
		}, nil
	}

	for i := 0; i < 2; i++ {
		if err := f.service.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i+1, err)
		}
	}

	if len(f.reminderRepo.inserted) != 1 {
		t.Errorf("expected 1 reminder after redelivery, got %d", len(f.reminderRepo.inserted))
	}
	if len(f.mailer.confirmations) != 1 {
		t.Errorf("expected 1 confirmation email after redelivery, got %d", len(f.mailer.confirmations))
	}
}

func TestHandleWebhook_FailedMarksBooking(t *testing.T) {
	for _, eventType := range []string{gateway.EventIntentFailed, gateway.EventIntentCanceled} {
		f := newFixture()
		f.gateway.verifyFunc = func(payload []byte, sigHeader string) (*gateway.WebhookEvent, error) {
			return &gateway.WebhookEvent{
				Type: eventType,
				Intent: &gateway.Intent{
					ID:       testIntentID,
					Metadata: map[string]string{"bookingId": testBookingID},
				},
			}, nil
		}

		if err := f.service.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
			t.Fatalf("%s: unexpected error: %v", eventType, err)
		}
		if f.repo.failedCalls != 1 {
			t.Errorf("%s: expected booking marked failed, got %d calls", eventType, f.repo.failedCalls)
		}
		if len(f.mailer.confirmations) != 0 {
			t.Errorf("%s: expected no confirmation email", eventType)
		}
	}
}

func TestHandleWebhook_UnknownEventAcknowledged(t *testing.T) {
	f := newFixture()
	f.gateway.verifyFunc = func(payload []byte, sigHeader string) (*gateway.WebhookEvent, error) {
		return &gateway.WebhookEvent{Type: "charge.refunded"}, nil
	}

	if err := f.service.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.repo.confirmCalls != 0 || f.repo.failedCalls != 0 {
		t.Error("expected unknown event to be ignored")
	}
}

func TestHandleWebhook_ProcessingErrorSwallowed(t *testing.T) {
	f := newFixture()
	f.gateway.verifyFunc = func(payload []byte, sigHeader string) (*gateway.WebhookEvent, error) {
		return succeededEvent(testIntentID, testBookingID), nil
	}
	f.repo.confirmOnceFunc = func(ctx context.Context, id string, upd bookingrepo.ConfirmUpdate) (bool, *model.Booking, error) {
		return false, nil, apperrors.Internal("db down", nil)
	}

	if err := f.service.HandleWebhook(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Errorf("expected processing error swallowed, got %v", err)
	}
}
