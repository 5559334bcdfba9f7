package service

import (
	"context"
	"testing"
	"time"

	"salonbliss/pkg/config"
	"salonbliss/pkg/logger"
	"salonbliss/pkg/model"
)

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

func newTestScheduler(repo *mockReminderRepository, lead time.Duration) *Scheduler {
	return NewScheduler(repo, &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReminderLead: lead,
	})
}

func bookingFixture(date, timeSlot string) *model.Booking {
	return &model.Booking{
		ID:        "64b0f0a1c2d3e4f5a6b7c8da",
		UserID:    "64b0f0a1c2d3e4f5a6b7c8db",
		ServiceID: "64b0f0a1c2d3e4f5a6b7c8d9",
		Email:     "jo@example.com",
		Date:      date,
		TimeSlot:  timeSlot,
		Status:    model.StatusConfirmed,
	}
}

func TestSchedule_FutureAppointment(t *testing.T) {
	repo := &mockReminderRepository{}
	s := newTestScheduler(repo, 24*time.Hour)

	date := time.Now().AddDate(0, 0, 7).Format(model.DateLayout)
	booking := bookingFixture(date, "10:00 AM")
	svc := &model.Service{ID: booking.ServiceID, Name: "Haircut"}

	if err := s.Schedule(context.Background(), booking, svc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected one reminder, got %d", len(repo.inserted))
	}
	reminder := repo.inserted[0]

	start, err := model.AppointmentStart(booking.Date, booking.TimeSlot)
	if err != nil {
		t.Fatalf("fixture produced invalid appointment: %v", err)
	}
	if !reminder.DueAt.Equal(start.Add(-24 * time.Hour)) {
		t.Errorf("expected due at start minus lead, got %v", reminder.DueAt)
	}
	if reminder.Status != model.ReminderPending {
		t.Errorf("expected pending reminder, got %q", reminder.Status)
	}
	if reminder.ServiceName != "Haircut" {
		t.Errorf("expected service name carried over, got %q", reminder.ServiceName)
	}
	if reminder.Email != booking.Email {
		t.Errorf("expected booking email, got %q", reminder.Email)
	}
}

func TestSchedule_AppointmentTooCloseSkipsReminder(t *testing.T) {
	repo := &mockReminderRepository{}
	s := newTestScheduler(repo, 24*time.Hour)

	// Today's appointment with a 24h lead was due yesterday.
	date := time.Now().Format(model.DateLayout)
	booking := bookingFixture(date, "10:00 AM")

	if err := s.Schedule(context.Background(), booking, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("expected no reminder, got %d", len(repo.inserted))
	}
}

func TestSchedule_NilServiceAllowed(t *testing.T) {
	repo := &mockReminderRepository{}
	s := newTestScheduler(repo, time.Hour)

	date := time.Now().AddDate(0, 0, 7).Format(model.DateLayout)
	booking := bookingFixture(date, "2:00 PM")

	if err := s.Schedule(context.Background(), booking, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].ServiceName != "" {
		t.Errorf("expected reminder with empty service name, got %+v", repo.inserted)
	}
}

func TestSchedule_InvalidAppointmentTime(t *testing.T) {
	repo := &mockReminderRepository{}
	s := newTestScheduler(repo, time.Hour)

	booking := bookingFixture("not-a-date", "10:00 AM")
	if err := s.Schedule(context.Background(), booking, nil); err == nil {
		t.Fatal("expected error for invalid appointment time")
	}
	if len(repo.inserted) != 0 {
		t.Errorf("expected no reminder, got %d", len(repo.inserted))
	}
}
