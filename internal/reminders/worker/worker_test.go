package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"salonbliss/pkg/config"
	"salonbliss/pkg/logger"
	"salonbliss/pkg/model"
)

type mockReminderRepository struct {
	due    []*model.Reminder
	sent   []string
	failed []string

	claimErr       error
	requeued       int64
	requeueCutoffs []time.Time
}

func (m *mockReminderRepository) Insert(ctx context.Context, reminder *model.Reminder) error {
	return nil
}

func (m *mockReminderRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	if len(m.due) > limit {
		return m.due[:limit], nil
	}
	return m.due, nil
}

func (m *mockReminderRepository) RequeueStale(ctx context.Context, olderThan time.Time) (int64, error) {
	m.requeueCutoffs = append(m.requeueCutoffs, olderThan)
	return m.requeued, nil
}

func (m *mockReminderRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	m.sent = append(m.sent, id)
	return nil
}

func (m *mockReminderRepository) MarkFailed(ctx context.Context, id string) error {
	m.failed = append(m.failed, id)
	return nil
}

type mockMailer struct {
	reminders []string
	sendErr   error
}

func (m *mockMailer) SendBookingConfirmation(booking *model.Booking, service *model.Service) error {
	return nil
}

func (m *mockMailer) SendBookingReminder(reminder *model.Reminder) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.reminders = append(m.reminders, reminder.ID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReminderPollInterval: time.Minute,
	}
}

func reminderFixture(id string) *model.Reminder {
	return &model.Reminder{
		ID:        id,
		BookingID: "64b0f0a1c2d3e4f5a6b7c8da",
		Email:     "jo@example.com",
		Date:      "2026-09-07",
		TimeSlot:  "10:00 AM",
		DueAt:     time.Now().Add(-time.Minute),
		Status:    model.ReminderSending,
	}
}

func TestRunOnce_SendsAndMarksSent(t *testing.T) {
	repo := &mockReminderRepository{
		due: []*model.Reminder{reminderFixture("r1"), reminderFixture("r2")},
	}
	mailer := &mockMailer{}
	w := New(repo, mailer, testConfig())

	w.runOnce(context.Background())

	if len(mailer.reminders) != 2 {
		t.Fatalf("expected 2 reminder emails, got %d", len(mailer.reminders))
	}
	if len(repo.sent) != 2 {
		t.Errorf("expected 2 reminders marked sent, got %d", len(repo.sent))
	}
	if len(repo.failed) != 0 {
		t.Errorf("expected no failures, got %v", repo.failed)
	}
}

func TestRunOnce_SendFailureMarksFailed(t *testing.T) {
	repo := &mockReminderRepository{
		due: []*model.Reminder{reminderFixture("r1")},
	}
	mailer := &mockMailer{sendErr: errors.New("smtp unavailable")}
	w := New(repo, mailer, testConfig())

	w.runOnce(context.Background())

	if len(repo.sent) != 0 {
		t.Errorf("expected nothing marked sent, got %v", repo.sent)
	}
	if len(repo.failed) != 1 || repo.failed[0] != "r1" {
		t.Errorf("expected r1 marked failed, got %v", repo.failed)
	}
}

func TestRunOnce_RequeuesStaleClaimsBeforeClaiming(t *testing.T) {
	repo := &mockReminderRepository{requeued: 2}
	w := New(repo, &mockMailer{}, testConfig())

	before := time.Now()
	w.runOnce(context.Background())

	if len(repo.requeueCutoffs) != 1 {
		t.Fatalf("expected one stale sweep per pass, got %d", len(repo.requeueCutoffs))
	}
	cutoff := repo.requeueCutoffs[0]
	if cutoff.After(before) {
		t.Errorf("expected cutoff in the past, got %v", cutoff)
	}
	if before.Sub(cutoff) < 5*time.Minute {
		t.Errorf("expected cutoff well before now, got %v", before.Sub(cutoff))
	}
}

func TestRunOnce_ClaimErrorSendsNothing(t *testing.T) {
	repo := &mockReminderRepository{claimErr: errors.New("connection reset")}
	mailer := &mockMailer{}
	w := New(repo, mailer, testConfig())

	w.runOnce(context.Background())

	if len(mailer.reminders) != 0 {
		t.Errorf("expected no emails, got %d", len(mailer.reminders))
	}
}
