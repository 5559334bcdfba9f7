package service

import (
	"context"
	"fmt"
	"time"

	"salonbliss/internal/reminders/repository"
	"salonbliss/pkg/config"
	"salonbliss/pkg/logger"
	"salonbliss/pkg/model"
)

// Scheduler persists reminder documents for confirmed bookings. The polling
// worker picks them up when due.
type Scheduler struct {
	repo repository.ReminderRepository
	lead time.Duration
	log  *logger.Logger
}

func NewScheduler(repo repository.ReminderRepository, cfg *config.Config) *Scheduler {
	return &Scheduler{
		repo: repo,
		lead: cfg.ReminderLead,
		log:  cfg.Log,
	}
}

// Schedule inserts a reminder due ReminderLead before the appointment start.
// Appointments too close (or in the past) get no reminder.
func (s *Scheduler) Schedule(ctx context.Context, booking *model.Booking, service *model.Service) error {
	start, err := model.AppointmentStart(booking.Date, booking.TimeSlot)
	if err != nil {
		return fmt.Errorf("cannot derive appointment start: %w", err)
	}

	dueAt := start.Add(-s.lead)
	if !dueAt.After(time.Now()) {
		s.log.Debug("Skipping reminder, due time already passed",
			"booking_id", booking.ID,
			"due_at", dueAt,
		)
		return nil
	}

	serviceName := ""
	if service != nil {
		serviceName = service.Name
	}

	reminder := &model.Reminder{
		BookingID:   booking.ID,
		Email:       booking.Email,
		ServiceName: serviceName,
		Date:        booking.Date,
		TimeSlot:    booking.TimeSlot,
		DueAt:       dueAt,
		Status:      model.ReminderPending,
	}

	if err := s.repo.Insert(ctx, reminder); err != nil {
		return err
	}

	s.log.Info("Reminder scheduled",
		"booking_id", booking.ID,
		"reminder_id", reminder.ID,
		"due_at", dueAt,
	)
	return nil
}
