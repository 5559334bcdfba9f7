package worker

import (
	"context"
	"time"

	"salonbliss/internal/notifications"
	"salonbliss/internal/reminders/repository"
	"salonbliss/pkg/config"
	"salonbliss/pkg/logger"
)

const (
	claimBatchSize = 50

	// A claim older than this belongs to a worker that died mid-send; the
	// reminder goes back to pending so a later pass can retry it.
	staleClaimAge = 10 * time.Minute
)

// Worker polls the reminder collection and sends due reminder emails. Claims
// are atomic pending->sending transitions, so running multiple instances is
// safe.
type Worker struct {
	repo     repository.ReminderRepository
	mailer   notifications.Mailer
	interval time.Duration
	log      *logger.Logger
}

func New(repo repository.ReminderRepository, mailer notifications.Mailer, cfg *config.Config) *Worker {
	return &Worker{
		repo:     repo,
		mailer:   mailer,
		interval: cfg.ReminderPollInterval,
		log:      cfg.Log,
	}
}

// Start runs the polling loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Reminder worker started", "poll_interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Reminder worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	requeued, err := w.repo.RequeueStale(ctx, time.Now().Add(-staleClaimAge))
	if err != nil {
		w.log.Error("Failed to requeue stale reminders", "error", err)
	} else if requeued > 0 {
		w.log.Warn("Requeued stale reminder claims", "count", requeued)
	}

	reminders, err := w.repo.ClaimDue(ctx, time.Now(), claimBatchSize)
	if err != nil {
		w.log.Error("Failed to claim due reminders", "error", err)
	}

	for _, reminder := range reminders {
		if err := w.mailer.SendBookingReminder(reminder); err != nil {
			w.log.Error("Failed to send reminder email",
				"reminder_id", reminder.ID,
				"booking_id", reminder.BookingID,
				"error", err,
			)
			if markErr := w.repo.MarkFailed(ctx, reminder.ID); markErr != nil {
				w.log.Error("Failed to mark reminder failed", "reminder_id", reminder.ID, "error", markErr)
			}
			continue
		}

		if err := w.repo.MarkSent(ctx, reminder.ID, time.Now()); err != nil {
			w.log.Error("Failed to mark reminder sent", "reminder_id", reminder.ID, "error", err)
			continue
		}

		w.log.Info("Reminder sent",
			"reminder_id", reminder.ID,
			"booking_id", reminder.BookingID,
		)
	}
}
