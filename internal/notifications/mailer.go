package notifications

import (
	"fmt"
	"time"

	"salonbliss/pkg/config"
	"salonbliss/pkg/logger"
	"salonbliss/pkg/model"

	"gopkg.in/gomail.v2"
)

// Mailer sends customer-facing booking mail. Failures are the caller's to
// log and swallow; a booking never fails because of mail.
type Mailer interface {
	SendBookingConfirmation(booking *model.Booking, service *model.Service) error
	SendBookingReminder(reminder *model.Reminder) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
	log    *logger.Logger
}

// NewMailer returns an SMTP mailer, or a no-op mailer when SMTP is not
// configured so local development works without a mail server.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		cfg.Log.Warn("SMTP not configured, confirmation emails disabled")
		return &noopMailer{log: cfg.Log}
	}

	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.SMTPFrom,
		log:    cfg.Log,
	}
}

func (m *smtpMailer) SendBookingConfirmation(booking *model.Booking, service *model.Service) error {
	serviceName := "your appointment"
	if service != nil {
		serviceName = service.Name
	}

	body := fmt.Sprintf(`<h2>Booking Confirmed!</h2>
<p>Your booking for <b>%s</b> is confirmed.</p>
<ul>
  <li>Date: %s</li>
  <li>Time: %s</li>
  <li>Booking ID: %s</li>
</ul>
<p>We look forward to seeing you.</p>`,
		serviceName, formatDate(booking.Date), booking.TimeSlot, booking.ID)

	return m.send(booking.Email, "Booking Confirmation - Salon Bliss", body)
}

func (m *smtpMailer) SendBookingReminder(reminder *model.Reminder) error {
	body := fmt.Sprintf(`<h2>Appointment Reminder</h2>
<p>This is a reminder for your upcoming appointment: <b>%s</b>.</p>
<ul>
  <li>Date: %s</li>
  <li>Time: %s</li>
</ul>
<p>See you soon!</p>`,
		reminder.ServiceName, formatDate(reminder.Date), reminder.TimeSlot)

	return m.send(reminder.Email, "Appointment Reminder - Salon Bliss", body)
}

func (m *smtpMailer) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func formatDate(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2, 2006")
}

type noopMailer struct {
	log *logger.Logger
}

func (m *noopMailer) SendBookingConfirmation(booking *model.Booking, _ *model.Service) error {
	m.log.Info("Skipping confirmation email (SMTP disabled)", "booking_id", booking.ID, "email", booking.Email)
	return nil
}

func (m *noopMailer) SendBookingReminder(reminder *model.Reminder) error {
	m.log.Info("Skipping reminder email (SMTP disabled)", "booking_id", reminder.BookingID, "email", reminder.Email)
	return nil
}
