package validator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"salonbliss/pkg/logger"
	"salonbliss/pkg/model"
)

func newTestValidator() *BookingValidator {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewBookingValidator(log)
}

func validBooking() *model.Booking {
	return &model.Booking{
		UserID:    "64b0f0a1c2d3e4f5a6b7c8db",
		ServiceID: "64b0f0a1c2d3e4f5a6b7c8d9",
		Email:     "jo@example.com",
		Date:      time.Now().AddDate(0, 0, 7).Format(model.DateLayout),
		TimeSlot:  "10:00 AM",
		Status:    model.StatusPending,
	}
}

func TestValidate_ValidBooking(t *testing.T) {
	v := newTestValidator()
	if err := v.Validate(validBooking()); err != nil {
		t.Errorf("expected valid booking, got %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *model.Booking)
		field   string
		message string
	}{
		{
			name:    "missing email",
			mutate:  func(b *model.Booking) { b.Email = "" },
			field:   "Email",
			message: "Email is required",
		},
		{
			name:    "malformed email",
			mutate:  func(b *model.Booking) { b.Email = "not-an-email" },
			field:   "Email",
			message: "valid email address",
		},
		{
			name:    "bad date format",
			mutate:  func(b *model.Booking) { b.Date = "07/09/2026" },
			field:   "Date",
			message: "YYYY-MM-DD",
		},
		{
			name:    "unknown time slot",
			mutate:  func(b *model.Booking) { b.TimeSlot = "9:00 PM" },
			field:   "TimeSlot",
			message: "bookable time slots",
		},
		{
			name:    "invalid status",
			mutate:  func(b *model.Booking) { b.Status = "maybe" },
			field:   "Status",
			message: "must be one of",
		},
		{
			name:    "malformed user id",
			mutate:  func(b *model.Booking) { b.UserID = "abc" },
			field:   "UserID",
			message: "",
		},
	}

	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := validBooking()
			tt.mutate(booking)

			err := v.Validate(booking)
			var validationErrs ValidationErrors
			if !errors.As(err, &validationErrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}

			found := false
			for _, ve := range validationErrs {
				if ve.Field == tt.field && strings.Contains(ve.Message, tt.message) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s containing %q, got %v", tt.field, tt.message, validationErrs)
			}
		})
	}
}

func TestValidate_PastAppointmentRejected(t *testing.T) {
	v := newTestValidator()
	booking := validBooking()
	booking.Date = time.Now().AddDate(0, 0, -1).Format(model.DateLayout)

	err := v.Validate(booking)
	var validationErrs ValidationErrors
	if !errors.As(err, &validationErrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(validationErrs) != 1 || !strings.Contains(validationErrs[0].Message, "future") {
		t.Errorf("expected future-appointment error, got %v", validationErrs)
	}
}
