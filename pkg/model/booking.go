package model

import "time"

// Booking lifecycle statuses. A booking starts pending and is moved to a
// terminal state by exactly one of the reconciliation paths: explicit payment
// confirm, payment webhook, or offline confirm.
const (
	StatusPending       = "pending"
	StatusConfirmed     = "confirmed"
	StatusPaymentFailed = "payment_failed"
)

// Payment statuses tracked alongside the booking status.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
	PaymentCash    = "cash"
)

// Payment methods.
const (
	MethodStripe = "stripe"
	MethodCash   = "cash"
)

type Booking struct {
	ID               string    `json:"_id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID           string    `json:"userId" bson:"user_id" validate:"required,mongodb"`
	ServiceID        string    `json:"serviceId" bson:"service_id" validate:"required,mongodb"`
	Email            string    `json:"email" bson:"email" validate:"required,email"`
	Date             string    `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot         string    `json:"timeSlot" bson:"time_slot" validate:"required,slot_label"`
	Status           string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed payment_failed"`
	PaymentStatus    string    `json:"paymentStatus" bson:"payment_status"`
	PaymentMethod    string    `json:"paymentMethod" bson:"payment_method"`
	PaymentIntentID  string    `json:"paymentIntentId,omitempty" bson:"payment_intent_id,omitempty"`
	StripePaymentID  string    `json:"stripePaymentId,omitempty" bson:"stripe_payment_id,omitempty"`
	// ConfirmationSent dedupes the confirmation email across the racing
	// reconciliation paths: only the writer that flips it false->true sends.
	ConfirmationSent bool      `json:"-" bson:"confirmation_sent"`
	CreatedAt        time.Time `json:"createdAt,omitempty" bson:"created_at"`
}

// BookingView is the my-bookings row shape: the booking with its service
// document populated, matching what the frontend renders.
type BookingView struct {
	ID       string   `json:"_id"`
	Date     string   `json:"date"`
	TimeSlot string   `json:"timeSlot"`
	Status   string   `json:"status"`
	Service  *Service `json:"service,omitempty"`
}
