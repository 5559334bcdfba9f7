package model

import "time"

// Reminder statuses. Pending reminders are claimed by the worker with an
// atomic pending->sending transition so concurrent workers never double-send.
const (
	ReminderPending = "pending"
	ReminderSending = "sending"
	ReminderSent    = "sent"
	ReminderFailed  = "failed"
)

// Reminder is a durable one-shot notification record: send a reminder email
// for a confirmed booking at DueAt. Persisting it instead of arming an
// in-process timer means reminders survive restarts.
type Reminder struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID   string     `json:"bookingId" bson:"booking_id"`
	Email       string     `json:"email" bson:"email"`
	ServiceName string     `json:"serviceName" bson:"service_name"`
	Date        string     `json:"date" bson:"date"`
	TimeSlot    string     `json:"timeSlot" bson:"time_slot"`
	DueAt       time.Time  `json:"dueAt" bson:"due_at"`
	Status      string     `json:"status" bson:"status"`
	CreatedAt   time.Time  `json:"createdAt" bson:"created_at"`
	ClaimedAt   *time.Time `json:"-" bson:"claimed_at,omitempty"`
	SentAt      *time.Time `json:"sentAt,omitempty" bson:"sent_at,omitempty"`
}
