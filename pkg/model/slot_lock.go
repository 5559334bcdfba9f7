package model

import "time"

// SlotLock is an advisory lock serializing booking creation for one
// (service, date, timeSlot) triple. The lock id is derived from the triple,
// so a unique-index insert either acquires it or collides.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
