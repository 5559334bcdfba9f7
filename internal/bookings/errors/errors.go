package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrSlotFull = errors.New("time slot is fully booked")

	ErrSlotLocked = errors.New("time slot is being booked by another request")

	ErrNotOwner = errors.New("booking belongs to another user")
)
