package model

import "time"

// slotLabels is the fixed daily slot catalog. Every service is bookable into
// these labels; per-service capacity decides how many bookings each takes.
var slotLabels = []string{
	"10:00 AM",
	"11:00 AM",
	"12:00 PM",
	"1:00 PM",
	"2:00 PM",
	"3:00 PM",
}

const (
	// DateLayout is the calendar-date wire format. No timezone normalization
	// is performed on it.
	DateLayout = "2006-01-02"

	slotLayout        = "3:04 PM"
	appointmentLayout = DateLayout + " " + slotLayout
)

// SlotLabels returns the slot catalog in order. Callers get a copy.
func SlotLabels() []string {
	labels := make([]string, len(slotLabels))
	copy(labels, slotLabels)
	return labels
}

func IsSlotLabel(label string) bool {
	for _, l := range slotLabels {
		if l == label {
			return true
		}
	}
	return false
}

// AppointmentStart combines a calendar date and a slot label into the
// appointment start time, interpreted in the local salon timezone.
func AppointmentStart(date, timeSlot string) (time.Time, error) {
	return time.ParseInLocation(appointmentLayout, date+" "+timeSlot, time.Local)
}
