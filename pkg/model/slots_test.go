package model

import (
	"testing"
	"time"
)

func TestSlotLabelsOrderAndCopy(t *testing.T) {
	labels := SlotLabels()
	expected := []string{"10:00 AM", "11:00 AM", "12:00 PM", "1:00 PM", "2:00 PM", "3:00 PM"}

	if len(labels) != len(expected) {
		t.Fatalf("expected %d labels, got %d", len(expected), len(labels))
	}
	for i, l := range expected {
		if labels[i] != l {
			t.Errorf("label %d: expected %q, got %q", i, l, labels[i])
		}
	}

	// Mutating the returned slice must not touch the catalog.
	labels[0] = "tampered"
	if SlotLabels()[0] != "10:00 AM" {
		t.Error("catalog mutated through returned slice")
	}
}

func TestIsSlotLabel(t *testing.T) {
	if !IsSlotLabel("1:00 PM") {
		t.Error("expected 1:00 PM to be a catalog label")
	}
	if IsSlotLabel("4:00 PM") {
		t.Error("4:00 PM is not in the catalog")
	}
	if IsSlotLabel("") {
		t.Error("empty label accepted")
	}
}

func TestAppointmentStart(t *testing.T) {
	start, err := AppointmentStart("2024-06-01", "10:00 AM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
	if !start.Equal(want) {
		t.Errorf("expected %v, got %v", want, start)
	}

	if _, err := AppointmentStart("June 1st", "10:00 AM"); err == nil {
		t.Error("expected error for malformed date")
	}
}
