package kafka

import (
	"errors"
	"testing"
	"time"
)

func TestMessageBuilder_Build(t *testing.T) {
	type payload struct {
		BookingID string `json:"bookingId"`
	}

	msg := NewMessage().
		WithKey("booking-1").
		WithValue(payload{BookingID: "booking-1"}).
		WithEventType("booking.created").
		WithSource("salonbliss-api").
		WithSchemaVersion("1").
		Build()

	if msg.Key != "booking-1" {
		t.Errorf("expected key booking-1, got %q", msg.Key)
	}
	if msg.GetEventType() != "booking.created" {
		t.Errorf("expected event type, got %q", msg.GetEventType())
	}
	if msg.GetEventID() == "" {
		t.Error("expected generated event id")
	}
	if ts, ok := msg.GetHeader(HeaderTimestamp); !ok || ts == "" {
		t.Error("expected timestamp header")
	}
	if _, err := time.Parse(time.RFC3339, msg.Headers[HeaderTimestamp]); err != nil {
		t.Errorf("timestamp header not RFC3339: %v", err)
	}

	var decoded payload
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.BookingID != "booking-1" {
		t.Errorf("expected round-tripped payload, got %+v", decoded)
	}
}

func TestMessageBuilder_ExplicitEventIDKept(t *testing.T) {
	msg := NewMessage().WithEventID("evt-42").Build()
	if msg.GetEventID() != "evt-42" {
		t.Errorf("expected evt-42, got %q", msg.GetEventID())
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{errors.New("request timeout exceeded"), ErrorTypeTransient},
		{errors.New("unknown topic or partition"), ErrorTypePermanent},
		{NewTransientError("write failed", errors.New("broken pipe")), ErrorTypeTransient},
		{NewPermanentError("bad payload", nil), ErrorTypePermanent},
		{nil, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
