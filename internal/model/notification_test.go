package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNotificationEventDecodeNumberID(t *testing.T) {
	data := []byte(`{"id": 5, "type": "booking_confirmed", "bookingId": 1001, "read": false, "timestamp": "2026-08-30T10:00:00Z"}`)

	var e NotificationEvent
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != 5 {
		t.Errorf("id = %d, want 5", e.ID)
	}
	if e.BookingID != 1001 {
		t.Errorf("booking id = %d, want 1001", e.BookingID)
	}
	if e.Type != EventBookingConfirmed {
		t.Errorf("type = %q", e.Type)
	}
	want := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	if !e.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", e.Timestamp, want)
	}
}

func TestNotificationEventDecodeStringID(t *testing.T) {
	// The backend stringifies ids on some code paths; both forms must
	// normalize to the same int64
	data := []byte(`{"id": "5", "type": "booking_rejected", "bookingId": "42", "read": true}`)

	var e NotificationEvent
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != 5 {
		t.Errorf("id = %d, want 5", e.ID)
	}
	if e.BookingID != 42 {
		t.Errorf("booking id = %d, want 42", e.BookingID)
	}
	if !e.Read {
		t.Error("read flag lost")
	}
}

func TestNotificationEventDecodeNullAndMissingBookingID(t *testing.T) {
	for _, data := range []string{
		`{"id": 1, "type": "new_booking", "bookingId": null}`,
		`{"id": 1, "type": "new_booking"}`,
	} {
		var e NotificationEvent
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if e.BookingID != 0 {
			t.Errorf("booking id = %d, want 0 for %s", e.BookingID, data)
		}
	}
}

func TestNotificationEventDecodeGarbageID(t *testing.T) {
	var e NotificationEvent
	if err := json.Unmarshal([]byte(`{"id": 1, "bookingId": "abc"}`), &e); err == nil {
		t.Fatal("expected error for non-numeric id string")
	}
}

func TestFlexIDMatchesAcrossEncodings(t *testing.T) {
	var a, b NotificationEvent
	if err := json.Unmarshal([]byte(`{"id": 1, "bookingId": "42"}`), &a); err != nil {
		t.Fatalf("unmarshal a: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"id": 2, "bookingId": 42}`), &b); err != nil {
		t.Fatalf("unmarshal b: %v", err)
	}
	if a.BookingID != b.BookingID {
		t.Errorf("coerced ids differ: %d vs %d", a.BookingID, b.BookingID)
	}
}
