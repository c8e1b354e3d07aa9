package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Notification event types reconciled against the current booking.
const (
	EventNewBooking       = "new_booking"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingRejected  = "booking_rejected"
	EventBookingCancelled = "booking_cancelled"
	EventPaymentReceived  = "payment_received"
)

// NotificationEvent is a server-originated fact delivered to a specific
// actor, optionally correlated to a booking.
type NotificationEvent struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	BookingID int64     `json:"bookingId"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	Timestamp time.Time `json:"timestamp"`
}

// FlexID accepts a JSON number or a numeric string. The backend emits ids
// as either depending on the code path; they are normalized at the decode
// boundary so nothing downstream ever compares mixed types.
type FlexID int64

func (f *FlexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse id %q: %w", string(data), err)
	}
	*f = FlexID(n)
	return nil
}

func (e *NotificationEvent) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID        FlexID    `json:"id"`
		Type      string    `json:"type"`
		BookingID FlexID    `json:"bookingId"`
		Message   string    `json:"message"`
		Read      bool      `json:"read"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	e.ID = int64(wire.ID)
	e.Type = wire.Type
	e.BookingID = int64(wire.BookingID)
	e.Message = wire.Message
	e.Read = wire.Read
	e.Timestamp = wire.Timestamp
	return nil
}
