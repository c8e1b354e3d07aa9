package model

import "time"

// BookingStatus is the domain lifecycle value of a booking, assigned by the
// server and mirrored locally.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusRejected  BookingStatus = "rejected"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusPaid      BookingStatus = "paid"
)

// BookingStage is the client-local workflow position. It decides which view
// the presentational layer renders and is orthogonal to BookingStatus.
type BookingStage string

const (
	StageDetails    BookingStage = "details"
	StagePending    BookingStage = "pending"
	StageProcessing BookingStage = "processing"
	StageCompleted  BookingStage = "completed"
)

// Booking is the locally cached projection of a server-owned booking record.
// ID is 0 until the create call returns; a persisted booking without a server
// ID is corrupt and discarded on rehydration.
type Booking struct {
	ID            int64         `json:"id"`
	CustomerID    int64         `json:"customer_id"`
	HousekeeperID int64         `json:"housekeeper_id"`
	Status        BookingStatus `json:"status"`
	Stage         BookingStage  `json:"stage"`
	Service       string        `json:"service"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	DurationHours int           `json:"duration_hours"`
	Location      string        `json:"location"`
	Notes         string        `json:"notes"`
	TotalPrice    float64       `json:"total_price"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// BookingRequest carries the terms and actor ids needed to create a booking.
type BookingRequest struct {
	CustomerID    int64   `json:"customer_id"`
	HousekeeperID int64   `json:"housekeeper_id"`
	Service       string  `json:"service"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	DurationHours int     `json:"duration_hours"`
	Location      string  `json:"location"`
	Notes         string  `json:"notes"`
	TotalPrice    float64 `json:"total_price"`
}
