package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/lifecycle"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/model"
)

// ErrRemoteCreate wraps a failed booking-creation call. The store stays at
// the details stage; retry is manual (the user re-submits).
var ErrRemoteCreate = errors.New("booking creation failed upstream")

// ValidationError reports a missing required booking term. It is surfaced to
// the form and never reaches the persisted state.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// BookingCreator is the external collaborator that creates the booking
// server-side and returns the record with its assigned id.
type BookingCreator interface {
	CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
}

// BookingStore is the single source of truth for the one in-flight booking.
// At most one booking is tracked at a time; it lives in a singleton row so
// the record survives restarts and is cleared when the booking settles.
type BookingStore struct {
	db     *sql.DB
	api    BookingCreator
	logger *slog.Logger
}

func NewBookingStore(db *sql.DB, api BookingCreator, logger *slog.Logger) *BookingStore {
	return &BookingStore{db: db, api: api, logger: logger}
}

// Rehydrate loads the persisted in-flight booking at startup. A persisted
// row without a server id was never actually created upstream; trusting it
// would resume a ghost booking, so it is discarded and the caller starts at
// the details stage.
func (s *BookingStore) Rehydrate() (*model.Booking, error) {
	b, err := s.Current()
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	if b.ID == 0 {
		s.logger.Warn("discarding persisted booking without server id", "stage", b.Stage)
		if err := s.Reset(); err != nil {
			return nil, fmt.Errorf("discard corrupt booking: %w", err)
		}
		return nil, nil
	}
	return b, nil
}

// Current returns the persisted in-flight booking, or nil if none exists.
func (s *BookingStore) Current() (*model.Booking, error) {
	var b model.Booking
	err := s.db.QueryRow(
		`SELECT booking_id, customer_id, housekeeper_id, status, stage, service, service_date,
		        service_time, duration_hours, location, notes, total_price, created_at, updated_at
		 FROM current_booking WHERE slot = 1`,
	).Scan(&b.ID, &b.CustomerID, &b.HousekeeperID, &b.Status, &b.Stage, &b.Service, &b.Date,
		&b.Time, &b.DurationHours, &b.Location, &b.Notes, &b.TotalPrice, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current booking: %w", err)
	}
	return &b, nil
}

// Create validates the terms, calls the booking-creation collaborator, and
// persists the resulting record at status=pending, stage=pending. On remote
// failure nothing is persisted and the caller stays at the details stage.
func (s *BookingStore) Create(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	if err := validateTerms(req); err != nil {
		return nil, err
	}

	booking, err := s.api.CreateBooking(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteCreate, err)
	}
	if booking.ID == 0 {
		return nil, fmt.Errorf("%w: server returned no booking id", ErrRemoteCreate)
	}

	booking.Status = model.StatusPending
	booking.Stage = model.StagePending
	if err := s.save(booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// TransitionStatus applies a legal status change to the current booking.
// Illegal requests return lifecycle.ErrInvalidTransition and leave the
// record untouched; callers log and move on.
func (s *BookingStore) TransitionStatus(to model.BookingStatus) error {
	b, err := s.Current()
	if err != nil {
		return err
	}
	if b == nil {
		return lifecycle.ErrInvalidTransition
	}

	next, err := lifecycle.Transition(b.Status, to)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`UPDATE current_booking SET status = ?, updated_at = ? WHERE slot = 1`,
		string(next), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

// SetStage updates the client-local workflow position. Stage is
// presentational and orthogonal to status; no legality check applies beyond
// requiring a current booking.
func (s *BookingStore) SetStage(stage model.BookingStage) error {
	res, err := s.db.Exec(
		`UPDATE current_booking SET stage = ?, updated_at = ? WHERE slot = 1`,
		string(stage), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update booking stage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set stage: no current booking")
	}
	return nil
}

// Reset clears the in-flight booking, both in memory and on disk. Used after
// a terminal outcome and on explicit user cancel.
func (s *BookingStore) Reset() error {
	_, err := s.db.Exec(`DELETE FROM current_booking WHERE slot = 1`)
	if err != nil {
		return fmt.Errorf("reset booking: %w", err)
	}
	return nil
}

func (s *BookingStore) save(b *model.Booking) error {
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	_, err := s.db.Exec(
		`INSERT INTO current_booking (slot, booking_id, customer_id, housekeeper_id, status, stage,
		                              service, service_date, service_time, duration_hours, location,
		                              notes, total_price, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		     booking_id = excluded.booking_id, customer_id = excluded.customer_id,
		     housekeeper_id = excluded.housekeeper_id, status = excluded.status,
		     stage = excluded.stage, service = excluded.service, service_date = excluded.service_date,
		     service_time = excluded.service_time, duration_hours = excluded.duration_hours,
		     location = excluded.location, notes = excluded.notes, total_price = excluded.total_price,
		     created_at = excluded.created_at, updated_at = excluded.updated_at`,
		b.ID, b.CustomerID, b.HousekeeperID, string(b.Status), string(b.Stage),
		b.Service, b.Date, b.Time, b.DurationHours, b.Location, b.Notes, b.TotalPrice,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save booking: %w", err)
	}
	return nil
}

func validateTerms(req model.BookingRequest) error {
	switch {
	case strings.TrimSpace(req.Service) == "":
		return &ValidationError{Field: "service"}
	case strings.TrimSpace(req.Date) == "":
		return &ValidationError{Field: "date"}
	case strings.TrimSpace(req.Time) == "":
		return &ValidationError{Field: "time"}
	case strings.TrimSpace(req.Location) == "":
		return &ValidationError{Field: "location"}
	case req.CustomerID == 0:
		return &ValidationError{Field: "customer_id"}
	case req.HousekeeperID == 0:
		return &ValidationError{Field: "housekeeper_id"}
	}
	return nil
}
