package reconcile

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/channel"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/lifecycle"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/model"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/store"
)

// Deferred delays between a terminal outcome being shown and the persisted
// booking being cleared. The confirmation view lingers a little longer than
// the rejection view.
const (
	confirmDelay = 5 * time.Second
	rejectDelay  = 3 * time.Second
)

// Redirect targets after a booking settles.
const (
	confirmPath = "/bookings"
	rejectPath  = "/"
)

// Navigator is the presentational collaborator that moves the UI somewhere
// after a booking settles.
type Navigator interface {
	Navigate(path string)
}

// timerHandle lets tests substitute a counting fake for time.AfterFunc.
type timerHandle interface {
	Stop() bool
}

// Engine decides whether inbound events change the current in-flight
// booking and drives the one-shot side effects that follow. It owns no
// state of its own beyond the pending finalizer: every evaluation is a pure
// function of the booking row and the event log, so re-running it on an
// unchanged log is a no-op.
type Engine struct {
	mu        sync.Mutex
	bookings  *store.BookingStore
	events    *store.EventStore
	nav       Navigator
	onChange  func(*model.Booking)
	logger    *slog.Logger
	afterFunc func(d time.Duration, fn func()) timerHandle

	timer        timerHandle
	scheduledFor int64 // booking id with a pending finalizer, 0 if none
	unsubscribe  func()
}

// New creates an engine. onChange, if non-nil, is invoked with the booking
// after a reconciled transition and with nil after the finalizer clears it;
// the application root forwards it to connected UI surfaces.
func New(bookings *store.BookingStore, events *store.EventStore, nav Navigator, onChange func(*model.Booking), logger *slog.Logger) *Engine {
	return &Engine{
		bookings: bookings,
		events:   events,
		nav:      nav,
		onChange: onChange,
		logger:   logger,
		afterFunc: func(d time.Duration, fn func()) timerHandle {
			return time.AfterFunc(d, fn)
		},
	}
}

// Attach subscribes the engine to the channel so every log mutation
// triggers an evaluation, and runs one immediately to reconcile whatever is
// already buffered.
func (e *Engine) Attach(ch *channel.Channel) {
	e.unsubscribe = ch.Subscribe(func(channel.Update) {
		e.Evaluate()
	})
	e.Evaluate()
}

// Close detaches from the channel and cancels any pending finalizer.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.mu.Lock()
	e.stopTimerLocked()
	e.mu.Unlock()
}

// BookingChanged re-runs the evaluation after the current booking id
// changes: a create call resolving (possibly after its events already
// arrived), or a user cancel clearing the store.
func (e *Engine) BookingChanged() {
	e.Evaluate()
}

// Evaluate runs one reconciliation pass. It is convergent: any interleaving
// of event arrivals and re-evaluations settles on the same terminal status,
// and repeated passes after that change nothing.
func (e *Engine) Evaluate() {
	e.mu.Lock()
	defer e.mu.Unlock()

	booking, err := e.bookings.Current()
	if err != nil {
		e.logger.Error("load current booking", "error", err)
		return
	}
	if booking == nil || booking.ID == 0 {
		// Nothing to reconcile. A pending finalizer belongs to a booking
		// the user already cancelled; drop it.
		e.stopTimerLocked()
		return
	}
	if e.scheduledFor != 0 && e.scheduledFor != booking.ID {
		// Finalizer for a previous booking id; the guard above missed it
		// only if a new booking was created before the old timer fired.
		e.stopTimerLocked()
	}

	decision := e.firstDecisionEvent(booking.ID)
	if decision == nil {
		return
	}

	var (
		target model.BookingStatus
		delay  time.Duration
		path   string
	)
	switch decision.Type {
	case model.EventBookingConfirmed:
		target, delay, path = model.StatusConfirmed, confirmDelay, confirmPath
	case model.EventBookingRejected:
		target, delay, path = model.StatusRejected, rejectDelay, rejectPath
	}

	if booking.Status == model.StatusPending {
		if err := e.bookings.TransitionStatus(target); err != nil {
			if errors.Is(err, lifecycle.ErrInvalidTransition) {
				e.logger.Debug("ignoring conflicting outcome event",
					"booking_id", booking.ID, "event_type", decision.Type)
			} else {
				e.logger.Error("apply status transition", "error", err)
			}
			return
		}
		if err := e.bookings.SetStage(model.StageCompleted); err != nil {
			e.logger.Error("set terminal stage", "error", err)
		}
		booking.Status = target
		booking.Stage = model.StageCompleted
		e.logger.Info("booking settled", "booking_id", booking.ID, "status", target)
		if e.onChange != nil {
			e.onChange(booking)
		}
	}

	if booking.Status != target {
		// An earlier conflicting event already won for this booking id.
		return
	}
	if e.scheduledFor == booking.ID {
		// Finalizer already scheduled; re-evaluations must not stack timers.
		return
	}

	id := booking.ID
	e.stopTimerLocked()
	e.timer = e.afterFunc(delay, func() { e.finalize(id, path) })
	e.scheduledFor = id
}

// finalize clears the settled booking and navigates away. Runs once per
// booking id; a store reset between scheduling and firing aborts it.
func (e *Engine) finalize(id int64, path string) {
	e.mu.Lock()
	if e.scheduledFor != id {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.scheduledFor = 0
	e.mu.Unlock()

	if err := e.bookings.Reset(); err != nil {
		e.logger.Error("clear settled booking", "booking_id", id, "error", err)
		return
	}
	if e.onChange != nil {
		e.onChange(nil)
	}
	e.nav.Navigate(path)
}

// firstDecisionEvent scans the log (newest first) for the first confirm or
// reject event correlated to the given booking id. Ids were normalized to
// int64 at ingestion, so this is a plain comparison.
func (e *Engine) firstDecisionEvent(bookingID int64) *model.NotificationEvent {
	events, err := e.events.List(0)
	if err != nil {
		e.logger.Error("list events for reconciliation", "error", err)
		return nil
	}
	for i := range events {
		ev := &events[i]
		if ev.BookingID != bookingID {
			continue
		}
		if ev.Type == model.EventBookingConfirmed || ev.Type == model.EventBookingRejected {
			return ev
		}
	}
	return nil
}

func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.scheduledFor = 0
}
