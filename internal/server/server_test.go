package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/channel"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/database"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/model"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/store"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/uistream"
)

type fakeBackend struct {
	mu        sync.Mutex
	nextID    int64
	createErr error
	markErr   error
}

func (f *fakeBackend) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &model.Booking{
		ID:            f.nextID,
		CustomerID:    req.CustomerID,
		HousekeeperID: req.HousekeeperID,
		Status:        model.StatusPending,
		Service:       req.Service,
		Date:          req.Date,
		Time:          req.Time,
		Location:      req.Location,
	}, nil
}

func (f *fakeBackend) ListNotifications(ctx context.Context, actorID int64) ([]model.NotificationEvent, error) {
	return nil, nil
}

func (f *fakeBackend) MarkNotificationRead(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markErr
}

func (f *fakeBackend) DeleteNotification(ctx context.Context, id int64) error {
	return nil
}

type countingReconciler struct {
	mu    sync.Mutex
	calls int
}

func (c *countingReconciler) BookingChanged() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingReconciler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func setupServer(t *testing.T, backend *fakeBackend) (http.Handler, *store.EventStore, *countingReconciler) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	bookings := store.NewBookingStore(db, backend, logger)
	events := store.NewEventStore(db)
	ch := channel.New(events, backend, "ws://test/ws", logger)
	hub := uistream.NewHub(logger)
	engine := &countingReconciler{}

	srv := New(bookings, events, ch, engine, hub, logger)
	return srv.Router(), events, engine
}

const createBody = `{
	"customer_id": 7, "housekeeper_id": 12, "service": "standard_clean",
	"date": "2026-09-01", "time": "09:00", "location": "12 Elm St"
}`

func TestGetBookingDefaultStage(t *testing.T) {
	router, _, _ := setupServer(t, &fakeBackend{nextID: 1001})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/booking", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"details"`) {
		t.Errorf("expected details stage, got %s", rec.Body.String())
	}
}

func TestCreateBooking(t *testing.T) {
	router, _, engine := setupServer(t, &fakeBackend{nextID: 1001})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/booking", strings.NewReader(createBody)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if engine.count() != 1 {
		t.Errorf("reconciler pokes = %d, want 1", engine.count())
	}

	// The booking is now the persisted current one
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/booking", nil))
	if !strings.Contains(rec.Body.String(), `"id":1001`) {
		t.Errorf("expected booking 1001, got %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"pending"`) {
		t.Errorf("expected pending, got %s", rec.Body.String())
	}
}

func TestCreateBookingValidation(t *testing.T) {
	router, _, engine := setupServer(t, &fakeBackend{nextID: 1001})

	rec := httptest.NewRecorder()
	body := `{"customer_id": 7, "housekeeper_id": 12, "date": "2026-09-01", "time": "09:00", "location": "x"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/booking", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "service") {
		t.Errorf("error should name the missing field, got %s", rec.Body.String())
	}
	if engine.count() != 0 {
		t.Error("reconciler should not be poked on validation failure")
	}
}

func TestCreateBookingUpstreamFailure(t *testing.T) {
	router, _, _ := setupServer(t, &fakeBackend{createErr: errors.New("backend down")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/booking", strings.NewReader(createBody)))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	// Store must stay at the details stage
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/booking", nil))
	if !strings.Contains(rec.Body.String(), `"details"`) {
		t.Errorf("expected details stage after failed create, got %s", rec.Body.String())
	}
}

func TestCancelBooking(t *testing.T) {
	router, _, engine := setupServer(t, &fakeBackend{nextID: 1001})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/booking", strings.NewReader(createBody)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/booking/cancel", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cancel status = %d, want 204", rec.Code)
	}
	if engine.count() != 2 {
		t.Errorf("reconciler pokes = %d, want 2", engine.count())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/booking", nil))
	if !strings.Contains(rec.Body.String(), `"details"`) {
		t.Errorf("expected details stage after cancel, got %s", rec.Body.String())
	}
}

func TestListNotifications(t *testing.T) {
	router, events, _ := setupServer(t, &fakeBackend{})

	events.Insert(model.NotificationEvent{
		ID: 1, Type: model.EventNewBooking, BookingID: 1001, Timestamp: time.Now().UTC(),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"unread_count":1`) {
		t.Errorf("expected unread count 1, got %s", rec.Body.String())
	}
}

func TestMarkReadUpstreamFailure(t *testing.T) {
	router, events, _ := setupServer(t, &fakeBackend{markErr: errors.New("503")})

	events.Insert(model.NotificationEvent{
		ID: 1, Type: model.EventNewBooking, Timestamp: time.Now().UTC(),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/notifications/1/read", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	n, _ := events.UnreadCount()
	if n != 1 {
		t.Errorf("unread = %d, want 1 (local flag untouched on upstream failure)", n)
	}
}

func TestHealth(t *testing.T) {
	router, _, _ := setupServer(t, &fakeBackend{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
