package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/model"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/store"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/uistream"
)

// Reconciler is what the booking handler pokes after the booking id
// changes, so buffered events are re-scanned immediately.
type Reconciler interface {
	BookingChanged()
}

type BookingHandler struct {
	bookings *store.BookingStore
	engine   Reconciler
	hub      *uistream.Hub
	logger   *slog.Logger
}

func NewBookingHandler(bookings *store.BookingStore, engine Reconciler, hub *uistream.Hub, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, engine: engine, hub: hub, logger: logger}
}

// Get handles GET /api/booking. With no booking in flight the default
// details-stage projection is returned so the UI always has a stage to
// render.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.bookings.Current()
	if err != nil {
		h.logger.Error("load current booking", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load booking"})
		return
	}
	if b == nil {
		writeJSON(w, http.StatusOK, map[string]string{"stage": string(model.StageDetails)})
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Create handles POST /api/booking.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	b, err := h.bookings.Create(r.Context(), req)
	if err != nil {
		var ve *store.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error(), "field": ve.Field})
		case errors.Is(err, store.ErrRemoteCreate):
			h.logger.Error("create booking upstream", "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "booking could not be created, please try again"})
		default:
			h.logger.Error("create booking", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create booking"})
		}
		return
	}

	// The booking id is known now; buffered events for it may already be
	// in the log.
	h.engine.BookingChanged()
	h.hub.BookingChanged(b)

	writeJSON(w, http.StatusCreated, b)
}

// Cancel handles POST /api/booking/cancel: the user abandons the in-flight
// booking before (or after) the housekeeper responds.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.bookings.Reset(); err != nil {
		h.logger.Error("cancel booking", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to cancel booking"})
		return
	}

	h.engine.BookingChanged()
	h.hub.BookingChanged(nil)

	w.WriteHeader(http.StatusNoContent)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
