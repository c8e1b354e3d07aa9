package server

import (
	"log/slog"
	"net/http"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/channel"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/handler"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/middleware"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/store"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/uistream"
)

// Server is the daemon's local HTTP surface: the presentational layer reads
// booking and notification state, submits the booking form, and follows
// live updates over /ws. It binds loopback only; the real backend is
// elsewhere.
type Server struct {
	bookingH      *handler.BookingHandler
	notificationH *handler.NotificationHandler
	hub           *uistream.Hub
	logger        *slog.Logger
}

func New(bookings *store.BookingStore, events *store.EventStore, ch *channel.Channel, engine handler.Reconciler, hub *uistream.Hub, logger *slog.Logger) *Server {
	return &Server{
		bookingH:      handler.NewBookingHandler(bookings, engine, hub, logger.With("component", "booking")),
		notificationH: handler.NewNotificationHandler(events, ch, logger.With("component", "notifications")),
		hub:           hub,
		logger:        logger,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", uistream.HandleWebSocket(s.hub))

	mux.HandleFunc("GET /api/booking", s.bookingH.Get)
	mux.HandleFunc("POST /api/booking", s.bookingH.Create)
	mux.HandleFunc("POST /api/booking/cancel", s.bookingH.Cancel)

	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("PUT /api/notifications/{id}/read", s.notificationH.MarkRead)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.notificationH.Delete)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
