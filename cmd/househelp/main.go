package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/api"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/channel"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/database"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/logging"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/reconcile"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/server"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/session"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/store"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/uistream"
)

func main() {
	logger := logging.Setup(os.Getenv("HOUSEHELP_LOG_LEVEL"))

	port := os.Getenv("HOUSEHELP_PORT")
	if port == "" {
		port = "8091"
	}

	dbPath := os.Getenv("HOUSEHELP_DB_PATH")
	if dbPath == "" {
		dbPath = "househelp.db"
	}

	apiURL := os.Getenv("HOUSEHELP_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:5000/api"
	}

	wsURL := os.Getenv("HOUSEHELP_WS_URL")
	if wsURL == "" {
		wsURL = "ws://localhost:5000/ws"
	}

	token := os.Getenv("HOUSEHELP_SESSION_TOKEN")
	if token == "" {
		slog.Error("HOUSEHELP_SESSION_TOKEN is required")
		os.Exit(1)
	}

	ident, err := session.FromToken(token)
	if err != nil {
		slog.Error("invalid session token", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	backend := api.NewClient(api.Config{BaseURL: apiURL, Token: token})

	bookings := store.NewBookingStore(db, backend, logger.With("component", "booking-store"))
	events := store.NewEventStore(db)

	if b, err := bookings.Rehydrate(); err != nil {
		slog.Error("rehydrate booking", "error", err)
		os.Exit(1)
	} else if b != nil {
		slog.Info("resumed in-flight booking", "booking_id", b.ID, "status", b.Status, "stage", b.Stage)
	}

	hub := uistream.NewHub(logger.With("component", "uistream"))
	ch := channel.New(events, backend, wsURL, logger.With("component", "channel"))
	engine := reconcile.New(bookings, events, hub, hub.BookingChanged, logger.With("component", "reconcile"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session start: correct for events missed while offline, then open the
	// push connection and start reconciling.
	if err := ch.FetchBacklog(ctx, ident.ActorID); err != nil {
		slog.Warn("backlog fetch failed, continuing with local log", "error", err)
	}
	ch.Connect(ctx, ident.ActorID, ident.Role)
	defer ch.Disconnect()

	engine.Attach(ch)
	defer engine.Close()

	// Forward log mutations to connected UI surfaces.
	unsubscribe := ch.Subscribe(func(u channel.Update) {
		hub.NotificationsChanged(u.Events, u.UnreadCount)
	})
	defer unsubscribe()

	// Optional polling degradation path; same ingest pipeline as push.
	if iv := os.Getenv("HOUSEHELP_POLL_INTERVAL"); iv != "" {
		interval, err := time.ParseDuration(iv)
		if err != nil {
			slog.Error("invalid HOUSEHELP_POLL_INTERVAL", "value", iv, "error", err)
			os.Exit(1)
		}
		poller := channel.NewPoller(ch, backend, ident.ActorID, interval, logger.With("component", "poller"))
		poller.Start(ctx)
		defer poller.Stop()
	}

	srv := server.New(bookings, events, ch, engine, hub, logger)

	httpServer := &http.Server{
		Addr:              "127.0.0.1:" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("sync daemon listening", "addr", httpServer.Addr, "actor_id", ident.ActorID, "role", ident.Role)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
