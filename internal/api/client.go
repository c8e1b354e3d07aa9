package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/model"
)

// Config holds backend connection settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the HouseHelp REST backend. It covers only the narrow
// surface the sync daemon needs: booking creation, the notification backlog,
// and read/delete bookkeeping. Everything else the backend offers (payments,
// reviews, chat, uploads) is out of this process's scope.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a backend client. Token is the session JWT and is sent
// as a bearer credential on every request.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// createBookingRequest mirrors the backend's camelCase wire shape.
type createBookingRequest struct {
	CustomerID    int64   `json:"customerId"`
	HousekeeperID int64   `json:"housekeeperId"`
	Service       string  `json:"service"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	Duration      int     `json:"duration"`
	Location      string  `json:"location"`
	Notes         string  `json:"notes"`
	TotalPrice    float64 `json:"totalPrice"`
}

type createBookingResponse struct {
	ID        model.FlexID `json:"id"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// CreateBooking submits a new booking and returns the server-assigned record.
// The backend serializes ids as strings on some code paths and numbers on
// others; both are normalized to int64 here.
func (c *Client) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	body, err := json.Marshal(createBookingRequest{
		CustomerID:    req.CustomerID,
		HousekeeperID: req.HousekeeperID,
		Service:       req.Service,
		Date:          req.Date,
		Time:          req.Time,
		Duration:      req.DurationHours,
		Location:      req.Location,
		Notes:         req.Notes,
		TotalPrice:    req.TotalPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal booking: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/bookings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create booking: status %d", resp.StatusCode)
	}

	var cr createBookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode booking response: %w", err)
	}

	booking := &model.Booking{
		ID:            int64(cr.ID),
		CustomerID:    req.CustomerID,
		HousekeeperID: req.HousekeeperID,
		Status:        model.BookingStatus(cr.Status),
		Service:       req.Service,
		Date:          req.Date,
		Time:          req.Time,
		DurationHours: req.DurationHours,
		Location:      req.Location,
		Notes:         req.Notes,
		TotalPrice:    req.TotalPrice,
		CreatedAt:     cr.CreatedAt,
		UpdatedAt:     cr.CreatedAt,
	}
	if booking.Status == "" {
		booking.Status = model.StatusPending
	}
	return booking, nil
}

// ListNotifications fetches the authoritative notification backlog for an
// actor, newest first.
func (c *Client) ListNotifications(ctx context.Context, actorID int64) ([]model.NotificationEvent, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/notifications/%d", actorID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list notifications: status %d", resp.StatusCode)
	}

	var events []model.NotificationEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return events, nil
}

// MarkNotificationRead flips the server-side read flag for one notification.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	httpReq, err := c.newRequest(ctx, http.MethodPut, fmt.Sprintf("/notifications/%d/read", id), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("mark notification read: status %d", resp.StatusCode)
	}
	return nil
}

// DeleteNotification hard-deletes an actioned notification so it cannot
// re-surface in later backlog fetches.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	httpReq, err := c.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/notifications/%d", id), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete notification: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}
