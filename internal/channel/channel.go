package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/model"
	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/store"
)

// Update is what subscribers receive on every log mutation. New is true only
// for the first delivery of an event id; replays and bookkeeping updates fan
// out with New=false so late-mounted listeners can catch up without
// re-triggering one-shot side effects.
type Update struct {
	Event       model.NotificationEvent
	Events      []model.NotificationEvent
	UnreadCount int
	New         bool
}

// Subscriber receives updates synchronously, in registration order, on the
// goroutine that ingested the event.
type Subscriber func(Update)

// NotificationAPI is the REST collaborator behind the channel: backlog
// fetch plus read/delete bookkeeping.
type NotificationAPI interface {
	ListNotifications(ctx context.Context, actorID int64) ([]model.NotificationEvent, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	DeleteNotification(ctx context.Context, id int64) error
}

// Conn is the minimal transport surface the channel needs. The production
// implementation wraps a websocket; tests substitute an in-memory pipe.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// DialFunc opens a transport connection to the push endpoint.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// frame is the envelope the server uses on the push connection.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinPayload struct {
	ActorID int64  `json:"actorId"`
	Role    string `json:"role"`
}

type subscription struct {
	id int
	fn Subscriber
}

// Channel owns the push connection for one authenticated session and fans
// deduplicated notification events out to subscribers. It is constructed
// explicitly and wired at the application root; there is no package-level
// instance.
type Channel struct {
	mu      sync.Mutex
	events  *store.EventStore
	api     NotificationAPI
	wsURL   string
	logger  *slog.Logger
	dial    DialFunc
	subs    []subscription
	nextSub int
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	actorID int64
	role    string
}

func New(events *store.EventStore, api NotificationAPI, wsURL string, logger *slog.Logger) *Channel {
	return &Channel{
		events: events,
		api:    api,
		wsURL:  wsURL,
		logger: logger,
		dial:   DialWebsocket,
	}
}

// Connect opens the push connection for the session and keeps it alive in
// the background, reconnecting with exponential backoff. Calling Connect
// while already connected is a no-op. Transport failures are logged and
// retried; they are never fatal — the channel simply delivers nothing until
// the connection comes back.
func (c *Channel) Connect(ctx context.Context, actorID int64, role string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.actorID = actorID
	c.role = role
	c.running = true

	go c.run(runCtx, c.done)
}

// Disconnect tears down the transport and waits for the run loop to exit.
// Safe to call when not connected.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	done := c.done
	c.running = false
	c.mu.Unlock()

	cancel()
	<-done
}

func (c *Channel) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		conn, err := c.dialWithBackoff(ctx)
		if err != nil {
			// Only a cancelled context gets us here
			return
		}

		if err := c.join(ctx, conn); err != nil {
			c.logger.Debug("push join failed", "error", err)
			conn.Close()
		} else {
			c.logger.Info("push connection established", "actor_id", c.actorID)
			c.readLoop(ctx, conn)
			conn.Close()
		}

		if ctx.Err() != nil {
			return
		}
		c.logger.Debug("push connection dropped, reconnecting")
	}
}

func (c *Channel) dialWithBackoff(ctx context.Context) (Conn, error) {
	var conn Conn
	backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		conn, err = c.dial(ctx, c.wsURL)
		if err != nil {
			c.logger.Debug("push transport dial failed", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Channel) join(ctx context.Context, conn Conn) error {
	data, err := json.Marshal(frame{
		Event: "join",
		Data:  mustMarshal(joinPayload{ActorID: c.actorID, Role: c.role}),
	})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := conn.Write(ctx, data); err != nil {
		return fmt.Errorf("write join: %w", err)
	}
	return nil
}

func (c *Channel) readLoop(ctx context.Context, conn Conn) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Warn("malformed push frame", "error", err)
			continue
		}
		if f.Event != "notification" {
			continue
		}

		var e model.NotificationEvent
		if err := json.Unmarshal(f.Data, &e); err != nil {
			c.logger.Warn("malformed notification payload", "error", err)
			continue
		}
		c.Ingest(e)
	}
}

// Ingest pushes one event through the dedup/insert pipeline and fans it out.
// Every transport feeds this same path — the websocket read loop, the
// backlog poller, anything else — so subscribers never need to know which
// one produced an event. Errors are logged and swallowed; ingestion must not
// take the connection down.
func (c *Channel) Ingest(e model.NotificationEvent) {
	inserted, err := c.events.Insert(e)
	if err != nil {
		c.logger.Error("insert notification", "event_id", e.ID, "error", err)
		return
	}
	c.fanOut(e, inserted)
}

// Subscribe registers a listener and returns its unsubscribe func. Listeners
// are invoked synchronously in registration order.
func (c *Channel) Subscribe(fn Subscriber) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// MarkRead flips the read flag upstream first, then locally. If the REST
// call fails the local flag is untouched and no retry is scheduled; the user
// retries by reopening the notification.
func (c *Channel) MarkRead(ctx context.Context, id int64) error {
	if err := c.api.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("mark read upstream: %w", err)
	}
	if err := c.events.MarkRead(id); err != nil {
		return err
	}
	c.fanOut(model.NotificationEvent{}, false)
	return nil
}

// Delete removes an actioned notification upstream and locally so it cannot
// re-surface in later backlog fetches.
func (c *Channel) Delete(ctx context.Context, id int64) error {
	if err := c.api.DeleteNotification(ctx, id); err != nil {
		return fmt.Errorf("delete upstream: %w", err)
	}
	if err := c.events.Delete(id); err != nil {
		return err
	}
	c.fanOut(model.NotificationEvent{}, false)
	return nil
}

// FetchBacklog replaces the local log with the server's authoritative list,
// then fans out a replay snapshot. Run once at session start to pick up
// events missed while offline.
func (c *Channel) FetchBacklog(ctx context.Context, actorID int64) error {
	events, err := c.api.ListNotifications(ctx, actorID)
	if err != nil {
		return fmt.Errorf("fetch backlog: %w", err)
	}
	if err := c.events.ReplaceAll(events); err != nil {
		return err
	}
	c.fanOut(model.NotificationEvent{}, false)
	return nil
}

func (c *Channel) fanOut(e model.NotificationEvent, isNew bool) {
	events, err := c.events.List(0)
	if err != nil {
		c.logger.Error("list notifications for fan-out", "error", err)
		return
	}
	unread, err := c.events.UnreadCount()
	if err != nil {
		c.logger.Error("count unread for fan-out", "error", err)
		return
	}

	c.mu.Lock()
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	update := Update{Event: e, Events: events, UnreadCount: unread, New: isNew}
	for _, s := range subs {
		s.fn(update)
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// wsConn adapts a coder/websocket connection to the Conn interface.
type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.conn.Read(ctx)
	return data, err
}

func (w *wsConn) Write(ctx context.Context, data []byte) error {
	return w.conn.Write(ctx, websocket.MessageText, data)
}

func (w *wsConn) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}

// DialWebsocket opens a websocket connection to the push endpoint.
func DialWebsocket(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}
