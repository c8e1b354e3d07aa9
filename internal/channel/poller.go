package channel

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Poller periodically pulls the notification backlog and feeds each event
// through the channel's ingest pipeline. Because ingestion deduplicates on
// the event id, running the poller alongside the push connection is safe;
// it exists as a degradation path for sessions where the websocket cannot
// stay up. Disabled unless an interval is configured.
type Poller struct {
	mu       sync.RWMutex
	channel  *Channel
	api      NotificationAPI
	actorID  int64
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewPoller(ch *Channel, api NotificationAPI, actorID int64, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		channel:  ch,
		api:      api,
		actorID:  actorID,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the poll loop.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the poll loop.
func (p *Poller) Stop() {
	p.mu.RLock()
	cancel := p.cancel
	done := p.done
	p.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (p *Poller) tick(ctx context.Context) {
	events, err := p.api.ListNotifications(ctx, p.actorID)
	if err != nil {
		p.logger.Debug("notification poll failed", "error", err)
		return
	}
	for _, e := range events {
		p.channel.Ingest(e)
	}
}
