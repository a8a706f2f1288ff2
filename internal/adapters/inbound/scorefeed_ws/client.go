package scorefeed_ws

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iby/nfl-gameday/internal/adapters/outbound/scorefeed"
	"github.com/iby/nfl-gameday/internal/events"
	"github.com/iby/nfl-gameday/internal/telemetry"
)

const (
	minBackoff  = 1 * time.Second
	maxBackoff  = 30 * time.Second
	readTimeout = 90 * time.Second
	inboxCap    = 256
)

// Client subscribes to the push scoreboard feed. Pushed events are only
// buffered here — the reconciler drains them at the start of its next
// cycle, so push data never mutates game state outside the single-flight
// cycle.
type Client struct {
	url   string
	inbox chan events.ScoreboardEvent
}

func NewClient(url string) *Client {
	return &Client{
		url:   url,
		inbox: make(chan events.ScoreboardEvent, inboxCap),
	}
}

// Drain returns every buffered event. Non-blocking; called once per cycle.
func (c *Client) Drain() []events.ScoreboardEvent {
	var out []events.ScoreboardEvent
	for {
		select {
		case ev := <-c.inbox:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// ConnectWithRetry connects to the push feed and reconnects on failure
// with exponential backoff. Blocks until ctx is cancelled.
func (c *Client) ConnectWithRetry(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		connStart := time.Now()
		err := c.connect(ctx)
		if ctx.Err() != nil {
			return
		}

		// A connection that held for a while resets the backoff curve.
		if time.Since(connStart) > time.Minute {
			attempt = 0
		}

		attempt++
		telemetry.Metrics.WSReconnects.Inc()
		backoff := time.Duration(float64(minBackoff) * math.Pow(2, float64(min(attempt-1, 5))))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		if err != nil {
			telemetry.Warnf("scorefeed_ws: connection lost (attempt %d): %v, retrying in %s",
				attempt, err, backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Reset deadline on server pings so quiet periods don't trigger a timeout.
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	telemetry.Infof("scorefeed_ws: connected")

	for {
		if ctx.Err() != nil {
			return nil
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		ev, err := scorefeed.ParseEvent(msg)
		if err != nil {
			telemetry.Debugf("scorefeed_ws: dropping message: %v", err)
			continue
		}

		select {
		case c.inbox <- ev:
		default:
			telemetry.Metrics.PushOverflows.Inc()
			telemetry.Warnf("scorefeed_ws: inbox full (cap=%d), dropping event", inboxCap)
		}
	}
}
