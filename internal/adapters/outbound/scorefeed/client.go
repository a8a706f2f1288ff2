package scorefeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/iby/nfl-gameday/internal/events"
	"github.com/iby/nfl-gameday/internal/telemetry"
)

const (
	requestTimeout = 45 * time.Second
	rateLimitSec   = 10
)

// Client fetches live scoreboard snapshots from the upstream HTTP feed.
// The feed is untrusted: the parser tolerates missing and mistyped fields
// rather than failing the batch on one bad event.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	mu         sync.Mutex
	lastReq    time.Time
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// FetchScoreboard pulls the current scoreboard batch. Any transport or
// envelope-level parse failure fails the whole batch; the caller treats
// that as "no polled updates this cycle".
func (c *Client) FetchScoreboard(ctx context.Context) ([]events.ScoreboardEvent, error) {
	c.rateLimit()

	url := fmt.Sprintf("%s/games?live=all", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("scorefeed request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-apisports-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scorefeed fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scorefeed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scorefeed read: %w", err)
	}

	evs, err := ParseScoreboard(body)
	if err != nil {
		return nil, err
	}

	telemetry.Debugf("scorefeed: fetched %d events", len(evs))
	return evs, nil
}

// rateLimit spaces requests so back-to-back cycles (e.g. tick plus manual
// trigger) don't burn the upstream quota.
func (c *Client) rateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	elapsed := time.Since(c.lastReq)
	if elapsed < time.Duration(rateLimitSec)*time.Second && !c.lastReq.IsZero() {
		time.Sleep(time.Duration(rateLimitSec)*time.Second - elapsed)
	}
	c.lastReq = time.Now()
}
