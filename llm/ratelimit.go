package llm

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// defaultRateLimitWait is used when a 429 response carries no retry hint.
const defaultRateLimitWait = 65 * time.Second

// rateLimitState pauses every caller sharing a Client after a 429.
type rateLimitState struct {
	mu       sync.Mutex
	paused   atomic.Bool
	pauseEnd time.Time
}

func (r *rateLimitState) pause(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	end := time.Now().Add(d)
	if end.After(r.pauseEnd) {
		r.pauseEnd = end
	}
	r.paused.Store(true)
}

// unpause clears the pause once the latest deadline has passed. A caller
// whose own wait ended early leaves a longer pause from another caller in place.
func (r *rateLimitState) unpause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !time.Now().Before(r.pauseEnd) {
		r.paused.Store(false)
	}
}

// waitIfPaused blocks until the pause is over or ctx is done.
func (r *rateLimitState) waitIfPaused(ctx context.Context) error {
	for r.paused.Load() {
		r.mu.Lock()
		remaining := time.Until(r.pauseEnd)
		r.mu.Unlock()
		if remaining <= 0 {
			r.unpause()
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(min(remaining, 100*time.Millisecond)):
		}
	}
	return nil
}

// parseRetryDelay reads Google's RetryInfo detail from a 429 body and adds a
// five second buffer. It returns fallback when the body has no hint.
func parseRetryDelay(body []byte, fallback time.Duration) time.Duration {
	var errResp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return fallback
	}

	for _, detail := range errResp.Error.Details {
		if !strings.Contains(detail.Type, "RetryInfo") || detail.RetryDelay == "" {
			continue
		}
		secs, err := strconv.ParseFloat(strings.TrimSuffix(detail.RetryDelay, "s"), 64)
		if err == nil {
			return time.Duration(secs*1000)*time.Millisecond + 5*time.Second
		}
	}
	return fallback
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
