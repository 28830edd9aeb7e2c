package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Options controls retries and tracing for a Client.
type Options struct {
	// Timeout is the per-request timeout (overrides the provider timeout if set).
	Timeout time.Duration
	// MaxRetries is the number of retries after a failed attempt. Default: 3.
	MaxRetries int
	// RateLimitWait is the pause after a 429 without a retry hint. Default: 65s.
	RateLimitWait time.Duration
	// Verbose traces every attempt with log.Printf.
	Verbose bool
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	if o.MaxRetries < 0 {
		return 0
	}
	return 3
}

func (o *Options) effectiveRateLimitWait() time.Duration {
	if o.RateLimitWait > 0 {
		return o.RateLimitWait
	}
	return defaultRateLimitWait
}

// Client sends requests to one provider. It is safe for concurrent use; a
// rate limit hit by one caller pauses all of them.
type Client struct {
	prov    Provider
	opts    Options
	http    *http.Client
	openai  *openai.Client
	rl      *rateLimitState
	backoff time.Duration
}

// New returns a Client for prov.
func New(prov Provider, opts Options) (*Client, error) {
	if prov.ID == "" {
		prov.ID = DefaultProviderID
	}
	if prov.BaseURL == "" {
		return nil, fmt.Errorf("provider %q: base URL is required", prov.ID)
	}
	if prov.Model == "" {
		return nil, fmt.Errorf("provider %q: model is required", prov.ID)
	}
	if prov.KeyRequired && prov.APIKey == "" {
		return nil, fmt.Errorf("provider %q: API key is required", prov.ID)
	}
	if prov.ID == ProviderLLM7 && prov.APIKey == "" {
		prov.APIKey = anonymousKey
	}

	timeout := prov.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	c := &Client{
		prov:    prov,
		opts:    opts,
		http:    makeHTTPClient(prov.Proxy, timeout),
		rl:      &rateLimitState{},
		backoff: time.Second,
	}
	if prov.usesOpenAIProtocol() {
		cfg := openai.DefaultConfig(prov.APIKey)
		cfg.BaseURL = strings.TrimSuffix(strings.TrimRight(prov.BaseURL, "/"), "/chat/completions")
		cfg.HTTPClient = c.http
		c.openai = openai.NewClientWithConfig(cfg)
	}
	return c, nil
}

// Provider returns the provider the client was built for.
func (c *Client) Provider() Provider {
	return c.prov
}

// Complete sends req and returns the response text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	switch c.prov.ID {
	case ProviderGoogle:
		return c.retry(ctx, func(ctx context.Context) (string, error) {
			return c.callHTTP(ctx, formatGeminiNative, req)
		})
	case ProviderAnthropic:
		return c.retry(ctx, func(ctx context.Context) (string, error) {
			return c.callHTTP(ctx, formatAnthropic, req)
		})
	default:
		return c.retry(ctx, func(ctx context.Context) (string, error) {
			return c.callOpenAI(ctx, req)
		})
	}
}

// ---------------------------------------------------------------------------
// Retry loop
// ---------------------------------------------------------------------------

// StatusError is a non-2xx response from the provider.
type StatusError struct {
	Code int
	Body string
	// RetryAfter is the pause requested by a 429 response.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Code, truncate(e.Body, 500))
}

// transportError wraps a failure to reach the provider at all.
type transportError struct{ err error }

func (e *transportError) Error() string { return "API request failed: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func (c *Client) retry(ctx context.Context, attempt func(context.Context) (string, error)) (string, error) {
	maxRetries := c.opts.effectiveMaxRetries()

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		// Wait if another caller hit the rate limit.
		if err := c.rl.waitIfPaused(ctx); err != nil {
			return "", err
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if c.opts.Verbose {
			log.Printf("[DEBUG] %s attempt %d: model %s", c.prov.Name, i+1, c.prov.Model)
		}

		text, err := attempt(ctx)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err

		var se *StatusError
		var te *transportError
		switch {
		case errors.As(err, &se) && se.Code == http.StatusTooManyRequests:
			wait := se.RetryAfter
			if wait <= 0 {
				wait = c.opts.effectiveRateLimitWait()
			}
			if c.opts.Verbose {
				log.Printf("[WARN] 429 rate limited, waiting %v before retry (attempt %d/%d)", wait, i+1, maxRetries)
			}
			if i == maxRetries {
				return "", fmt.Errorf("rate limited after %d retries: %w", maxRetries, err)
			}
			c.rl.pause(wait)
			if err := sleep(ctx, wait); err != nil {
				return "", err
			}

		case errors.As(err, &se) && se.Code >= 500, errors.As(err, &te):
			if i == maxRetries {
				return "", err
			}
			if err := sleep(ctx, c.backoff<<i); err != nil {
				return "", err
			}

		default:
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted all %d retries: %w", maxRetries, lastErr)
}

// ---------------------------------------------------------------------------
// HTTP client with real proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Support both --proxy flag and HTTP_PROXY/HTTPS_PROXY env vars
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
