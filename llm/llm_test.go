package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, prov Provider, opts Options) *Client {
	t.Helper()
	c, err := New(prov, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	c.backoff = time.Millisecond
	return c
}

func TestComplete_OpenAICompatible(t *testing.T) {
	var gotAuth string
	var gotBody struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"[{\"source\":\"蚊\"}]"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	prov := DefaultProviders()[ProviderLLM7]
	prov.BaseURL = srv.URL + "/v1"
	c := newTestClient(t, prov, Options{})

	text, err := c.Complete(context.Background(), Request{
		System:      "sys",
		User:        "user prompt",
		Temperature: 0.1,
		MaxTokens:   2500,
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != `[{"source":"蚊"}]` {
		t.Errorf("text = %q", text)
	}
	if gotAuth != "Bearer "+anonymousKey {
		t.Errorf("Authorization = %q, want anonymous key", gotAuth)
	}
	if gotBody.Model != "gpt-4.1-nano-2025-04-14" || gotBody.MaxTokens != 2500 {
		t.Errorf("request = %+v", gotBody)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Content != "user prompt" {
		t.Errorf("messages = %+v", gotBody.Messages)
	}
	if gotBody.Temperature < 0.09 || gotBody.Temperature > 0.11 {
		t.Errorf("temperature = %v, want 0.1", gotBody.Temperature)
	}
}

func TestComplete_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, Provider{ID: ProviderCustomOpenAI, BaseURL: srv.URL, Model: "m"}, Options{})
	_, err := c.Complete(context.Background(), Request{User: "x"})

	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("error = %v, want StatusError 400", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestComplete_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, `{"error":{"message":"upstream"}}`)
			return
		}
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, Provider{ID: ProviderOllama, BaseURL: srv.URL, Model: "qwen"}, Options{MaxRetries: 2})
	text, err := c.Complete(context.Background(), Request{User: "x"})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "ok" || calls.Load() != 2 {
		t.Errorf("text = %q after %d calls, want ok after 2", text, calls.Load())
	}
}

func TestComplete_RateLimitPausesAndRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %q, want /messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "k" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic headers: %v", r.Header)
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error":{"message":"slow down"}}`)
			return
		}
		io.WriteString(w, `{"content":[{"type":"text","text":"[]"}]}`)
	}))
	defer srv.Close()

	prov := DefaultProviders()[ProviderAnthropic]
	prov.BaseURL = srv.URL
	prov.APIKey = "k"
	prov.Model = "claude"
	c := newTestClient(t, prov, Options{RateLimitWait: 10 * time.Millisecond})

	start := time.Now()
	text, err := c.Complete(context.Background(), Request{User: "x"})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "[]" {
		t.Errorf("text = %q", text)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Complete() did not wait out the rate limit")
	}
}

func TestComplete_Gemini(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "gk" {
			t.Errorf("x-goog-api-key = %q", r.Header.Get("x-goog-api-key"))
		}
		json.NewDecoder(r.Body).Decode(&body)
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"[{\"source\":"},{"text":"\"蚊子\"}]"}]}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, Provider{ID: ProviderGoogle, BaseURL: srv.URL, APIKey: "gk", Model: "gemini-test"}, Options{})
	text, err := c.Complete(context.Background(), Request{System: "sys", User: "u", Temperature: 0.1, MaxTokens: 100})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != `[{"source":"蚊子"}]` {
		t.Errorf("text = %q, want joined parts", text)
	}
	if _, ok := body["systemInstruction"]; !ok {
		t.Error("request has no systemInstruction")
	}
	cfg, _ := body["generationConfig"].(map[string]any)
	if cfg["maxOutputTokens"] != float64(100) {
		t.Errorf("generationConfig = %v", cfg)
	}
}

func TestComplete_ContextCanceled(t *testing.T) {
	c := newTestClient(t, Provider{ID: ProviderOllama, BaseURL: "http://127.0.0.1:1", Model: "m"}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Complete(ctx, Request{User: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		prov Provider
		want string
	}{
		{"missing key", Provider{ID: ProviderOpenAI, BaseURL: "https://x", Model: "m", KeyRequired: true}, "API key"},
		{"missing model", Provider{ID: ProviderGroq, BaseURL: "https://x", APIKey: "k"}, "model"},
		{"missing base URL", Provider{ID: ProviderCustomOpenAI, Model: "m"}, "base URL"},
	}
	for _, tc := range tests {
		_, err := New(tc.prov, Options{})
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: New() error = %v, want mention of %q", tc.name, err, tc.want)
		}
	}
}

func TestParseRetryDelay(t *testing.T) {
	body := []byte(`{"error":{"code":429,"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"30s"}]}}`)
	if got := parseRetryDelay(body, time.Minute); got != 35*time.Second {
		t.Errorf("parseRetryDelay() = %v, want 35s", got)
	}
	if got := parseRetryDelay([]byte("not json"), time.Minute); got != time.Minute {
		t.Errorf("parseRetryDelay(garbage) = %v, want fallback", got)
	}
}

func TestExtractResponseText_APIError(t *testing.T) {
	_, err := extractResponseText([]byte(`{"error":{"message":"quota exceeded"}}`))
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error = %v", err)
	}
}

func TestFunc(t *testing.T) {
	var f Completer = Func(func(_ context.Context, req Request) (string, error) {
		return strings.ToUpper(req.User), nil
	})
	got, err := f.Complete(context.Background(), Request{User: "abc"})
	if err != nil || got != "ABC" {
		t.Fatalf("Func.Complete() = %q, %v", got, err)
	}
}

func TestProviderIDs(t *testing.T) {
	ids := ProviderIDs()
	if len(ids) != len(DefaultProviders()) {
		t.Fatalf("len(ProviderIDs()) = %d", len(ids))
	}
	if _, ok := LookupProvider(DefaultProviderID); !ok {
		t.Fatal("default provider is not registered")
	}
}

func TestRateLimitState_OverlappingPausesHoldUntilLatestDeadline(t *testing.T) {
	rl := &rateLimitState{}

	rl.pause(100 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	rl.pause(200 * time.Millisecond)
	time.Sleep(90 * time.Millisecond)

	// The first caller's own wait is over; the second pause runs ~110ms more.
	rl.unpause()
	if !rl.paused.Load() {
		t.Fatal("unpause() cleared the pause before the latest deadline")
	}

	start := time.Now()
	if err := rl.waitIfPaused(context.Background()); err != nil {
		t.Fatalf("waitIfPaused() error: %v", err)
	}
	if waited := time.Since(start); waited < 60*time.Millisecond {
		t.Fatalf("waitIfPaused() returned after %v, want the remaining shared pause", waited)
	}
	if rl.paused.Load() {
		t.Fatal("pause still set after the deadline passed")
	}
}
