package tyjson

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestSummaryClient(t *testing.T, h http.HandlerFunc) *SummaryClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := AIConfig{Endpoint: srv.URL, APIKey: "key", Model: "test-model", Prompt: "T=${title} C=${content}", Timeout: 5 * time.Second}
	return NewSummaryClient(cfg)
}

func TestSummaryClientSendsPrompt(t *testing.T) {
	requests := make(chan chatRequest, 1)
	auth := make(chan string, 1)
	c := newTestSummaryClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		requests <- req
		auth <- r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"A summary."}}]}`))
	})

	out, err := c.Summarize(context.Background(), "Hello", "World")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if out != "A summary." {
		t.Errorf("Summarize = %q", out)
	}
	if a := <-auth; a != "Bearer key" {
		t.Errorf("Authorization = %q", a)
	}
	got := <-requests
	if got.Model != "test-model" || len(got.Messages) != 1 || got.Messages[0].Content != "T=Hello C=World" {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestSummaryClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"http error", http.StatusBadGateway, "bad", "API Error: 502 Response: bad"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "Empty response from AI or invalid JSON"},
		{"not json", http.StatusOK, `oops`, "Empty response from AI or invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestSummaryClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.Summarize(context.Background(), "t", "c")
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Kind != KindUpstream || apiErr.Message != tt.message {
				t.Errorf("got %v, want upstream %q", err, tt.message)
			}
		})
	}
}

func TestSummaryClientMissingConfig(t *testing.T) {
	c := NewSummaryClient(AIConfig{Endpoint: "http://example.invalid", Timeout: time.Second})
	_, err := c.Summarize(context.Background(), "t", "c")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Missing API Configuration" {
		t.Errorf("got %v", err)
	}
}

func TestSummaryClientBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	c := newTestSummaryClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	for i := 0; i < 5; i++ {
		c.Summarize(context.Background(), "t", "c")
	}
	_, err := c.Summarize(context.Background(), "t", "c")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "AI provider unavailable" {
		t.Errorf("expected open breaker, got %v", err)
	}
	if n := calls.Load(); n != 5 {
		t.Errorf("provider called %d times, want 5", n)
	}
}

func TestSummaryInput(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"# Title\n\n**bold** `code`", 100, "Title bold code"},
		{"<p>html</p> [link](x)", 100, "html link x"},
		{"abcdef", 3, "abc..."},
		{"你好世界", 2, "你好..."},
	}
	for _, tt := range tests {
		if got := summaryInput(tt.in, tt.max); got != tt.want {
			t.Errorf("summaryInput(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
