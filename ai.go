package tyjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"
	"github.com/ttdf/tyjson/markdown"
)

const defaultSummaryPrompt = "Write a short summary (under 200 words) of the following article:\n\nTitle: ${title}\n\nContent:\n${content}"

// summaryField is the custom field a generated summary is stored under.
const summaryField = "AISummary"

// Summarizer produces a summary for an article.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
}

// SummaryClient calls an OpenAI-compatible chat completions endpoint. Calls
// are never retried; after five consecutive failures the breaker rejects
// calls for a minute.
type SummaryClient struct {
	cfg     AIConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewSummaryClient creates a SummaryClient from cfg.
func NewSummaryClient(cfg AIConfig) *SummaryClient {
	return &SummaryClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "ai-summary",
			Timeout: time.Minute,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize sends the prompt built from title and content and returns the
// first choice's text.
func (c *SummaryClient) Summarize(ctx context.Context, title, content string) (string, error) {
	if c.cfg.Endpoint == "" || c.cfg.APIKey == "" {
		return "", errUpstream("Missing API Configuration", nil)
	}
	prompt := strings.NewReplacer("${title}", title, "${content}", content).Replace(c.cfg.Prompt)

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", errUpstream("AI provider unavailable", err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (c *SummaryClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errUpstream("Request Error: "+err.Error(), err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errUpstream("Request Error: "+err.Error(), err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errUpstream(fmt.Sprintf("API Error: %d Response: %s", resp.StatusCode, raw), nil)
	}
	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil || len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", errUpstream("Empty response from AI or invalid JSON", err)
	}
	return cr.Choices[0].Message.Content, nil
}

var reSummaryMarkup = regexp.MustCompile("[#*`~>\\[\\]()]")
var reSpaces = regexp.MustCompile(`\s+`)

// summaryInput reduces a post body to plain text of at most maxChars
// characters before it is sent upstream.
func summaryInput(text string, maxChars int) string {
	text = markdown.StripTags(text)
	text = reSummaryMarkup.ReplaceAllString(text, " ")
	text = strings.TrimSpace(reSpaces.ReplaceAllString(text, " "))
	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		text = string([]rune(text)[:maxChars]) + "..."
	}
	return text
}

// generateSummary summarizes a stored post and saves the result as its
// AISummary field.
func (a *App) generateSummary(ctx context.Context, cid int64) (string, error) {
	row, err := a.Store.GetContent(ctx, cid)
	if errors.Is(err, ErrNotFound) {
		return "", errUpstream(fmt.Sprintf("Post not found: %d", cid), nil)
	}
	if err != nil {
		return "", err
	}

	summary, err := a.Summarizer.Summarize(ctx, row.Title, summaryInput(row.Text, a.Config.AI.MaxChars))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return "", apiErr
		}
		return "", errUpstream(err.Error(), err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", errUpstream("Empty response from AI or invalid JSON", nil)
	}
	if err := a.Store.SetStringField(ctx, cid, summaryField, summary); err != nil {
		return "", fmt.Errorf("tyjson: save summary: %w", err)
	}
	return summary, nil
}
