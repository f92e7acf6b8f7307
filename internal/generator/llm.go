package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyCompletion marks a generator returning no text. This is a
// transport-tier failure: the run aborts, it is never fed into the repair
// loop.
var ErrEmptyCompletion = errors.New("generator returned an empty completion")

// Generator is the external text producer: one opaque prompt in, one text
// blob out. Emptiness is a hard failure.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client is an OpenAI-compatible chat completions client.
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

var sleepFn = sleepCtx

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Complete sends the prompt and returns the completion text. Rate-limit
// and server errors are retried with backoff; an empty completion is
// returned as ErrEmptyCompletion.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 180 * time.Second}
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	payload := map[string]any{
		"model":       c.Model,
		"max_tokens":  c.MaxTokens,
		"temperature": c.Temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if c.Logger != nil {
		c.Logger.Debug("llm request", "url", endpoint, "prompt_len", len(prompt))
	}

	var lastErr error
	maxRetries := 3
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxRetries {
				if err := sleepFn(ctx, backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", err
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			if attempt < maxRetries {
				if err := sleepFn(ctx, backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("llm error status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
			if attempt < maxRetries {
				wait := backoff(attempt)
				if resp.StatusCode == http.StatusTooManyRequests {
					if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
						if secs, err := strconv.Atoi(ra); err == nil {
							wait = time.Duration(secs) * time.Second
						}
					}
				}
				if err := sleepFn(ctx, wait); err != nil {
					return "", err
				}
				continue
			}
			return "", lastErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", fmt.Errorf("llm error status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}

		var out struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return "", err
		}
		if len(out.Choices) == 0 {
			return "", ErrEmptyCompletion
		}
		content := stripMarkdownFence(out.Choices[0].Message.Content)
		if strings.TrimSpace(content) == "" {
			return "", ErrEmptyCompletion
		}
		if c.Logger != nil {
			c.Logger.Debug("llm response", "content_len", len(content))
		}
		return content, nil
	}
	if lastErr == nil {
		lastErr = errors.New("llm request failed")
	}
	return "", lastErr
}

// stripMarkdownFence unwraps a completion the model wrapped in a single
// ```...``` block.
func stripMarkdownFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	inner := strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(inner, "\n"); idx != -1 {
		inner = inner[idx+1:]
	}
	if !strings.HasSuffix(strings.TrimSpace(inner), "```") {
		return trimmed
	}
	if end := strings.LastIndex(inner, "```"); end != -1 {
		inner = inner[:end]
	}
	return strings.TrimSpace(inner)
}

func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Second << attempt
}
