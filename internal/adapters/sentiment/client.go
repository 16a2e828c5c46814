// internal/adapters/sentiment/client.go
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"review_insight/internal/adapters/observability"
	"review_insight/internal/domain"
)

const DefaultModel = "distilbert-base-uncased-finetuned-sst-2-english"

// Client talks to a Hugging Face style inference endpoint:
// POST {base}/models/{model} {"inputs": [...]}.
type Client struct {
	endpoint string
	model    string
	hc       *http.Client
	token    string
	rl       *rate.Limiter
}

func New(base, model, token string, rps int, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("classifier URL is required")
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid classifier URL %q", base)
	}
	if model == "" {
		model = DefaultModel
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: u.String() + "/models/" + model,
		model:    model,
		hc:       &http.Client{Timeout: timeout},
		token:    token,
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func (c *Client) Model() string { return c.model }

var (
	ErrUnauthorized = errors.New("classifier: unauthorized")
	ErrForbidden    = errors.New("classifier: forbidden")
	ErrNotFound     = errors.New("classifier: model not found")
	ErrUnavailable  = errors.New("classifier: unavailable")
)

type request struct {
	Inputs     []string       `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify sends the whole batch in one request. It is never retried: a
// failed call fails the caller's render cycle.
func (c *Client) Classify(ctx context.Context, texts []string) ([]domain.Sentiment, error) {
	if len(texts) == 0 {
		return []domain.Sentiment{}, nil
	}
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(request{
		Inputs:     texts,
		Parameters: map[string]any{"truncation": true},
		Options:    map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "review-insight/1.0")

	observability.ObserveClassifyBatch(len(texts))
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("classifier", c.model, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("classifier", c.model, resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return decode(raw)
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusForbidden:
		return nil, ErrForbidden
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, fmt.Errorf("%w: remote %d: %s", ErrUnavailable, resp.StatusCode, errorDetail(resp.Body))
	default:
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, errorDetail(resp.Body))
	}
}

// decode accepts the nested per-input score lists the inference API returns
// for batches, or a flat list with one top label per input.
func decode(raw []byte) ([]domain.Sentiment, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		out := make([]domain.Sentiment, len(nested))
		for i, scores := range nested {
			if len(scores) == 0 {
				return nil, fmt.Errorf("empty scores for input %d", i)
			}
			best := scores[0]
			for _, s := range scores[1:] {
				if s.Score > best.Score {
					best = s
				}
			}
			out[i] = toSentiment(best)
		}
		return out, nil
	}

	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	out := make([]domain.Sentiment, len(flat))
	for i, s := range flat {
		out[i] = toSentiment(s)
	}
	return out, nil
}

func toSentiment(s labelScore) domain.Sentiment {
	return domain.Sentiment{Label: strings.TrimSpace(s.Label), Confidence: s.Score}
}

// errorDetail reads a small error body for diagnostics, preferring the
// inference API's {"error": "..."} field.
func errorDetail(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(b))
}
