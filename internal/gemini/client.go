package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hearsaylabs/hearsay/internal/config"
)

// Client is a thin REST client for the generative language API. It returns
// the raw response envelope; callers own interpretation, since the envelope
// shape differs between success, policy refusal, and API error.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	log      *slog.Logger
}

func NewClient(cfg config.GeminiConfig, log *slog.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
		log:      log.With(slog.String("component", "gemini-client")),
	}
}

// GenerateContent posts a generateContent request for the given model and
// returns the raw JSON body. A non-2xx status is not an error here: the API
// reports failures inside the envelope and the caller parses them.
func (c *Client) GenerateContent(ctx context.Context, model string, req GenerateRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.endpoint, url.PathEscape(model), url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.log.Debug("generateContent response",
		slog.String("model", model),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(data)))
	return data, nil
}
