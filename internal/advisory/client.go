// Package advisory provides connectivity to an external generative AI endpoint.
// The client is optional: when the feature is disabled or the API key is
// missing, NewClient returns nil and callers fall back to a canned response.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/itqan-erp/procurement-api/internal/config"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

// Client calls a Gemini-style generateContent endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	logger     *zap.Logger
}

// NewClient creates a new advisory client with the given configuration.
// Returns nil if the advisory feature is not enabled or not configured.
func NewClient(cfg *config.AdvisoryConfig, logger *zap.Logger) *Client {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Advisory endpoint disabled")
		return nil
	}

	if cfg.URL == "" || cfg.APIKey == "" {
		logger.Warn("Advisory enabled but missing configuration, skipping client",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("api_key_present", cfg.APIKey != ""),
		)
		return nil
	}

	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger.Info("Initializing advisory client",
		zap.String("model", cfg.Model),
		zap.Duration("timeout", timeout),
	)

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.URL,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

// IsEnabled returns true if the client is initialized and ready for requests.
func (c *Client) IsEnabled() bool {
	return c != nil && c.httpClient != nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt to the generative endpoint and returns the first
// candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.IsEnabled() {
		return "", fmt.Errorf("advisory client not initialized")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Advisory request failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Advisory endpoint returned error status",
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
		)
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from advisory endpoint")
	}

	c.logger.Debug("Advisory request completed",
		zap.Duration("duration", time.Since(start)),
	)

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
