package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// APIError is a failure reported by the Evolution API itself, as opposed
// to a transport-level failure reaching it.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("evolution api error: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to one Evolution API deployment. Instance-bound senders
// are derived from it through a Manager.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     zerolog.Logger

	// MaxRetryElapsed caps the retry window for transient failures.
	MaxRetryElapsed time.Duration
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		APIKey:          apiKey,
		HTTPClient:      &http.Client{Timeout: timeout},
		Logger:          logger,
		MaxRetryElapsed: 15 * time.Second,
	}
}

type apiResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// post sends one JSON request to the API, retrying transient failures.
// 4xx responses are permanent: the request will not become valid by
// trying again.
func (c *Client) post(ctx context.Context, path string, payload any) (apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return apiResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	var decoded apiResponse
	op := backoff.NewExponentialBackOff()
	op.MaxElapsedTime = c.MaxRetryElapsed

	err = backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("apikey", c.APIKey)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 500 {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(&APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))})
		}

		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}, backoff.WithContext(op, ctx))

	if err != nil {
		c.Logger.Warn().Err(err).Str("path", path).Msg("evolution request failed")
		return apiResponse{}, err
	}
	return decoded, nil
}
