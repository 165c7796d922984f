package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type HTTPClient struct {
	Client    *http.Client
	Retries   int
	Timeout   time.Duration
	UserAgent string
	Logger    zerolog.Logger
}

func NewHTTPClient(retries int, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		Client: &http.Client{
			Timeout: timeout,
		},
		Retries: retries,
		Timeout: timeout,
		Logger:  zerolog.Nop(),
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// GetJSON issues a GET and decodes the JSON body into out. 5xx responses and
// transport errors are retried with exponential backoff; 4xx are returned at once.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, out any) error {
	var lastErr error

	for i := 0; i <= c.Retries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.UserAgent != "" {
			req.Header.Set("User-Agent", c.UserAgent)
		}

		resp, err := c.Client.Do(req)
		if err == nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				defer resp.Body.Close()
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					return fmt.Errorf("decode %s: %w", url, err)
				}
				return nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = &StatusError{URL: url, StatusCode: resp.StatusCode}
			if resp.StatusCode < 500 {
				return lastErr
			}
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i < c.Retries {
			c.Logger.Warn().Str("url", url).Int("attempt", i+1).Err(lastErr).Msg("HTTP request failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<i) * 200 * time.Millisecond):
			}
		}
	}

	return fmt.Errorf("request failed after %d retries: %w", c.Retries, lastErr)
}
