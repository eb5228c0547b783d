package douban

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "albumocr/pkg/errors"
	"albumocr/pkg/logger"
)

// maxImageBytes bounds a single image download
const maxImageBytes = 50 << 20

// Client fetches album pages and image payloads with a browser identity
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates a client sending userAgent on every request.
// A zero timeout leaves the http.Client without a deadline.
func NewClient(userAgent string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"User-Agent": userAgent,
		},
		logger: log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient swaps the underlying transport, mainly for tests
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// get performs a GET with the configured headers and checks for a 2xx status.
// Transport failures and bad statuses are returned as Failures of kind.
func (c *Client) get(ctx context.Context, url string, kind errs.Kind) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(kind, url, fmt.Errorf("failed to create request: %w", err))
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.New(kind, url, err)
	}

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, duration)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errs.WithStatus(kind, url, resp.StatusCode)
	}

	return resp, nil
}

// FetchPage retrieves the album page markup. Any error is fatal to the run.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	resp, err := c.get(ctx, pageURL, errs.KindFetch)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.New(errs.KindFetch, pageURL, fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.DebugWithFields("fetched album page", map[string]interface{}{
		"url":  pageURL,
		"size": len(body),
	})

	return string(body), nil
}

// DownloadImage retrieves the raw bytes of one image
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := c.get(ctx, imageURL, errs.KindNetwork)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, errs.New(errs.KindNetwork, imageURL, fmt.Errorf("failed to read image data: %w", err))
	}
	if len(data) > maxImageBytes {
		return nil, errs.New(errs.KindNetwork, imageURL, fmt.Errorf("image larger than %d bytes", maxImageBytes))
	}

	c.logger.DebugWithFields("downloaded image", map[string]interface{}{
		"url":  imageURL,
		"size": len(data),
	})

	return data, nil
}
