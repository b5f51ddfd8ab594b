// Package vision provides the infrastructure adapters behind the identity
// ports: an HTTP client for the external face detection/embedding model
// server, a nearest-centroid probabilistic classifier, and the on-disk
// stores for model artifacts and enrollment face samples.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/centbank/facebank/internal/core/ports"
)

const (
	defaultBaseURL = "http://localhost:9090"
	maxRetries     = 3
	initialDelay   = 250 * time.Millisecond
)

// Client talks to the face inference sidecar. The detector and embedder
// networks themselves are opaque; this adapter only moves pixel buffers and
// vectors across the wire.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the inference server URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type detectRequest struct {
	Image string `json:"image"` // base64-encoded pixel buffer
}

type detectionPayload struct {
	Crop       string  `json:"crop"` // base64-encoded face crop
	Confidence float64 `json:"confidence"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

type detectResponse struct {
	Detections []detectionPayload `json:"detections"`
}

type embedRequest struct {
	Crop string `json:"crop"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Detect sends the pixel buffer to the detector endpoint and returns every
// face it reports, crops decoded.
func (c *Client) Detect(ctx context.Context, image []byte) ([]ports.Detection, error) {
	var resp detectResponse
	req := detectRequest{Image: base64.StdEncoding.EncodeToString(image)}
	if err := c.post(ctx, "/v1/detect", req, &resp); err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	detections := make([]ports.Detection, 0, len(resp.Detections))
	for _, d := range resp.Detections {
		crop, err := base64.StdEncoding.DecodeString(d.Crop)
		if err != nil {
			return nil, fmt.Errorf("detect: decode crop: %w", err)
		}
		detections = append(detections, ports.Detection{
			Crop:       crop,
			Confidence: d.Confidence,
			Width:      d.Width,
			Height:     d.Height,
		})
	}
	return detections, nil
}

// Embed sends a face crop to the embedder endpoint and returns its
// fixed-length embedding vector.
func (c *Client) Embed(ctx context.Context, crop []byte) ([]float32, error) {
	var resp embedResponse
	req := embedRequest{Crop: base64.StdEncoding.EncodeToString(crop)}
	if err := c.post(ctx, "/v1/embed", req, &resp); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("embed: empty embedding")
	}
	return resp.Embedding, nil
}

// Ping checks that the inference server is reachable. Used by the readiness
// probe only; recognition calls carry their own retries.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference server returned %d", resp.StatusCode)
	}
	return nil
}

// post issues a JSON POST with exponential-backoff retries on transport and
// 5xx failures.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := initialDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("inference request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("inference server returned %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("inference server returned %d: %s", resp.StatusCode, respBody)
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return lastErr
}
