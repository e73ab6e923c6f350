package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/gitstart/pkg/metrics"
)

const (
	classifyPath    = "/v1/classify"
	maxResponseSize = 1 << 20
)

// HTTPOption applies a configuration option to the HTTPClient.
type HTTPOption func(*HTTPClient)

// WithRateLimit caps outgoing requests per second. Zero rps disables the cap.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// HTTPClient calls a JSON classification endpoint.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewHTTPClient creates a client for baseURL.
func NewHTTPClient(baseURL, apiKey string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type classifyRequest struct {
	Kind       string `json:"kind"`
	Language   string `json:"language,omitempty"`
	Content    string `json:"content"`
	DeadlineMs int64  `json:"deadline_ms,omitempty"`
}

// Classify sends one request, waiting for the rate limiter first.
func (c *HTTPClient) Classify(ctx context.Context, req Request) (Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.RecordInferenceRequest("throttled")
			return Response{}, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	body := classifyRequest{Kind: req.Kind, Language: req.Language, Content: req.Content}
	if !req.Deadline.IsZero() {
		body.DeadlineMs = time.Until(req.Deadline).Milliseconds()
		if body.DeadlineMs <= 0 {
			return Response{}, ErrTimeout
		}
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: marshal request: %v", ErrMalformedInput, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+classifyPath, bytes.NewReader(jsonBody))
	if err != nil {
		return Response{}, fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.RecordInferenceRequest("error")
		return Response{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		metrics.RecordInferenceRequest("error")
		return Response{}, classifyTransportError(ctx, err)
	}
	metrics.RecordInferenceRequest(statusClass(resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return Response{}, fmt.Errorf("%w: %s", ErrRateLimited, snippet(respBody))
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity, resp.StatusCode == http.StatusRequestEntityTooLarge:
		return Response{}, fmt.Errorf("%w: %d %s", ErrMalformedInput, resp.StatusCode, snippet(respBody))
	case resp.StatusCode == http.StatusGatewayTimeout, resp.StatusCode == http.StatusRequestTimeout:
		return Response{}, fmt.Errorf("%w: %d", ErrTimeout, resp.StatusCode)
	default:
		return Response{}, fmt.Errorf("%w: API error %d: %s", ErrUnavailable, resp.StatusCode, snippet(respBody))
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Response{}, fmt.Errorf("%w: unmarshal response: %v", ErrBadResponse, err)
	}
	if err := out.validate(); err != nil {
		return Response{}, err
	}
	return out, nil
}

func (r Response) validate() error {
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrBadResponse, r.Confidence)
	}
	if r.Max < 0 {
		return fmt.Errorf("%w: negative max %v", ErrBadResponse, r.Max)
	}
	if !r.Numeric() && strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("%w: neither score nor label", ErrBadResponse)
	}
	return nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
