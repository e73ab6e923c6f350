package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// httpClient wraps http.Client with JSON helpers.
type httpClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// do sends body as JSON and decodes a JSON answer into out when out is not
// nil. It returns the status code.
func (c *httpClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && len(data) > 0 && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// warmResult mirrors the server's warm answer.
type warmResult struct {
	Queued     []string `json:"queued"`
	Duplicates []string `json:"duplicates"`
	Rejected   []string `json:"rejected"`
}

// analysis mirrors the parts of the server's analysis the run checks.
type analysis struct {
	SubjectID   string `json:"subject_id"`
	Fingerprint string `json:"fingerprint"`
	Cached      bool   `json:"cached"`
	Normalized  struct {
		Difficulty float64 `json:"difficulty"`
		Confidence float64 `json:"confidence"`
	} `json:"normalized"`
}

// recommendation mirrors the server's recommendation.
type recommendation struct {
	Items []struct {
		Rank    int    `json:"rank"`
		IssueID string `json:"issue_id"`
	} `json:"items"`
	Partial  bool     `json:"partial"`
	Unscored []string `json:"unscored"`
}

// warmIssues posts issues in batches. A 429 counts the batch as rejected.
func warmIssues(ctx context.Context, c *httpClient, issues []Issue, batch int, stats *Stats) error {
	for start := 0; start < len(issues); start += batch {
		end := min(start+batch, len(issues))
		var res warmResult
		status, err := c.do(ctx, http.MethodPost, "/issues/warm", map[string]any{"issues": issues[start:end]}, &res)
		if err != nil {
			return fmt.Errorf("warm batch %d: %w", start/batch, err)
		}
		switch status {
		case http.StatusAccepted:
			stats.WarmQueued += len(res.Queued)
			stats.WarmDuplicate += len(res.Duplicates)
			stats.WarmRejected += len(res.Rejected)
		case http.StatusTooManyRequests:
			stats.WarmRejected += end - start
		default:
			return fmt.Errorf("warm batch %d: unexpected status %d", start/batch, status)
		}
	}
	return nil
}

// analyzeIssues analyzes every issue with a pool of workers. Results are
// indexed like issues; failed entries are left zero.
func analyzeIssues(ctx context.Context, c *httpClient, issues []Issue, workers int) ([]analysis, int64) {
	results := make([]analysis, len(issues))
	var failed int64

	indexes := make(chan int, workers*2)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				if ctx.Err() != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				a, err := analyzeOne(ctx, c, issues[i])
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				results[i] = a
			}
		}()
	}

	for i := range issues {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return results, failed
}

func analyzeOne(ctx context.Context, c *httpClient, is Issue) (analysis, error) {
	req := map[string]any{
		"kind":     "issue",
		"id":       is.ID,
		"title":    is.Title,
		"body":     is.Body,
		"labels":   is.Labels,
		"language": is.Language,
	}
	var a analysis
	status, err := c.do(ctx, http.MethodPost, "/analyze", req, &a)
	if err != nil {
		return analysis{}, err
	}
	if status != http.StatusOK {
		return analysis{}, fmt.Errorf("analyze %s: status %d", is.ID, status)
	}
	return a, nil
}
