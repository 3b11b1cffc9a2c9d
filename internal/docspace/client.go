// Package docspace talks to the external document workspace that holds
// narrative project pages and their progress numbers. The service is treated
// as opaque: we create pages, read pages back, and extract a 0-100 progress
// percent from whichever property shape the workspace returns.
package docspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func New(baseURL, apiKey string) *Client {
	timeout := 10 * time.Second
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("docspace error: status=%d body=%s", e.StatusCode, e.Body)
}

// Page is the workspace page model, reduced to what we read back.
type Page struct {
	ID         string                     `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// CreatePage creates a page under a parent and returns the new page id.
func (c *Client) CreatePage(ctx context.Context, parentID string, properties map[string]any) (string, error) {
	body := map[string]any{
		"parent_id":  parentID,
		"properties": properties,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "pages", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// GetPage fetches a page by id.
func (c *Client) GetPage(ctx context.Context, pageID string) (Page, error) {
	var p Page
	err := c.do(ctx, http.MethodGet, "pages/"+pageID, nil, &p)
	return p, err
}

// Progress returns a page's progress percent. The workspace exposes the
// number under one of three property shapes (rollup, formula or a plain
// number); whichever is present wins.
func (c *Client) Progress(ctx context.Context, pageID string) (float64, error) {
	p, err := c.GetPage(ctx, pageID)
	if err != nil {
		return 0, err
	}
	raw, ok := p.Properties["progress"]
	if !ok {
		return 0, nil
	}
	return ExtractProgress(raw)
}

// GetManyProgress looks up progress for a batch of pages. Individual lookup
// failures default that entry to 0 instead of failing the batch.
func (c *Client) GetManyProgress(ctx context.Context, pageIDs []string) map[string]float64 {
	out := make(map[string]float64, len(pageIDs))
	for _, id := range pageIDs {
		pct, err := c.Progress(ctx, id)
		if err != nil {
			out[id] = 0
			continue
		}
		out[id] = pct
	}
	return out
}

// ExtractProgress pulls a 0-100 percent out of a progress property. Values at
// or below 1 are treated as fractions and scaled by 100; this makes exactly
// 1.0 read as 100%, not 1%, which matches how the workspace reports full
// rollups.
func ExtractProgress(raw json.RawMessage) (float64, error) {
	var shaped struct {
		Rollup *struct {
			Number float64 `json:"number"`
		} `json:"rollup"`
		Formula *struct {
			Number float64 `json:"number"`
		} `json:"formula"`
		Number *float64 `json:"number"`
	}
	var value float64
	if err := json.Unmarshal(raw, &shaped); err == nil {
		switch {
		case shaped.Rollup != nil:
			value = shaped.Rollup.Number
		case shaped.Formula != nil:
			value = shaped.Formula.Number
		case shaped.Number != nil:
			value = *shaped.Number
		default:
			// plain numeric property
			if err := json.Unmarshal(raw, &value); err != nil {
				return 0, fmt.Errorf("progress property has no numeric shape")
			}
		}
	} else if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("progress property has no numeric shape")
	}
	if value <= 1 && value >= 0 {
		value *= 100
	}
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return value, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.BaseURL == "" {
		return fmt.Errorf("docspace base URL not configured")
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.Timeout}
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
