package holdingboardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Holding Board HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// BoardTask is the API board task model (partial).
type BoardTask struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	ProviderID     string `json:"provider_id"`
	RequestorEmail string `json:"requestor_email"`
	Status         string `json:"status"`
	Comment        string `json:"response_comment,omitempty"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	RefusalReason  string `json:"refusal_reason,omitempty"`
}

// Task is the API operational task model (partial).
type Task struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Status     string  `json:"status"`
	ProviderID *string `json:"provider_id,omitempty"`
	ProjectID  *string `json:"project_id,omitempty"`
	DueDate    *string `json:"due_date,omitempty"`
}

// Meeting is the API meeting model (partial).
type Meeting struct {
	ID      string `json:"id"`
	Context string `json:"context,omitempty"`
	Date    string `json:"date"`
	Status  string `json:"status"`
}

// FinalizeResult is returned by FinalizeMeeting.
type FinalizeResult struct {
	Meeting          Meeting `json:"meeting"`
	CreatedTaskCount int     `json:"created_task_count"`
}

// AuditEntry is a change-log record.
type AuditEntry struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorEmail string         `json:"actor_email"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateBoardTask delegates a task to a provider.
func (c *Client) CreateBoardTask(ctx context.Context, title, providerID string) (BoardTask, error) {
	body := map[string]any{
		"title":       title,
		"provider_id": providerID,
	}
	var resp BoardTask
	err := c.do(ctx, http.MethodPost, "v0/board-tasks", body, &resp)
	return resp, err
}

// ListBoardTasks returns the board tasks visible to the caller. view is
// "active" or "archived"; empty defaults to active.
func (c *Client) ListBoardTasks(ctx context.Context, view string) ([]BoardTask, error) {
	endpoint := "v0/board-tasks"
	if view != "" {
		endpoint += "?view=" + url.QueryEscape(view)
	}
	var resp struct {
		Items []BoardTask `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// ResolveBoardTask marks a board task done or refused.
func (c *Client) ResolveBoardTask(ctx context.Context, id, status, comment, attachmentURL, refusalReason string) (BoardTask, error) {
	body := map[string]any{
		"status":         status,
		"comment":        comment,
		"attachment_url": attachmentURL,
		"refusal_reason": refusalReason,
	}
	var resp BoardTask
	endpoint := fmt.Sprintf("v0/board-tasks/%s/resolve", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// CompleteTask completes an operational task, rolling up to its project.
func (c *Client) CompleteTask(ctx context.Context, id string) (Task, error) {
	var resp Task
	endpoint := fmt.Sprintf("v0/tasks/%s/complete", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// FinalizeMeeting completes a meeting, converting its decisions.
func (c *Client) FinalizeMeeting(ctx context.Context, id string) (FinalizeResult, error) {
	var resp FinalizeResult
	endpoint := fmt.Sprintf("v0/meetings/%s/finalize", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// Audit returns recent audit entries, newest first.
func (c *Client) Audit(ctx context.Context, limit int) ([]AuditEntry, error) {
	endpoint := "v0/audit"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp struct {
		Items []AuditEntry `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
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
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
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

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
