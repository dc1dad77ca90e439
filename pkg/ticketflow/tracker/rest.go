package tracker

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

// RESTClient creates issues through a generic JSON-over-HTTP endpoint.
type RESTClient struct {
	baseURL    string
	token      string
	project    string
	httpClient *http.Client
}

// RESTOption configures the client.
type RESTOption func(*RESTClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) RESTOption {
	return func(c *RESTClient) { c.httpClient = httpClient }
}

// WithToken sets the bearer token for authentication.
func WithToken(token string) RESTOption {
	return func(c *RESTClient) { c.token = token }
}

// WithProject sets the project key included with every create.
func WithProject(project string) RESTOption {
	return func(c *RESTClient) { c.project = project }
}

// NewRESTClient creates a tracker client for the given base URL.
func NewRESTClient(baseURL string, opts ...RESTOption) *RESTClient {
	c := &RESTClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// createRequest is the wire payload for issue creation.
type createRequest struct {
	Project string `json:"project,omitempty"`
	Issue   Issue  `json:"issue"`
}

// createResponse is the wire payload of a successful creation.
type createResponse struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// CreateIssue implements Client.
func (c *RESTClient) CreateIssue(ctx context.Context, issue Issue) (Created, error) {
	if issue.Title == "" {
		return Created{}, ErrMissingTitle
	}

	body, err := json.Marshal(createRequest{Project: c.project, Issue: issue})
	if err != nil {
		return Created{}, fmt.Errorf("marshal issue: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/issues", bytes.NewReader(body))
	if err != nil {
		return Created{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Created{}, fmt.Errorf("create issue: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Created{}, fmt.Errorf("create issue: status %d: %s", resp.StatusCode, snippet)
	}

	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Created{}, fmt.Errorf("decode response: %w", err)
	}
	return Created{Key: out.Key, URL: out.URL}, nil
}
