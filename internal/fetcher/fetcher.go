package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"notification_feed/internal/models"
)

// StatusError is a non-2xx answer from the notification API.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// Client talks to the notification REST API.
type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
}

// NewClient returns a Client for baseURL. pageSize < 1 lets the server pick.
func NewClient(baseURL string, pageSize int, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
		http:     &http.Client{Timeout: timeout},
	}
}

// FetchPage loads the page that starts at cursor; "" is the first page.
func (c *Client) FetchPage(ctx context.Context, cursor string) (models.Page, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if c.pageSize > 0 {
		q.Set("size", strconv.Itoa(c.pageSize))
	}
	u := c.baseURL + "/notification"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Page{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Page{}, &StatusError{Method: req.Method, URL: u, Code: resp.StatusCode}
	}

	var page models.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return models.Page{}, fmt.Errorf("decode page: %w", err)
	}
	page.Cursor = cursor
	return page, nil
}

// DeleteNotification removes one notification on the server.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	u := c.baseURL + "/notification/" + strconv.FormatInt(id, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: req.Method, URL: u, Code: resp.StatusCode}
	}
	return nil
}
