// Package client talks to a running tracker over its HTTP interface.
//
// Request bodies are rendered and response bodies parsed with the value
// package, so the client accepts exactly what the server produces.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dreamware/loctrack/internal/tracker"
	"github.com/dreamware/loctrack/internal/value"
)

// ErrNoLocation is returned by Current before any report was recorded.
var ErrNoLocation = errors.New("client: no location data available")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %s %s: %d %s", e.Method, e.URL, e.Code, strings.TrimSpace(e.Body))
}

// Update is a location submission. The server assigns the timestamp.
type Update struct {
	Latitude   float64
	Longitude  float64
	Accuracy   *float64 // optional
	DeviceName string   // empty lets the server apply its default
}

func (u Update) render() string {
	m := map[string]value.Value{
		"latitude":  value.Number(u.Latitude),
		"longitude": value.Number(u.Longitude),
	}
	if u.Accuracy != nil {
		m["accuracy"] = value.Number(*u.Accuracy)
	}
	if u.DeviceName != "" {
		m["device_name"] = value.Text(u.DeviceName)
	}
	return value.Render(value.Mapping(m))
}

// Client is a tracker API client. It is safe for concurrent use.
type Client struct {
	base string
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 5s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the tracker at baseURL, e.g.
// "http://127.0.0.1:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current fetches the latest report.
func (c *Client) Current(ctx context.Context) (tracker.Report, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/location", "")
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return tracker.Report{}, ErrNoLocation
	}
	if err != nil {
		return tracker.Report{}, err
	}

	v, err := value.Parse(body)
	if err != nil {
		return tracker.Report{}, fmt.Errorf("decode location: %w", err)
	}
	r, ok := tracker.ReportFromValue(v)
	if !ok {
		return tracker.Report{}, fmt.Errorf("decode location: unexpected shape %s", body)
	}
	return r, nil
}

// Update submits a location report.
func (c *Client) Update(ctx context.Context, u Update) error {
	_, err := c.do(ctx, http.MethodPost, "/api/location", u.render())
	return err
}

// History fetches the stored reports, oldest first.
func (c *Client) History(ctx context.Context) ([]tracker.Report, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/history", "")
	if err != nil {
		return nil, err
	}
	return tracker.DecodeHistory([]byte(body))
}

// Clear empties the server's history.
func (c *Client) Clear(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/history/clear", "")
	return err
}

func (c *Client) do(ctx context.Context, method, path, body string) (string, error) {
	url := c.base + path

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return "", err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s %s: %w", method, url, err)
	}
	if resp.StatusCode >= 300 {
		return "", &StatusError{Method: method, URL: url, Code: resp.StatusCode, Body: string(raw)}
	}
	return string(raw), nil
}
