// Package client talks to a running vigor server.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/lazypower/vigor/internal/energy"
	"github.com/lazypower/vigor/internal/engine"
)

const (
	DefaultServerURL = "http://127.0.0.1:37778"
	httpTimeout      = 5 * time.Second
)

// Client talks to the vigor server.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. An empty URL means VIGOR_URL, falling
// back to DefaultServerURL.
func New(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv("VIGOR_URL")
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: serverURL,
	}
}

// URL is the server base URL.
func (c *Client) URL() string { return c.serverURL }

// Post sends a POST request with JSON body. Returns response body.
func (c *Client) Post(path string, body []byte) ([]byte, error) {
	resp, err := c.http.Post(c.serverURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return data, &StatusError{Method: "POST", Path: path, Code: resp.StatusCode, Body: data}
	}
	return data, nil
}

// Get sends a GET request. Returns response body.
func (c *Client) Get(path string) ([]byte, error) {
	resp, err := c.http.Get(c.serverURL + path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return data, &StatusError{Method: "GET", Path: path, Code: resp.StatusCode, Body: data}
	}
	return data, nil
}

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, bytes.TrimSpace(e.Body))
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy() bool {
	resp, err := c.http.Get(c.serverURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Health is the server's /api/health payload.
type Health struct {
	Status  string       `json:"status"`
	Version string       `json:"version"`
	Uptime  float64      `json:"uptime"`
	DB      bool         `json:"db"`
	DBPath  string       `json:"db_path"`
	Engine  string       `json:"engine"`
	Stats   engine.Stats `json:"stats"`
}

func (c *Client) Health() (Health, error) {
	var h Health
	data, err := c.Get("/api/health")
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("decode health: %w", err)
	}
	return h, nil
}

// Evaluation is the result of a synchronous evaluation.
type Evaluation struct {
	Snapshot energy.Snapshot `json:"snapshot"`
	Events   []energy.Event  `json:"events"`
}

// Evaluate asks the server to evaluate. With wait it blocks for the result;
// otherwise it returns once the request is accepted, with a nil Evaluation.
func (c *Client) Evaluate(wait bool) (*Evaluation, error) {
	path := "/api/evaluate"
	if wait {
		path += "?wait=true"
	}
	data, err := c.Post(path, nil)
	if err != nil {
		return nil, err
	}
	if !wait {
		return nil, nil
	}
	var ev Evaluation
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}
	return &ev, nil
}

// LogActivity posts one activity entry and returns the raw day record.
func (c *Client) LogActivity(kind string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode activity: %w", err)
	}
	return c.Post("/api/activity/"+kind, payload)
}
