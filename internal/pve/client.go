package pve

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// apiPrefix is appended to the configured base URL.
	apiPrefix = "/api2/json"

	// defaultTimeout bounds a single HTTP round trip.
	defaultTimeout = 30 * time.Second

	// maxBodySize caps how much of a reply is read.
	maxBodySize = 4 << 20
)

// RequestObserver receives one callback per completed HTTP round trip.
// Status is 0 when the request failed before a response arrived.
type RequestObserver interface {
	ObserveRequest(route, method string, status int, elapsed time.Duration)
}

// Client talks to a single Proxmox VE API endpoint.
type Client struct {
	baseURL  string
	http     *http.Client
	insecure bool
	timeout  time.Duration
	observer RequestObserver
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. TLS and timeout options
// are ignored when a client is supplied.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithInsecureTLS disables certificate verification, which is needed for the
// self-signed certificates Proxmox installs by default.
func WithInsecureTLS(insecure bool) Option {
	return func(c *Client) {
		c.insecure = insecure
	}
}

// WithTimeout sets the per-request timeout. Zero disables it; negative
// values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithObserver registers a RequestObserver, typically a metrics recorder.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New creates a Client for the API at rawURL (e.g. "https://pve:8006").
// A trailing slash or an explicit /api2/json suffix is accepted.
func New(rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: missing host", rawURL)
	}

	base := strings.TrimRight(u.String(), "/")
	base = strings.TrimSuffix(base, apiPrefix)

	c := &Client{
		baseURL: base + apiPrefix,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed PVE certificates
		}
		c.http = &http.Client{
			Transport: transport,
			Timeout:   c.timeout,
		}
	}

	return c, nil
}

// BaseURL returns the API root all request paths are relative to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges a username and password for a Session.
// The username must include the realm (e.g. "root@pam").
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	payload := map[string]string{
		"username": username,
		"password": password,
	}

	resp, err := c.do(ctx, nil, "login", http.MethodPost, "/access/ticket", payload)
	if err != nil {
		return nil, err
	}
	if err := resp.checkStatus(http.MethodPost); err != nil {
		return nil, fmt.Errorf("authentication failed for %s: %w", username, err)
	}

	var data ticketData
	if err := resp.decodeData(&data); err != nil {
		return nil, err
	}
	if data.Ticket == "" || data.CSRFToken == "" {
		return nil, fmt.Errorf("authentication failed for %s: reply carried no ticket", username)
	}

	name := data.Username
	if name == "" {
		name = username
	}
	return NewSession(name, data.Ticket, data.CSRFToken), nil
}

// Version returns the API server version. It doubles as a connectivity and
// credential check.
func (c *Client) Version(ctx context.Context, s *Session) (*VersionInfo, error) {
	resp, err := c.do(ctx, s, "version", http.MethodGet, "/version", nil)
	if err != nil {
		return nil, err
	}
	if err := resp.checkStatus(http.MethodGet); err != nil {
		return nil, err
	}

	var info VersionInfo
	if err := resp.decodeData(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// response is a fully read HTTP reply.
type response struct {
	path       string
	statusCode int
	body       []byte
}

func (r *response) ok() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

func (r *response) checkStatus(method string) error {
	if r.ok() {
		return nil
	}
	return &StatusError{
		Method:     method,
		Path:       r.path,
		StatusCode: r.statusCode,
		Body:       strings.TrimSpace(string(r.body)),
	}
}

// decodeData unmarshals the "data" member of the reply into v.
func (r *response) decodeData(v any) error {
	var env envelope
	if err := json.Unmarshal(r.body, &env); err != nil {
		return &DecodeError{Path: r.path, Body: string(r.body), Err: err}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &DecodeError{Path: r.path, Body: string(r.body), Err: fmt.Errorf("missing data")}
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return &DecodeError{Path: r.path, Body: string(r.body), Err: err}
	}
	return nil
}

// do sends one request. Route is a low-cardinality label for observers.
func (c *Client) do(ctx context.Context, s *Session, route, method, path string, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s != nil {
		s.authorize(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(route, method, 0, time.Since(start))
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.observe(route, method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	return &response{path: path, statusCode: resp.StatusCode, body: data}, nil
}

func (c *Client) observe(route, method string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(route, method, status, elapsed)
	}
}
