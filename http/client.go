package http

import (
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client holds defaults shared by many requests: a base URL, default
// headers, a timeout, a transport, a serializer and a logger. Builders
// created from a Client start from these defaults and remain single-use.
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL    string
	headers    map[string]string
	timeout    time.Duration
	transport  Transport
	serializer Serializer
	logger     zerolog.Logger
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// NewClient creates a new Client with the given options.
//
// Example:
//
//	client := http.NewClient(
//	    http.WithBaseURL("https://api.example.com"),
//	    http.WithTimeout(30*time.Second),
//	    http.WithHeader("Accept", "application/json"),
//	)
//
//	resp, err := client.Get("/users").Execute(ctx)
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		headers:    make(map[string]string),
		timeout:    DefaultTimeout,
		transport:  DefaultTransport(),
		serializer: JSONSerializer{},
		logger:     zerolog.Nop(),
	}

	// Apply options
	for _, option := range options {
		option(client)
	}

	return client
}

// WithBaseURL sets the base URL that relative request paths are joined to.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the request and connect timeout of every builder. The
// timeout must be positive; otherwise every builder created by the client
// carries an ErrInvalidArgument error, reported by Err as soon as Request
// returns.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHeader adds a default header. Headers set on a builder override it.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithTransport shares a Transport between every builder of the client.
func WithTransport(transport Transport) ClientOption {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithSerializer sets the serializer used for JSON bodies.
func WithSerializer(serializer Serializer) ClientOption {
	return func(c *Client) {
		c.serializer = serializer
	}
}

// WithLogger sets the logger passed to every builder.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Request creates a builder for method targeting path. A relative path is
// joined to the base URL; an absolute URL is used as is.
func (c *Client) Request(method Method, path string) *RequestBuilder {
	b := NewRequest(method).
		WithTransport(c.transport).
		WithSerializer(c.serializer).
		WithLogger(c.logger).
		WithTimeout(c.timeout).
		WithHeaders(c.headers)

	return b.To(c.resolve(path))
}

// Get is a convenience method for GET builders.
func (c *Client) Get(path string) *RequestBuilder {
	return c.Request(MethodGet, path)
}

// Post is a convenience method for POST builders.
func (c *Client) Post(path string) *RequestBuilder {
	return c.Request(MethodPost, path)
}

// Put is a convenience method for PUT builders.
func (c *Client) Put(path string) *RequestBuilder {
	return c.Request(MethodPut, path)
}

// Delete is a convenience method for DELETE builders.
func (c *Client) Delete(path string) *RequestBuilder {
	return c.Request(MethodDelete, path)
}

// Patch is a convenience method for PATCH builders.
func (c *Client) Patch(path string) *RequestBuilder {
	return c.Request(MethodPatch, path)
}

// Head is a convenience method for HEAD builders.
func (c *Client) Head(path string) *RequestBuilder {
	return c.Request(MethodHead, path)
}

// Options is a convenience method for OPTIONS builders.
func (c *Client) Options(path string) *RequestBuilder {
	return c.Request(MethodOptions, path)
}

// resolve joins a relative path to the base URL.
func (c *Client) resolve(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if c.baseURL == "" {
		return path
	}
	if path == "" {
		return c.baseURL
	}
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
