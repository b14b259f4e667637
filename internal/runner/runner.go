// Package runner executes requests and suites described by a configuration
// file, using the fluent builder of the http package.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wesleyorama2/fetch/http"
	"github.com/wesleyorama2/fetch/internal/config"
	"github.com/wesleyorama2/fetch/pkg/jsonpath"
)

// RequestIDHeader is stamped on every request that does not set it already.
const RequestIDHeader = "X-Request-ID"

// Exchange is one executed request of a run.
type Exchange struct {
	Name      string
	Request   *http.Outbound
	Response  *http.Response
	Extracted map[string]string
	// ExtractErr reports paths that could not be extracted; the exchange itself succeeded
	ExtractErr error
}

// Runner executes configured requests against one environment. Variables
// extracted from responses are visible to later requests of the same Runner.
// A Runner is not safe for concurrent use.
type Runner struct {
	cfg       *config.Config
	env       config.Environment
	vars      map[string]string
	transport http.Transport
	logger    zerolog.Logger
	timeout   time.Duration
	requestID func() string
	observe   func(*Exchange)
	rate      float64
}

// Option configures a Runner.
type Option func(*Runner)

// WithTransport sets the transport shared by every request.
func WithTransport(t http.Transport) Option {
	return func(r *Runner) {
		r.transport = t
	}
}

// WithLogger sets the logger for the runner and its requests.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTimeout sets the timeout of requests that do not configure their own.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithRequestID replaces the X-Request-ID generator.
func WithRequestID(gen func() string) Option {
	return func(r *Runner) {
		r.requestID = gen
	}
}

// WithObserver registers a callback invoked after every successful exchange.
func WithObserver(fn func(*Exchange)) Option {
	return func(r *Runner) {
		r.observe = fn
	}
}

// WithRate limits Repeat to perSecond executions per second. Zero or a
// negative rate runs executions back to back.
func WithRate(perSecond float64) Option {
	return func(r *Runner) {
		r.rate = perSecond
	}
}

// New creates a Runner for the named environment of cfg.
func New(cfg *config.Config, envName string, opts ...Option) (*Runner, error) {
	if err := config.ValidateEnvironment(cfg, envName); err != nil {
		return nil, err
	}

	env := cfg.Environments[envName]
	r := &Runner{
		cfg:       cfg,
		env:       env,
		vars:      config.MergeEnvironments(env.Vars),
		transport: http.DefaultTransport(),
		logger:    zerolog.Nop(),
		timeout:   http.DefaultTimeout,
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Vars returns a copy of the current variables.
func (r *Runner) Vars() map[string]string {
	return config.MergeEnvironments(r.vars)
}

// SetVars adds variables. Values may reference existing variables.
func (r *Runner) SetVars(vars map[string]string) {
	for key, value := range vars {
		r.vars[key] = config.ProcessEnvironment(value, r.vars)
	}
}

// Builder creates a configured, unexecuted builder for the named request.
func (r *Runner) Builder(name string) (*http.RequestBuilder, error) {
	if err := config.ValidateRequest(r.cfg, name); err != nil {
		return nil, err
	}
	req := r.cfg.Requests[name]

	method, err := http.ParseMethod(req.Method)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", name, err)
	}

	client := http.NewClient(
		http.WithBaseURL(config.ProcessEnvironment(r.env.BaseURL, r.vars)),
		http.WithTimeout(r.timeout),
		http.WithTransport(r.transport),
		http.WithLogger(r.logger),
	)

	b := client.Request(method, config.ProcessEnvironment(req.URL, r.vars)).
		WithHeaders(config.ProcessEnvironmentInMap(r.env.Headers, r.vars)).
		WithHeaders(config.ProcessEnvironmentInMap(req.Headers, r.vars))

	if !hasHeader(r.env.Headers, RequestIDHeader) && !hasHeader(req.Headers, RequestIDHeader) {
		b.WithHeader(RequestIDHeader, r.requestID())
	}

	switch body := req.Body.(type) {
	case nil:
	case string:
		b.WithBody(config.ProcessEnvironment(body, r.vars))
	default:
		b.WithJSONBody(config.ProcessEnvironmentInValue(body, r.vars))
	}

	for _, attr := range req.Form {
		b.WithFormAttribute(attr.Name, config.ProcessEnvironment(attr.Value, r.vars))
	}

	if auth := req.Auth; auth != nil {
		if auth.Basic != nil {
			b.WithBasicAuthentication(
				config.ProcessEnvironment(auth.Basic.Username, r.vars),
				config.ProcessEnvironment(auth.Basic.Password, r.vars),
			)
		} else {
			b.WithBearerToken(config.ProcessEnvironment(auth.Bearer, r.vars))
		}
	}

	if req.Timeout != "" {
		timeout, err := config.ParseDuration(req.Timeout)
		if err != nil {
			return nil, fmt.Errorf("request %s: invalid timeout: %w", name, err)
		}
		b.WithTimeout(timeout)
	}

	if req.HTTPVersion == "1.1" {
		b.WithHTTPVersion1_1()
	}
	if req.FollowRedirects != nil && !*req.FollowRedirects {
		b.DisableRedirects()
	}
	if req.Proxy != nil {
		b.WithProxy(config.ProcessEnvironment(req.Proxy.Host, r.vars), req.Proxy.Port)
	}

	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("request %s: %w", name, err)
	}
	return b, nil
}

// hasHeader reports whether headers sets name, compared case-insensitively.
func hasHeader(headers map[string]string, name string) bool {
	for key := range headers {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

// Execute runs the named request and stores its extracted variables.
func (r *Runner) Execute(ctx context.Context, name string) (*Exchange, error) {
	b, err := r.Builder(name)
	if err != nil {
		return nil, err
	}

	out, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", name, err)
	}

	resp, err := b.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", name, err)
	}

	exchange := &Exchange{Name: name, Request: out, Response: resp}

	if paths := r.cfg.Requests[name].Extract; len(paths) > 0 {
		exchange.Extracted, exchange.ExtractErr = jsonpath.ExtractMultiple(resp.Body(), paths)
		if exchange.ExtractErr != nil {
			r.logger.Warn().Err(exchange.ExtractErr).Str("request", name).Msg("variable extraction incomplete")
		}
		for key, value := range exchange.Extracted {
			r.vars[key] = value
			r.logger.Debug().Str("request", name).Str("variable", key).Str("value", value).Msg("extracted variable")
		}
	}

	if r.observe != nil {
		r.observe(exchange)
	}
	return exchange, nil
}
