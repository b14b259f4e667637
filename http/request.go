package http

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	// ContentTypeForm is the content type of encoded form attributes
	ContentTypeForm = "application/x-www-form-urlencoded"
	// ContentTypeJSON is the content type set by WithJSONBody
	ContentTypeJSON = "application/json"
)

// RequestBuilder accumulates the configuration of a single request and
// executes it once. A builder is owned by one goroutine; it is not safe for
// concurrent configuration.
//
// Configuration methods never panic. The first invalid argument is recorded
// and returned by Err, Build and Execute; later configuration calls on a
// failed builder are ignored.
type RequestBuilder struct {
	method          Method
	url             string
	headers         http.Header
	form            Form
	body            []byte
	timeout         time.Duration
	connectTimeout  time.Duration
	version         HTTPVersion
	followRedirects bool
	proxy           string

	transport  Transport
	serializer Serializer
	logger     zerolog.Logger

	err      error
	executed bool
}

// NewRequest creates a builder for the given method with default settings:
// empty body, HTTP/2 preference, 5 second request and connect timeouts and
// redirects followed.
//
// Example:
//
//	resp, err := http.NewRequest(http.MethodGet).
//	    To("https://api.example.com/users").
//	    WithHeader("Accept", "application/json").
//	    Execute(ctx)
func NewRequest(method Method) *RequestBuilder {
	b := &RequestBuilder{
		method:          method,
		headers:         make(http.Header),
		timeout:         DefaultTimeout,
		connectTimeout:  DefaultConnectTimeout,
		version:         HTTP2,
		followRedirects: true,
		serializer:      JSONSerializer{},
		logger:          zerolog.Nop(),
	}
	if !method.Valid() {
		b.fail("NewRequest", KindInvalidArgument, fmt.Errorf("%w: unknown method %s", ErrInvalidArgument, method))
	}
	return b
}

// Get creates a GET request builder.
func Get() *RequestBuilder { return NewRequest(MethodGet) }

// Post creates a POST request builder.
func Post() *RequestBuilder { return NewRequest(MethodPost) }

// Put creates a PUT request builder.
func Put() *RequestBuilder { return NewRequest(MethodPut) }

// Delete creates a DELETE request builder.
func Delete() *RequestBuilder { return NewRequest(MethodDelete) }

// Head creates a HEAD request builder.
func Head() *RequestBuilder { return NewRequest(MethodHead) }

// Patch creates a PATCH request builder.
func Patch() *RequestBuilder { return NewRequest(MethodPatch) }

// Options creates an OPTIONS request builder.
func Options() *RequestBuilder { return NewRequest(MethodOptions) }

// Method returns the request method.
func (b *RequestBuilder) Method() Method {
	return b.method
}

// Err returns the first configuration error recorded on the builder.
func (b *RequestBuilder) Err() error {
	return b.err
}

// configurable reports whether a configuration call may modify the builder.
func (b *RequestBuilder) configurable(op string) bool {
	if b.err != nil {
		return false
	}
	if b.executed {
		b.fail(op, KindConfiguration, ErrAlreadyExecuted)
		return false
	}
	return true
}

func (b *RequestBuilder) fail(op string, kind ErrorKind, err error) {
	if b.err != nil {
		return
	}
	b.err = &RequestError{
		Op:     op,
		Method: b.method,
		URL:    b.url,
		Kind:   kind,
		Err:    err,
	}
}

func (b *RequestBuilder) invalid(op, format string, args ...interface{}) {
	b.fail(op, KindInvalidArgument, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidArgument}, args...)...))
}

// To sets the target URL. The URL must be absolute.
func (b *RequestBuilder) To(rawURL string) *RequestBuilder {
	if !b.configurable("To") {
		return b
	}
	if rawURL == "" {
		b.invalid("To", "url can not be empty")
		return b
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		b.fail("To", KindInvalidArgument, fmt.Errorf("%w: %w", ErrInvalidArgument, err))
		return b
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		b.invalid("To", "url %q must include a scheme and host", rawURL)
		return b
	}

	b.url = parsed.String()
	return b
}

// DisableRedirects stops the transport from following redirects; the
// redirect response itself is returned.
func (b *RequestBuilder) DisableRedirects() *RequestBuilder {
	if !b.configurable("DisableRedirects") {
		return b
	}
	b.followRedirects = false
	return b
}

// WithFormAttribute adds a form attribute and sets the form Content-Type.
// For POST and PUT requests the encoded attributes replace any body at
// execution time; other methods send their body unchanged.
func (b *RequestBuilder) WithFormAttribute(name, value string) *RequestBuilder {
	if !b.configurable("WithFormAttribute") {
		return b
	}
	if name == "" {
		b.invalid("WithFormAttribute", "name can not be empty")
		return b
	}

	b.form.Set(name, value)
	b.headers.Set("Content-Type", ContentTypeForm)
	return b
}

// WithBody sets a text body.
func (b *RequestBuilder) WithBody(body string) *RequestBuilder {
	if !b.configurable("WithBody") {
		return b
	}
	b.body = []byte(body)
	return b
}

// WithHeader sets a header, replacing any previous value for the name.
func (b *RequestBuilder) WithHeader(name, value string) *RequestBuilder {
	if !b.configurable("WithHeader") {
		return b
	}
	if name == "" {
		b.invalid("WithHeader", "name can not be empty")
		return b
	}
	b.headers.Set(name, value)
	return b
}

// WithHeaders sets several headers at once.
func (b *RequestBuilder) WithHeaders(headers map[string]string) *RequestBuilder {
	for name, value := range headers {
		b.WithHeader(name, value)
	}
	return b
}

// WithBasicAuthentication sets an Authorization header using the Basic scheme.
func (b *RequestBuilder) WithBasicAuthentication(username, password string) *RequestBuilder {
	if !b.configurable("WithBasicAuthentication") {
		return b
	}
	if username == "" {
		b.invalid("WithBasicAuthentication", "username can not be empty")
		return b
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	b.headers.Set("Authorization", "Basic "+encoded)
	return b
}

// WithBearerToken sets an Authorization header using the Bearer scheme.
func (b *RequestBuilder) WithBearerToken(token string) *RequestBuilder {
	if !b.configurable("WithBearerToken") {
		return b
	}
	if token == "" {
		b.invalid("WithBearerToken", "token can not be empty")
		return b
	}
	b.headers.Set("Authorization", "Bearer "+token)
	return b
}

// WithTimeout sets both the request timeout and the connect timeout.
func (b *RequestBuilder) WithTimeout(d time.Duration) *RequestBuilder {
	if !b.configurable("WithTimeout") {
		return b
	}
	if d <= 0 {
		b.invalid("WithTimeout", "timeout must be positive, got %s", d)
		return b
	}
	b.timeout = d
	b.connectTimeout = d
	return b
}

// WithConnectTimeout sets only the connect timeout.
func (b *RequestBuilder) WithConnectTimeout(d time.Duration) *RequestBuilder {
	if !b.configurable("WithConnectTimeout") {
		return b
	}
	if d <= 0 {
		b.invalid("WithConnectTimeout", "timeout must be positive, got %s", d)
		return b
	}
	b.connectTimeout = d
	return b
}

// WithHTTPVersion1_1 restricts the request to HTTP/1.1.
func (b *RequestBuilder) WithHTTPVersion1_1() *RequestBuilder {
	if !b.configurable("WithHTTPVersion1_1") {
		return b
	}
	b.version = HTTP11
	return b
}

// WithProxy routes the request through an HTTP proxy at host:port.
func (b *RequestBuilder) WithProxy(host string, port int) *RequestBuilder {
	if !b.configurable("WithProxy") {
		return b
	}
	if host == "" {
		b.invalid("WithProxy", "host can not be empty")
		return b
	}
	if port < 1 || port > 65535 {
		b.invalid("WithProxy", "port %d out of range", port)
		return b
	}
	b.proxy = net.JoinHostPort(host, strconv.Itoa(port))
	return b
}

// WithJSONBody serializes v as the request body and sets the JSON
// Content-Type. A serialization failure is recorded as ErrSerialization.
func (b *RequestBuilder) WithJSONBody(v interface{}) *RequestBuilder {
	if !b.configurable("WithJSONBody") {
		return b
	}
	if v == nil {
		b.invalid("WithJSONBody", "object can not be nil")
		return b
	}

	data, err := b.serializer.Marshal(v)
	if err != nil {
		b.fail("WithJSONBody", KindSerialization, fmt.Errorf("%w: %w", ErrSerialization, err))
		return b
	}

	b.body = data
	b.headers.Set("Content-Type", ContentTypeJSON)
	return b
}

// WithTransport replaces the transport used by Execute.
func (b *RequestBuilder) WithTransport(t Transport) *RequestBuilder {
	if !b.configurable("WithTransport") {
		return b
	}
	if t == nil {
		b.invalid("WithTransport", "transport can not be nil")
		return b
	}
	b.transport = t
	return b
}

// WithSerializer replaces the serializer used by WithJSONBody and passed on
// to the Response.
func (b *RequestBuilder) WithSerializer(s Serializer) *RequestBuilder {
	if !b.configurable("WithSerializer") {
		return b
	}
	if s == nil {
		b.invalid("WithSerializer", "serializer can not be nil")
		return b
	}
	b.serializer = s
	return b
}

// WithLogger sets the logger that receives debug events for this request.
func (b *RequestBuilder) WithLogger(logger zerolog.Logger) *RequestBuilder {
	if !b.configurable("WithLogger") {
		return b
	}
	b.logger = logger
	return b
}

// Build validates the configuration and returns the request that Execute
// would send. Form attributes replace the body for POST and PUT.
func (b *RequestBuilder) Build() (*Outbound, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.url == "" {
		return nil, &RequestError{Op: "Build", Method: b.method, Kind: KindConfiguration, Err: ErrMissingURL}
	}

	out := &Outbound{
		Method:          b.method,
		URL:             b.url,
		Header:          b.headers.Clone(),
		Timeout:         b.timeout,
		ConnectTimeout:  b.connectTimeout,
		Version:         b.version,
		FollowRedirects: b.followRedirects,
		Proxy:           b.proxy,
	}

	if b.form.Len() > 0 && b.method.sendsForm() {
		out.Body = []byte(EncodeForm(&b.form))
		out.Header.Set("Content-Type", ContentTypeForm)
	} else if len(b.body) > 0 {
		out.Body = append([]byte(nil), b.body...)
	}

	return out, nil
}

// Execute sends the request and blocks until the response has been read or
// the timeout elapses. A builder can be executed only once.
func (b *RequestBuilder) Execute(ctx context.Context) (*Response, error) {
	if b.executed {
		return nil, &RequestError{Op: "Execute", Method: b.method, URL: b.url, Kind: KindConfiguration, Err: ErrAlreadyExecuted}
	}

	out, err := b.Build()
	if err != nil {
		return nil, err
	}
	b.executed = true

	transport := b.transport
	if transport == nil {
		transport = DefaultTransport()
	}

	b.logger.Debug().
		Str("method", out.Method.String()).
		Str("url", out.URL).
		Str("http_version", out.Version.String()).
		Str("proxy", out.Proxy).
		Bool("follow_redirects", out.FollowRedirects).
		Int("body_bytes", len(out.Body)).
		Msg("executing request")

	start := time.Now()
	raw, err := transport.Send(ctx, out)
	if err != nil {
		kind := classifyTransportError(err)
		b.logger.Debug().Err(err).Str("kind", string(kind)).Dur("elapsed", time.Since(start)).Msg("request failed")
		return nil, &RequestError{Op: "Execute", Method: out.Method, URL: out.URL, Kind: kind, Err: err}
	}

	b.logger.Debug().
		Int("status", raw.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	return newResponse(raw, b.serializer), nil
}

// classifyTransportError separates deadline expiry from other I/O failures.
func classifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindExecution
}
