package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/http2"
)

const (
	// DefaultTimeout is the default per-request timeout
	DefaultTimeout = 5 * time.Second
	// DefaultConnectTimeout is the default time allowed to establish a connection
	DefaultConnectTimeout = 5 * time.Second
	// DefaultMaxIdleConns is the maximum number of idle connections per cached client
	DefaultMaxIdleConns = 100
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// HTTPVersion is the protocol preference of a request.
type HTTPVersion int

const (
	// HTTP2 attempts HTTP/2 over TLS and falls back to HTTP/1.1
	HTTP2 HTTPVersion = iota
	// HTTP11 restricts the exchange to HTTP/1.1
	HTTP11
)

func (v HTTPVersion) String() string {
	switch v {
	case HTTP2:
		return "2"
	case HTTP11:
		return "1.1"
	}
	return fmt.Sprintf("HTTPVersion(%d)", int(v))
}

// Outbound is a fully configured request, ready to be sent by a Transport.
type Outbound struct {
	Method          Method
	URL             string
	Header          http.Header
	Body            []byte
	Timeout         time.Duration
	ConnectTimeout  time.Duration
	Version         HTTPVersion
	FollowRedirects bool
	// Proxy is a host:port address, empty for a direct connection
	Proxy string
}

// RawResponse is the transport's result before it is wrapped in a Response.
type RawResponse struct {
	StatusCode int
	Status     string
	Proto      string
	Header     http.Header
	Body       []byte
	Timing     TimingInfo
}

// TimingInfo holds the phase durations of a single exchange.
type TimingInfo struct {
	DNSLookup       time.Duration
	TCPConnect      time.Duration
	TLSHandshake    time.Duration
	TimeToFirstByte time.Duration
	ContentTransfer time.Duration
	Total           time.Duration
}

// Transport performs the network exchange for an Outbound request.
// Implementations must be safe for concurrent use if shared between builders.
type Transport interface {
	Send(ctx context.Context, req *Outbound) (*RawResponse, error)
}

// clientKey identifies the client-level settings of an Outbound request.
type clientKey struct {
	connectTimeout  time.Duration
	version         HTTPVersion
	followRedirects bool
	proxy           string
}

// NetTransport is the default Transport, backed by net/http. It keeps one
// http.Client per distinct combination of connect timeout, protocol version,
// redirect policy and proxy, so connections are reused between requests that
// share those settings.
type NetTransport struct {
	mu      sync.Mutex
	clients map[clientKey]*http.Client
}

// NewNetTransport creates an empty NetTransport.
func NewNetTransport() *NetTransport {
	return &NetTransport{
		clients: make(map[clientKey]*http.Client),
	}
}

var defaultTransport = NewNetTransport()

// DefaultTransport returns the process-wide NetTransport used by builders
// that were not given a Transport.
func DefaultTransport() *NetTransport {
	return defaultTransport
}

// CloseIdleConnections closes idle connections held by every cached client.
func (t *NetTransport) CloseIdleConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, c := range t.clients {
		c.CloseIdleConnections()
	}
}

func (t *NetTransport) clientFor(req *Outbound) (*http.Client, error) {
	key := clientKey{
		connectTimeout:  req.ConnectTimeout,
		version:         req.Version,
		followRedirects: req.FollowRedirects,
		proxy:           req.Proxy,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.clients == nil {
		t.clients = make(map[clientKey]*http.Client)
	}
	if c, ok := t.clients[key]; ok {
		return c, nil
	}

	c, err := newHTTPClient(key)
	if err != nil {
		return nil, err
	}
	t.clients[key] = c
	return c, nil
}

func newHTTPClient(key clientKey) (*http.Client, error) {
	dialer := &net.Dialer{
		Timeout:   key.connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: key.connectTimeout,
		MaxIdleConns:        DefaultMaxIdleConns,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	if key.proxy != "" {
		transport.Proxy = http.ProxyURL(&url.URL{Scheme: "http", Host: key.proxy})
	}

	switch key.version {
	case HTTP2:
		if _, err := http2.ConfigureTransports(transport); err != nil {
			return nil, fmt.Errorf("configure http2 transport: %w", err)
		}
	case HTTP11:
		// A non-nil empty map disables the h2 upgrade during the TLS handshake
		transport.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
	}

	client := &http.Client{Transport: transport}
	if !key.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client, nil
}

// Send implements Transport. The whole exchange, including reading the body,
// is bounded by req.Timeout.
func (t *NetTransport) Send(ctx context.Context, req *Outbound) (*RawResponse, error) {
	client, err := t.clientFor(req)
	if err != nil {
		return nil, err
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method.String(), req.URL, body)
	if err != nil {
		return nil, err
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}

	recorder := newTimingRecorder()
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(ctx, recorder.trace()))

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	contentTransferStart := time.Now()
	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	timing := recorder.finish(contentTransferStart)

	return &RawResponse{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Proto:      httpResp.Proto,
		Header:     httpResp.Header,
		Body:       data,
		Timing:     timing,
	}, nil
}

// timingRecorder collects phase timestamps from httptrace callbacks, which
// may fire on dialer goroutines.
type timingRecorder struct {
	mu           sync.Mutex
	start        time.Time
	dnsStart     time.Time
	connectStart time.Time
	tlsStart     time.Time
	lastPhaseEnd time.Time
	timing       TimingInfo
}

func newTimingRecorder() *timingRecorder {
	now := time.Now()
	return &timingRecorder{start: now, lastPhaseEnd: now}
}

func (r *timingRecorder) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			r.mu.Lock()
			r.dnsStart = time.Now()
			r.mu.Unlock()
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			r.mu.Lock()
			now := time.Now()
			r.timing.DNSLookup = now.Sub(r.dnsStart)
			r.lastPhaseEnd = now
			r.mu.Unlock()
		},
		ConnectStart: func(network, addr string) {
			r.mu.Lock()
			if r.connectStart.IsZero() {
				r.connectStart = time.Now()
			}
			r.mu.Unlock()
		},
		ConnectDone: func(network, addr string, err error) {
			if err != nil {
				return
			}
			r.mu.Lock()
			now := time.Now()
			r.timing.TCPConnect = now.Sub(r.connectStart)
			r.lastPhaseEnd = now
			r.mu.Unlock()
		},
		TLSHandshakeStart: func() {
			r.mu.Lock()
			r.tlsStart = time.Now()
			r.mu.Unlock()
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err != nil {
				return
			}
			r.mu.Lock()
			now := time.Now()
			r.timing.TLSHandshake = now.Sub(r.tlsStart)
			r.lastPhaseEnd = now
			r.mu.Unlock()
		},
		GotFirstResponseByte: func() {
			r.mu.Lock()
			r.timing.TimeToFirstByte = time.Since(r.lastPhaseEnd)
			r.mu.Unlock()
		},
	}
}

func (r *timingRecorder) finish(contentTransferStart time.Time) TimingInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.timing.ContentTransfer = time.Since(contentTransferStart)
	r.timing.Total = time.Since(r.start)
	return r.timing
}
