package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/wesleyorama2/fetch/pkg/jsonpath"
	"github.com/wesleyorama2/fetch/pkg/jsonschema"
)

// Response is a read-only view of a completed exchange.
type Response struct {
	statusCode int
	status     string
	proto      string
	headers    http.Header
	body       []byte
	timing     TimingInfo
	serializer Serializer
}

// NewResponse wraps a raw transport result. A nil serializer selects
// JSONSerializer.
func NewResponse(raw *RawResponse, serializer Serializer) *Response {
	return newResponse(raw, serializer)
}

func newResponse(raw *RawResponse, serializer Serializer) *Response {
	if serializer == nil {
		serializer = JSONSerializer{}
	}

	// Injected transports may report non-canonical keys
	headers := make(http.Header, len(raw.Header))
	for name, values := range raw.Header {
		for _, value := range values {
			headers.Add(name, value)
		}
	}

	status := raw.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", raw.StatusCode, http.StatusText(raw.StatusCode))
	}

	return &Response{
		statusCode: raw.StatusCode,
		status:     status,
		proto:      raw.Proto,
		headers:    headers,
		body:       append([]byte(nil), raw.Body...),
		timing:     raw.Timing,
		serializer: serializer,
	}
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int {
	return r.statusCode
}

// Status returns the status line text, e.g. "200 OK".
func (r *Response) Status() string {
	return r.status
}

// Proto returns the protocol of the response, e.g. "HTTP/2.0".
func (r *Response) Proto() string {
	return r.proto
}

// IsSuccessful returns true if the status code is in the 2xx range.
func (r *Response) IsSuccessful() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

// IsOK returns true if the status code is exactly 200.
func (r *Response) IsOK() bool {
	return r.statusCode == http.StatusOK
}

// IsRedirect returns true if the status code is in the 3xx range.
func (r *Response) IsRedirect() bool {
	return r.statusCode >= 300 && r.statusCode < 400
}

// IsClientError returns true if the status code is in the 4xx range.
func (r *Response) IsClientError() bool {
	return r.statusCode >= 400 && r.statusCode < 500
}

// IsServerError returns true if the status code is in the 5xx range.
func (r *Response) IsServerError() bool {
	return r.statusCode >= 500 && r.statusCode < 600
}

// Header returns the first value of the named header. The lookup is
// case-insensitive. ok is false when the header is absent.
func (r *Response) Header(name string) (value string, ok bool) {
	values := r.headers.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Headers returns a copy of all response headers.
func (r *Response) Headers() http.Header {
	return r.headers.Clone()
}

// Body returns the response body as text.
func (r *Response) Body() string {
	return string(r.body)
}

// BodyBytes returns a copy of the raw response body.
func (r *Response) BodyBytes() []byte {
	return append([]byte(nil), r.body...)
}

// BodyAsJSON decodes the body into v. Malformed JSON or a shape mismatch is
// reported as ErrSerialization.
func (r *Response) BodyAsJSON(v interface{}) error {
	if err := r.serializer.Unmarshal(r.body, v); err != nil {
		return &RequestError{Op: "BodyAsJSON", Kind: KindSerialization, Err: fmt.Errorf("%w: %w", ErrSerialization, err)}
	}
	return nil
}

// Extract returns the value at a JSONPath expression such as "$.users[0].id".
func (r *Response) Extract(path string) (string, error) {
	return jsonpath.Extract(string(r.body), path)
}

// ValidateSchema validates the body against a JSON Schema document. The
// returned error lists every violation.
func (r *Response) ValidateSchema(schema string) error {
	valid, errs := jsonschema.ValidateWithErrors(string(r.body), schema)
	if !valid {
		return errs
	}
	return nil
}

// Timing returns the phase durations recorded by the transport.
func (r *Response) Timing() TimingInfo {
	return r.timing
}

// Duration returns the total time of the exchange.
func (r *Response) Duration() time.Duration {
	return r.timing.Total
}
