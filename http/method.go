package http

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP request method supported by the builder.
type Method int

const (
	MethodGet Method = iota
	MethodPost
	MethodPut
	MethodDelete
	MethodHead
	MethodPatch
	MethodOptions
)

// Methods lists every supported method in declaration order.
var Methods = []Method{
	MethodGet,
	MethodPost,
	MethodPut,
	MethodDelete,
	MethodHead,
	MethodPatch,
	MethodOptions,
}

// String returns the method token as sent on the wire.
func (m Method) String() string {
	switch m {
	case MethodGet:
		return http.MethodGet
	case MethodPost:
		return http.MethodPost
	case MethodPut:
		return http.MethodPut
	case MethodDelete:
		return http.MethodDelete
	case MethodHead:
		return http.MethodHead
	case MethodPatch:
		return http.MethodPatch
	case MethodOptions:
		return http.MethodOptions
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid reports whether m is one of the declared methods.
func (m Method) Valid() bool {
	return m >= MethodGet && m <= MethodOptions
}

// sendsForm reports whether form attributes replace the body for this method.
// Only POST and PUT carry form payloads; the other methods keep their body.
func (m Method) sendsForm() bool {
	switch m {
	case MethodPost, MethodPut:
		return true
	case MethodGet, MethodDelete, MethodHead, MethodPatch, MethodOptions:
		return false
	}
	return false
}

// ParseMethod converts a method token (case-insensitive) into a Method.
func ParseMethod(s string) (Method, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	for _, m := range Methods {
		if m.String() == token {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unsupported method %q", ErrInvalidArgument, s)
}
