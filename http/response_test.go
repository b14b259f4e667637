package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawResponse(status int, body string, headers map[string]string) *RawResponse {
	h := make(http.Header)
	for k, v := range headers {
		h.Set(k, v)
	}
	return &RawResponse{StatusCode: status, Header: h, Body: []byte(body)}
}

func TestResponse_StatusClassification(t *testing.T) {
	tests := []struct {
		code        int
		successful  bool
		ok          bool
		redirect    bool
		clientError bool
		serverError bool
	}{
		{code: 199},
		{code: 200, successful: true, ok: true},
		{code: 203, successful: true},
		{code: 299, successful: true},
		{code: 300, redirect: true},
		{code: 399, redirect: true},
		{code: 404, clientError: true},
		{code: 500, serverError: true},
		{code: 599, serverError: true},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.code), func(t *testing.T) {
			resp := NewResponse(rawResponse(tt.code, "", nil), nil)
			assert.Equal(t, tt.code, resp.StatusCode())
			assert.Equal(t, tt.successful, resp.IsSuccessful())
			assert.Equal(t, tt.ok, resp.IsOK())
			assert.Equal(t, tt.redirect, resp.IsRedirect())
			assert.Equal(t, tt.clientError, resp.IsClientError())
			assert.Equal(t, tt.serverError, resp.IsServerError())
		})
	}
}

func TestResponse_StatusText(t *testing.T) {
	resp := NewResponse(rawResponse(http.StatusNotFound, "", nil), nil)
	assert.Equal(t, "404 Not Found", resp.Status())

	raw := rawResponse(http.StatusOK, "", nil)
	raw.Status = "200 Fine"
	assert.Equal(t, "200 Fine", NewResponse(raw, nil).Status())
}

func TestResponse_Header(t *testing.T) {
	resp := NewResponse(rawResponse(http.StatusOK, "", map[string]string{
		"X-Custom-Header": "custom-value",
		"Content-Type":    "application/json",
	}), nil)

	value, ok := resp.Header("x-custom-header")
	assert.True(t, ok)
	assert.Equal(t, "custom-value", value)

	value, ok = resp.Header("X-Absent")
	assert.False(t, ok)
	assert.Empty(t, value)

	// Headers returns a copy
	headers := resp.Headers()
	headers.Set("X-Custom-Header", "changed")
	value, _ = resp.Header("X-Custom-Header")
	assert.Equal(t, "custom-value", value)
}

func TestResponse_HeaderNonCanonicalKeys(t *testing.T) {
	raw := &RawResponse{
		StatusCode: http.StatusOK,
		Header: http.Header{
			"x-custom-header": {"foo"},
			"content-TYPE":    {"text/plain"},
		},
	}
	resp := NewResponse(raw, nil)

	for _, name := range []string{"x-custom-header", "X-Custom-Header", "X-CUSTOM-HEADER"} {
		value, ok := resp.Header(name)
		assert.True(t, ok, name)
		assert.Equal(t, "foo", value, name)
	}

	value, ok := resp.Header("Content-Type")
	assert.True(t, ok)
	assert.Equal(t, "text/plain", value)
	assert.Equal(t, []string{"foo"}, resp.Headers()["X-Custom-Header"])
}

func TestResponse_HeaderEmptyValuePresent(t *testing.T) {
	raw := rawResponse(http.StatusOK, "", nil)
	raw.Header["X-Empty"] = []string{""}

	value, ok := NewResponse(raw, nil).Header("X-Empty")
	assert.True(t, ok)
	assert.Empty(t, value)
}

func TestResponse_NilHeaders(t *testing.T) {
	resp := NewResponse(&RawResponse{StatusCode: http.StatusNoContent}, nil)
	_, ok := resp.Header("Content-Type")
	assert.False(t, ok)
	assert.NotNil(t, resp.Headers())
	assert.Empty(t, resp.Body())
}

func TestResponse_Body(t *testing.T) {
	raw := rawResponse(http.StatusOK, "hello", nil)
	resp := NewResponse(raw, nil)

	// The response owns its copy of the body
	raw.Body[0] = 'j'
	assert.Equal(t, "hello", resp.Body())

	bytes := resp.BodyBytes()
	bytes[0] = 'y'
	assert.Equal(t, "hello", resp.Body())
}

func TestResponse_BodyAsJSON(t *testing.T) {
	resp := NewResponse(rawResponse(http.StatusOK, `{"name":"John","age":30}`, nil), nil)

	var person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	require.NoError(t, resp.BodyAsJSON(&person))
	assert.Equal(t, "John", person.Name)
	assert.Equal(t, 30, person.Age)
}

func TestResponse_BodyAsJSONErrors(t *testing.T) {
	tests := map[string]string{
		"malformed":      `{"name":`,
		"trailing data":  `{"name":"x"} {}`,
		"shape mismatch": `{"name":42}`,
		"empty":          ``,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			var v struct {
				Name string `json:"name"`
			}
			err := NewResponse(rawResponse(http.StatusOK, body, nil), nil).BodyAsJSON(&v)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSerialization)
		})
	}
}

func TestResponse_BodyAsJSONStrictSerializer(t *testing.T) {
	resp := NewResponse(rawResponse(http.StatusOK, `{"name":"x","extra":1}`, nil), JSONSerializer{DisallowUnknownFields: true})

	var v struct {
		Name string `json:"name"`
	}
	assert.ErrorIs(t, resp.BodyAsJSON(&v), ErrSerialization)
}

func TestResponse_Extract(t *testing.T) {
	resp := NewResponse(rawResponse(http.StatusOK, `{"users":[{"id":7,"name":"Ann"}]}`, nil), nil)

	id, err := resp.Extract("$.users[0].id")
	require.NoError(t, err)
	assert.Equal(t, "7", id)

	_, err = resp.Extract("$.users[3].id")
	assert.Error(t, err)
}

func TestResponse_ValidateSchema(t *testing.T) {
	schema := `{
		"type": "object",
		"required": ["id", "name"],
		"properties": {
			"id": {"type": "integer"},
			"name": {"type": "string"}
		}
	}`

	valid := NewResponse(rawResponse(http.StatusOK, `{"id":1,"name":"Ann"}`, nil), nil)
	assert.NoError(t, valid.ValidateSchema(schema))

	invalid := NewResponse(rawResponse(http.StatusOK, `{"id":"one"}`, nil), nil)
	err := invalid.ValidateSchema(schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}

func TestResponse_Timing(t *testing.T) {
	raw := rawResponse(http.StatusOK, "", nil)
	raw.Timing = TimingInfo{TimeToFirstByte: 10 * time.Millisecond, Total: 25 * time.Millisecond}

	resp := NewResponse(raw, nil)
	assert.Equal(t, 25*time.Millisecond, resp.Duration())
	assert.Equal(t, 10*time.Millisecond, resp.Timing().TimeToFirstByte)
}

func TestResponse_StatusCodeFromServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
	}))
	defer server.Close()

	resp, err := Get().To(server.URL).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 203, resp.StatusCode())
	assert.True(t, resp.IsSuccessful())
	assert.False(t, resp.IsOK())
}

func TestResponse_HeaderFromServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-custom-header", "foo")
	}))
	defer server.Close()

	resp, err := Get().To(server.URL).Execute(context.Background())
	require.NoError(t, err)

	value, ok := resp.Header("x-custom-header")
	assert.True(t, ok)
	assert.Equal(t, "foo", value)

	value, ok = resp.Header("x-absent-header")
	assert.False(t, ok)
	assert.Empty(t, value)
}
