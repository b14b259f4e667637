package runner

import (
	nethttp "net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wesleyorama2/fetch/http"
	"github.com/wesleyorama2/fetch/internal/config"
)

func sampleResponse(status int, total time.Duration) *http.Response {
	return http.NewResponse(&http.RawResponse{
		StatusCode: status,
		Header: nethttp.Header{
			"Content-Type": {"application/json; charset=utf-8"},
			"X-Trace":      {"abc-123"},
		},
		Body:   []byte(`{"id":7,"name":"Ann","tags":["a","b","c"],"profile":{"active":true}}`),
		Timing: http.TimingInfo{Total: total},
	}, nil)
}

func TestAssert(t *testing.T) {
	r := &Runner{cfg: &config.Config{}}
	resp := sampleResponse(200, 120*time.Millisecond)

	tests := []struct {
		name      string
		assertion map[string]interface{}
		passed    bool
		message   string
	}{
		{"status match", map[string]interface{}{"status": 200.0}, true, "Status code is 200"},
		{"status mismatch", map[string]interface{}{"status": 201}, false, "Status code is 200, expected 201"},
		{"status invalid", map[string]interface{}{"status": "ok"}, false, "Invalid status value: ok"},

		{"time less than", map[string]interface{}{"responseTime": "<500"}, true, "Response time 120ms is less than 500ms"},
		{"time less or equal", map[string]interface{}{"responseTime": "<=120"}, true, "Response time 120ms is less than or equal to 120ms"},
		{"time greater than", map[string]interface{}{"responseTime": ">200ms"}, false, "Response time 120ms is not greater than 200ms"},
		{"time greater or equal", map[string]interface{}{"responseTime": ">= 100"}, true, "Response time 120ms is greater than or equal to 100ms"},
		{"time bare number", map[string]interface{}{"responseTime": 120.0}, true, "Response time 120ms is equal to 120ms"},
		{"time explicit equal", map[string]interface{}{"responseTime": "=121"}, false, "Response time 120ms is not equal to 121ms"},
		{"time invalid", map[string]interface{}{"responseTime": "<fast"}, false, "Invalid response time value: <fast"},

		{"header present", map[string]interface{}{"header": "x-trace"}, true, "Header x-trace is present"},
		{"header missing", map[string]interface{}{"header": "X-Missing"}, false, "Header X-Missing is missing"},
		{"header exists false", map[string]interface{}{"header": "X-Missing", "exists": false}, true, "Header X-Missing exists: false"},
		{"header equals", map[string]interface{}{"header": "X-Trace", "equals": "abc-123"}, true, "Header X-Trace equals abc-123"},
		{"header equals mismatch", map[string]interface{}{"header": "X-Trace", "equals": "x"}, false, "Header X-Trace value is abc-123, expected x"},
		{"header contains", map[string]interface{}{"header": "Content-Type", "contains": "json"}, true, "Header Content-Type contains json"},
		{"header matches", map[string]interface{}{"header": "X-Trace", "matches": "^abc-\\d+$"}, true, "Header X-Trace matches pattern ^abc-\\d+$"},
		{"header bad regex", map[string]interface{}{"header": "X-Trace", "matches": "("}, false, "Invalid regex pattern: ("},

		{"path exists", map[string]interface{}{"path": "$.profile.active", "exists": true}, true, "Path $.profile.active exists: true"},
		{"path not exists", map[string]interface{}{"path": "$.email", "exists": true}, false, "Path $.email exists: false, expected: true"},
		{"path equals", map[string]interface{}{"path": "$.name", "equals": "Ann"}, true, "Path $.name equals Ann"},
		{"path equals number", map[string]interface{}{"path": "$.id", "equals": 7.0}, true, "Path $.id equals 7"},
		{"path contains", map[string]interface{}{"path": "$.name", "contains": "nn"}, true, "Path $.name contains nn"},
		{"path matches", map[string]interface{}{"path": "$.name", "matches": "^A"}, true, "Path $.name matches pattern ^A"},
		{"path is array", map[string]interface{}{"path": "$.tags", "isArray": true}, true, "Path $.tags is array: true"},
		{"path not array", map[string]interface{}{"path": "$.name", "isArray": true}, false, "Path $.name is array: false, expected: true"},
		{"path min length", map[string]interface{}{"path": "$.tags", "minLength": 3}, true, "Path $.tags has 3 items (min: 3)"},
		{"path too short", map[string]interface{}{"path": "$.tags", "minLength": 4}, false, "Path $.tags has 3 items, expected at least 4"},
		{"path missing", map[string]interface{}{"path": "$.email", "equals": "x"}, false, ""},
		{"path no condition", map[string]interface{}{"path": "$.name"}, false, "Path assertion for $.name has no condition"},

		{"inline schema", map[string]interface{}{"schema": map[string]interface{}{"type": "object", "required": []interface{}{"id"}}}, true, "Response matches schema inline"},
		{"unknown kind", map[string]interface{}{"cookie": "x"}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Assert(tt.assertion, resp)
			assert.Equal(t, tt.passed, got.Passed, got.Message)
			if tt.message != "" {
				assert.Equal(t, tt.message, got.Message)
			}
		})
	}
}

func TestAssert_ResultFields(t *testing.T) {
	r := &Runner{cfg: &config.Config{}}

	got := r.Assert(map[string]interface{}{"header": "X-Trace", "equals": "abc-123"}, sampleResponse(200, 0))
	assert.Equal(t, "header", got.Type)
	assert.Equal(t, "X-Trace", got.Field)
	assert.Equal(t, "abc-123", got.Expected)
	assert.Equal(t, "abc-123", got.Actual)

	got = r.Assert(map[string]interface{}{"status": 200}, sampleResponse(503, 0))
	assert.Equal(t, "status", got.Type)
	assert.Equal(t, 200, got.Expected)
	assert.Equal(t, 503, got.Actual)
}
