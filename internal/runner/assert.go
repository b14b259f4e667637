package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/fetch/http"
	"github.com/wesleyorama2/fetch/internal/output"
	"github.com/wesleyorama2/fetch/pkg/jsonpath"
)

// Assert evaluates a single assertion against a response. Supported kinds
// are status, responseTime, header, path and schema.
func (r *Runner) Assert(assertion map[string]interface{}, resp *http.Response) output.AssertionResult {
	switch {
	case has(assertion, "status"):
		return assertStatus(assertion["status"], resp)
	case has(assertion, "responseTime"):
		return assertResponseTime(assertion["responseTime"], resp)
	case has(assertion, "header"):
		return assertHeader(assertion, resp)
	case has(assertion, "path"):
		return assertPath(assertion, resp)
	case has(assertion, "schema"):
		return r.assertSchema(assertion["schema"], resp)
	}
	return output.AssertionResult{Type: "unknown", Message: fmt.Sprintf("Unknown assertion: %v", assertion)}
}

func has(m map[string]interface{}, key string) bool {
	_, ok := m[key]
	return ok
}

func text(v interface{}) string {
	return fmt.Sprintf("%v", v)
}

func result(kind, field string, expected, actual interface{}, passed bool, format string, args ...interface{}) output.AssertionResult {
	return output.AssertionResult{
		Type:     kind,
		Field:    field,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
		Message:  fmt.Sprintf(format, args...),
	}
}

func assertStatus(expected interface{}, resp *http.Response) output.AssertionResult {
	want, err := strconv.Atoi(text(expected))
	if err != nil {
		return result("status", "", expected, resp.StatusCode(), false, "Invalid status value: %v", expected)
	}
	if resp.StatusCode() != want {
		return result("status", "", want, resp.StatusCode(), false, "Status code is %d, expected %d", resp.StatusCode(), want)
	}
	return result("status", "", want, resp.StatusCode(), true, "Status code is %d", want)
}

// comparisons is ordered so two-character operators match before their prefixes
var comparisons = []struct {
	op      string
	compare func(actual, limit int64) bool
	phrase  string
}{
	{"<=", func(a, l int64) bool { return a <= l }, "less than or equal to"},
	{">=", func(a, l int64) bool { return a >= l }, "greater than or equal to"},
	{"<", func(a, l int64) bool { return a < l }, "less than"},
	{">", func(a, l int64) bool { return a > l }, "greater than"},
	{"=", func(a, l int64) bool { return a == l }, "equal to"},
}

func assertResponseTime(expected interface{}, resp *http.Response) output.AssertionResult {
	expr := strings.TrimSpace(text(expected))
	actual := resp.Duration().Milliseconds()

	// A bare number is an equality check
	cmp, rest := comparisons[len(comparisons)-1], expr
	for _, c := range comparisons {
		if strings.HasPrefix(expr, c.op) {
			cmp, rest = c, strings.TrimPrefix(expr, c.op)
			break
		}
	}

	limit, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimSpace(rest), "ms"), 10, 64)
	if err != nil {
		return result("responseTime", "", expr, actual, false, "Invalid response time value: %s", expr)
	}

	if !cmp.compare(actual, limit) {
		return result("responseTime", "", expr, actual, false, "Response time %dms is not %s %dms", actual, cmp.phrase, limit)
	}
	return result("responseTime", "", expr, actual, true, "Response time %dms is %s %dms", actual, cmp.phrase, limit)
}

func assertHeader(assertion map[string]interface{}, resp *http.Response) output.AssertionResult {
	name := text(assertion["header"])
	value, present := resp.Header(name)

	switch {
	case has(assertion, "exists"):
		want, _ := strconv.ParseBool(text(assertion["exists"]))
		if want != present {
			return result("header", name, want, present, false, "Header %s exists: %v, expected: %v", name, present, want)
		}
		return result("header", name, want, present, true, "Header %s exists: %v", name, want)

	case has(assertion, "equals"):
		want := text(assertion["equals"])
		if !present || value != want {
			return result("header", name, want, value, false, "Header %s value is %s, expected %s", name, value, want)
		}
		return result("header", name, want, value, true, "Header %s equals %s", name, want)

	case has(assertion, "contains"):
		want := text(assertion["contains"])
		if !present || !strings.Contains(value, want) {
			return result("header", name, want, value, false, "Header %s value %s does not contain %s", name, value, want)
		}
		return result("header", name, want, value, true, "Header %s contains %s", name, want)

	case has(assertion, "matches"):
		pattern := text(assertion["matches"])
		re, err := regexp.Compile(pattern)
		if err != nil {
			return result("header", name, pattern, value, false, "Invalid regex pattern: %s", pattern)
		}
		if !present || !re.MatchString(value) {
			return result("header", name, pattern, value, false, "Header %s value %s does not match pattern %s", name, value, pattern)
		}
		return result("header", name, pattern, value, true, "Header %s matches pattern %s", name, pattern)
	}

	// A bare header assertion checks presence
	if !present {
		return result("header", name, true, false, false, "Header %s is missing", name)
	}
	return result("header", name, true, true, true, "Header %s is present", name)
}

func assertPath(assertion map[string]interface{}, resp *http.Response) output.AssertionResult {
	path := text(assertion["path"])
	body := resp.Body()

	if has(assertion, "exists") {
		want, _ := strconv.ParseBool(text(assertion["exists"]))
		exists := jsonpath.Exists(body, path)
		if want != exists {
			return result("path", path, want, exists, false, "Path %s exists: %v, expected: %v", path, exists, want)
		}
		return result("path", path, want, exists, true, "Path %s exists: %v", path, want)
	}

	value, err := jsonpath.Extract(body, path)
	if err != nil {
		return result("path", path, nil, nil, false, "Failed to extract path %s: %v", path, err)
	}

	switch {
	case has(assertion, "equals"):
		want := text(assertion["equals"])
		if value != want {
			return result("path", path, want, value, false, "Path %s value is %s, expected %s", path, value, want)
		}
		return result("path", path, want, value, true, "Path %s equals %s", path, want)

	case has(assertion, "contains"):
		want := text(assertion["contains"])
		if !strings.Contains(value, want) {
			return result("path", path, want, value, false, "Path %s value %s does not contain %s", path, value, want)
		}
		return result("path", path, want, value, true, "Path %s contains %s", path, want)

	case has(assertion, "matches"):
		pattern := text(assertion["matches"])
		re, err := regexp.Compile(pattern)
		if err != nil {
			return result("path", path, pattern, value, false, "Invalid regex pattern: %s", pattern)
		}
		if !re.MatchString(value) {
			return result("path", path, pattern, value, false, "Path %s value %s does not match pattern %s", path, value, pattern)
		}
		return result("path", path, pattern, value, true, "Path %s matches pattern %s", path, pattern)

	case has(assertion, "isArray"):
		want, _ := strconv.ParseBool(text(assertion["isArray"]))
		isArray := gjson.Parse(value).IsArray()
		if want != isArray {
			return result("path", path, want, isArray, false, "Path %s is array: %v, expected: %v", path, isArray, want)
		}
		return result("path", path, want, isArray, true, "Path %s is array: %v", path, want)

	case has(assertion, "minLength"):
		minLen, err := strconv.Atoi(text(assertion["minLength"]))
		if err != nil {
			return result("path", path, assertion["minLength"], nil, false, "Invalid minLength value: %v", assertion["minLength"])
		}
		parsed := gjson.Parse(value)
		if !parsed.IsArray() {
			return result("path", path, minLen, value, false, "Path %s value is not a valid array", path)
		}
		n := len(parsed.Array())
		if n < minLen {
			return result("path", path, minLen, n, false, "Path %s has %d items, expected at least %d", path, n, minLen)
		}
		return result("path", path, minLen, n, true, "Path %s has %d items (min: %d)", path, n, minLen)
	}

	return result("path", path, nil, value, false, "Path assertion for %s has no condition", path)
}

// assertSchema validates the body against a named schema from the config,
// a schema file relative to the config directory, or an inline schema.
func (r *Runner) assertSchema(ref interface{}, resp *http.Response) output.AssertionResult {
	schema, name, err := r.resolveSchema(ref)
	if err != nil {
		return result("schema", name, name, nil, false, "Schema %s: %v", name, err)
	}

	if err := resp.ValidateSchema(schema); err != nil {
		return result("schema", name, name, err.Error(), false, "Response does not match schema %s: %v", name, err)
	}
	return result("schema", name, name, nil, true, "Response matches schema %s", name)
}

func (r *Runner) resolveSchema(ref interface{}) (schema, name string, err error) {
	switch v := ref.(type) {
	case string:
		if raw, ok := r.cfg.Schemas[v]; ok {
			return string(raw), v, nil
		}
		if strings.HasSuffix(v, ".json") {
			path := v
			if !filepath.IsAbs(path) && r.cfg.Dir != "" {
				path = filepath.Join(r.cfg.Dir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return "", v, err
			}
			return string(data), v, nil
		}
		return "", v, fmt.Errorf("schema not found")
	case map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return "", "inline", err
		}
		return string(data), "inline", nil
	}
	return "", text(ref), fmt.Errorf("unsupported schema reference %T", ref)
}
