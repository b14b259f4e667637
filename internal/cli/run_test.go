package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wesleyorama2/fetch/internal/runner"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/login":
			fmt.Fprint(w, `{"token":"tok-1"}`)
		case "/me":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":"unauthorized"}`)
				return
			}
			fmt.Fprintf(w, `{"name":"ann","requestId":%q}`, r.Header.Get("X-Request-ID"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func apiConfig(baseURL string, status int) string {
	return fmt.Sprintf(`
environments:
  dev:
    baseUrl: %s
requests:
  login:
    url: /login
    method: POST
    extract:
      token: $.token
  me:
    url: /me
    method: GET
    auth:
      bearer: "{{token}}"
suites:
  profile:
    requests: [login]
    tests:
      - name: current user
        request: me
        assertions:
          - status: %d
          - path: $.name
            equals: ann
`, baseURL, status)
}

func TestRunRequest(t *testing.T) {
	server := newAPIServer(t)
	path := writeConfig(t, "api.yaml", apiConfig(server.URL, 200))

	stdout, stderr, err := executeCommand(t, "run", "-c", path, "-e", "dev", "-r", "login", "-v")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(stdout, "▶ REQUEST: POST "+server.URL+"/login") {
		t.Errorf("Expected request output, got:\n%s", stdout)
	}
	if !strings.Contains(strings.ToLower(stdout), "x-request-id: ") {
		t.Errorf("Expected request ID header in verbose output, got:\n%s", stdout)
	}
	if !strings.Contains(stderr, "Extracted variable token = tok-1") {
		t.Errorf("Expected extracted variable on stderr, got:\n%s", stderr)
	}
}

func TestRunSuite(t *testing.T) {
	server := newAPIServer(t)

	path := writeConfig(t, "api.yaml", apiConfig(server.URL, 200))
	stdout, _, err := executeCommand(t, "run", "-c", path, "-e", "dev", "-s", "profile")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(stdout, "Tests: 1 passed, 0 failed, 1 total") {
		t.Errorf("Expected passing summary, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "REQUEST:") {
		t.Errorf("Expected suite output without individual exchanges, got:\n%s", stdout)
	}

	path = writeConfig(t, "api.yaml", apiConfig(server.URL, 201))
	stdout, _, err = executeCommand(t, "run", "-c", path, "-e", "dev", "-s", "profile", "-o", "junit")
	if !errors.Is(err, errFailed) {
		t.Fatalf("Expected failed suite error, got %v", err)
	}
	if !strings.Contains(stdout, `<testsuite name="profile" tests="1" failures="1"`) {
		t.Errorf("Expected JUnit failure, got:\n%s", stdout)
	}
}

func TestRunRepeat(t *testing.T) {
	server := newAPIServer(t)
	path := writeConfig(t, "api.yaml", apiConfig(server.URL, 200))

	stdout, _, err := executeCommand(t, "run", "-c", path, "-e", "dev", "-r", "login", "--repeat", "3", "-o", "json")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var stats struct {
		Request     string           `json:"request"`
		Count       int64            `json:"count"`
		StatusCodes map[string]int64 `json:"statusCodes"`
	}
	if err := json.Unmarshal([]byte(stdout), &stats); err != nil {
		t.Fatalf("Expected JSON stats, got %q: %v", stdout, err)
	}
	if stats.Request != "login" || stats.Count != 3 || stats.StatusCodes["200"] != 3 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	stdout, _, err = executeCommand(t, "run", "-c", path, "-e", "dev", "-r", "login", "--repeat", "2", "--rate", "100")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(stdout, "login: 2 requests, 0 failed") || !strings.Contains(stdout, "p99") {
		t.Errorf("Expected text stats, got:\n%s", stdout)
	}

	_, _, err = executeCommand(t, "run", "-c", path, "-e", "dev", "-r", "login", "--repeat", "0")
	if err == nil {
		t.Error("Expected an error for a zero repeat count")
	}
}

func TestRunErrors(t *testing.T) {
	invalid := writeConfig(t, "bad.json", `{"environments":{"dev":{}},"requests":{"r":{"url":"/","method":"FETCH"}}}`)
	valid := writeConfig(t, "api.json", `{"environments":{"dev":{"baseUrl":"http://127.0.0.1:1"}},"requests":{"r":{"url":"/","method":"GET"}}}`)

	tests := []struct {
		name   string
		args   []string
		want   string
		stderr string
	}{
		{"missing config", []string{"run", "-e", "dev", "-r", "r"}, `required flag(s) "config" not set`, ""},
		{"missing target", []string{"run", "-c", valid, "-e", "dev"}, "at least one of the flags in the group [request suite] is required", ""},
		{"both targets", []string{"run", "-c", valid, "-e", "dev", "-r", "r", "-s", "s"}, "none of the others can be", ""},
		{"unreadable", []string{"run", "-c", "/nonexistent.json", "-e", "dev", "-r", "r"}, "loading config", ""},
		{"invalid", []string{"run", "-c", invalid, "-e", "dev", "-r", "r"}, "failed", "environments.dev.baseUrl: baseUrl is required"},
		{"unknown environment", []string{"run", "-c", valid, "-e", "prod", "-r", "r"}, "environment not found: prod", ""},
		{"unknown request", []string{"run", "-c", valid, "-e", "dev", "-r", "x"}, "request not found: x", ""},
		{"unknown suite", []string{"run", "-c", valid, "-e", "dev", "-s", "x"}, "suite not found: x", ""},
		{"unreachable", []string{"run", "-c", valid, "-e", "dev", "-r", "r"}, "request r:", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := executeCommand(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
			if tt.stderr != "" && !strings.Contains(stderr, tt.stderr) {
				t.Errorf("Expected stderr to contain %q, got %q", tt.stderr, stderr)
			}
		})
	}
}

func TestWriteStats(t *testing.T) {
	stats := &runner.Stats{
		Request:     "health",
		Count:       4,
		Failures:    1,
		StatusCodes: map[int]int64{200: 2, 503: 1},
		Min:         time.Millisecond,
		P50:         2 * time.Millisecond,
		Max:         5 * time.Millisecond,
	}

	var buf bytes.Buffer
	if err := writeStats(&buf, stats, "text", true); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	text := buf.String()
	if strings.Contains(text, "\x1b[") {
		t.Errorf("Expected plain output, got %q", text)
	}
	for _, want := range []string{"health: 4 requests, 1 failed", "  200: 2\n  503: 1\n", "p50 2ms", "max 5ms"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in:\n%s", want, text)
		}
	}

	buf.Reset()
	if err := writeStats(&buf, stats, "yaml", true); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.HasPrefix(buf.String(), "---\nrequest: health\n") {
		t.Errorf("Expected YAML stats, got:\n%s", buf.String())
	}

	buf.Reset()
	if err := writeStats(&buf, stats, "json", true); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected JSON stats, got %q: %v", buf.String(), err)
	}
	if decoded["failures"] != float64(1) {
		t.Errorf("Expected 1 failure, got %v", decoded["failures"])
	}
}
