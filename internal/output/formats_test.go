package output

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	for input, expected := range map[string]OutputFormat{
		"":      FormatText,
		"text":  FormatText,
		"JSON":  FormatJSON,
		"yaml":  FormatYAML,
		"junit": FormatJUnit,
	} {
		got, err := ParseFormat(input)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", input, err)
		}
		if got != expected {
			t.Errorf("ParseFormat(%q) = %s, expected %s", input, got, expected)
		}
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestGetFormatter(t *testing.T) {
	if _, ok := GetFormatter(FormatJSON, false, false).(*JSONFormatter); !ok {
		t.Error("Expected JSONFormatter")
	}
	if _, ok := GetFormatter(FormatYAML, false, false).(*YAMLFormatter); !ok {
		t.Error("Expected YAMLFormatter")
	}
	if _, ok := GetFormatter(FormatJUnit, false, false).(*JUnitFormatter); !ok {
		t.Error("Expected JUnitFormatter")
	}
	if _, ok := GetFormatter(FormatText, false, false).(*Formatter); !ok {
		t.Error("Expected text Formatter")
	}
}

func TestJSONFormatter_FormatRequest(t *testing.T) {
	formatter := &JSONFormatter{Pretty: true}
	output := formatter.FormatRequest(setupTestRequest(t))

	var data RequestData
	if err := json.Unmarshal([]byte(output), &data); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if data.Method != "POST" {
		t.Errorf("Expected method POST, got %s", data.Method)
	}
	if data.URL != "https://api.example.com/users?page=1" {
		t.Errorf("Unexpected URL %s", data.URL)
	}
	if data.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("Expected Authorization header, got %v", data.Headers)
	}
	body, ok := data.Body.(map[string]interface{})
	if !ok || body["name"] != "John Doe" {
		t.Errorf("Expected JSON body to be decoded, got %#v", data.Body)
	}
}

func TestJSONFormatter_FormatResponse(t *testing.T) {
	output := (&JSONFormatter{Verbose: true}).FormatResponse(setupTestResponse(200))

	var data ResponseData
	if err := json.Unmarshal([]byte(output), &data); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if data.StatusCode != 200 || data.Status != "200 OK" {
		t.Errorf("Unexpected status %d %s", data.StatusCode, data.Status)
	}
	if data.ResponseTime != 123 {
		t.Errorf("Expected response time 123, got %d", data.ResponseTime)
	}
	if data.ContentLength != 53 {
		t.Errorf("Expected content length 53, got %d", data.ContentLength)
	}
	if data.Timing == nil || data.Timing.TimeToFirstByte != 100 {
		t.Errorf("Expected timing in verbose output, got %+v", data.Timing)
	}

	quiet := (&JSONFormatter{}).FormatResponse(setupTestResponse(200))
	if strings.Contains(quiet, "timing") {
		t.Error("Timing should only be included in verbose output")
	}
}

func TestYAMLFormatter(t *testing.T) {
	formatter := &YAMLFormatter{}

	var req RequestData
	if err := yaml.Unmarshal([]byte(formatter.FormatRequest(setupTestRequest(t))), &req); err != nil {
		t.Fatalf("Failed to parse YAML request: %v", err)
	}
	if req.Method != "POST" || req.HTTPVersion != "2" {
		t.Errorf("Unexpected request data %+v", req)
	}

	var resp ResponseData
	if err := yaml.Unmarshal([]byte(formatter.FormatResponse(setupTestResponse(201))), &resp); err != nil {
		t.Fatalf("Failed to parse YAML response: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
}

func TestStructuredSuiteOutput(t *testing.T) {
	result := NewSuiteResult("users")
	result.Add(TestResult{Name: "list", Passed: true, Assertions: []AssertionResult{{Type: "status", Passed: true}}})

	var fromJSON SuiteResult
	if err := json.Unmarshal([]byte((&JSONFormatter{}).FormatSuite(result)), &fromJSON); err != nil {
		t.Fatalf("Failed to parse JSON suite: %v", err)
	}
	if fromJSON.Suite != "users" || fromJSON.PassedTests != 1 || fromJSON.PassedAssertions != 1 {
		t.Errorf("Unexpected JSON suite %+v", fromJSON)
	}

	var fromYAML SuiteResult
	if err := yaml.Unmarshal([]byte((&YAMLFormatter{}).FormatSuite(result)), &fromYAML); err != nil {
		t.Fatalf("Failed to parse YAML suite: %v", err)
	}
	if fromYAML.TotalTests != 1 {
		t.Errorf("Unexpected YAML suite %+v", fromYAML)
	}
}

func TestJUnitFormatter_FormatSuite(t *testing.T) {
	result := NewSuiteResult("users")
	result.Add(TestResult{Name: "list", Passed: true, Duration: 1500})
	result.Add(TestResult{Name: "create", Assertions: []AssertionResult{
		{Type: "status", Passed: false, Message: "expected status 201, got 500"},
	}})
	result.Add(TestResult{Name: "delete", Error: "connection refused"})

	output := (&JUnitFormatter{}).FormatSuite(result)
	if !strings.HasPrefix(output, xml.Header) {
		t.Error("Expected XML header")
	}

	var suites JUnitTestSuites
	if err := xml.Unmarshal([]byte(strings.TrimPrefix(output, xml.Header)), &suites); err != nil {
		t.Fatalf("Failed to parse JUnit XML: %v", err)
	}
	if len(suites.TestSuites) != 1 {
		t.Fatalf("Expected 1 test suite, got %d", len(suites.TestSuites))
	}

	suite := suites.TestSuites[0]
	if suite.Tests != 3 || suite.Failures != 1 || suite.Errors != 1 {
		t.Errorf("Unexpected counts tests=%d failures=%d errors=%d", suite.Tests, suite.Failures, suite.Errors)
	}
	if suite.TestCases[0].Time != 1.5 {
		t.Errorf("Expected time 1.5, got %f", suite.TestCases[0].Time)
	}
	if suite.TestCases[1].Failure == nil || !strings.Contains(suite.TestCases[1].Failure.Content, "got 500") {
		t.Errorf("Expected failure details, got %+v", suite.TestCases[1].Failure)
	}
	if suite.TestCases[2].Error == nil {
		t.Error("Expected error element for request error")
	}
}

func TestJUnitFormatter_RequestComments(t *testing.T) {
	formatter := &JUnitFormatter{}
	if got := formatter.FormatRequest(setupTestRequest(t)); !strings.HasPrefix(got, "<!-- Request: POST") {
		t.Errorf("Unexpected request comment %q", got)
	}
	if got := formatter.FormatResponse(setupTestResponse(200)); !strings.Contains(got, "200 OK (123ms)") {
		t.Errorf("Unexpected response comment %q", got)
	}
}
