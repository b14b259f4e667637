package output

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wesleyorama2/fetch/http"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
	// FormatJUnit outputs suite results in JUnit XML format (for CI/CD integration)
	FormatJUnit OutputFormat = "junit"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML, FormatJUnit:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected text, json, yaml or junit)", s)
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatRequest(req *http.Outbound) string
	FormatResponse(resp *http.Response) string
	FormatSuite(result *SuiteResult) string
}

// RequestData represents the structured data of an HTTP request
type RequestData struct {
	Method      string            `json:"method" yaml:"method"`
	URL         string            `json:"url" yaml:"url"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body        interface{}       `json:"body,omitempty" yaml:"body,omitempty"`
	HTTPVersion string            `json:"httpVersion" yaml:"httpVersion"`
	Proxy       string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Timestamp   string            `json:"timestamp" yaml:"timestamp"`
}

// TimingData represents detailed timing information for an HTTP request
type TimingData struct {
	DNSLookup       int64 `json:"dnsLookupMs,omitempty" yaml:"dnsLookupMs,omitempty"`
	TCPConnection   int64 `json:"tcpConnectionMs,omitempty" yaml:"tcpConnectionMs,omitempty"`
	TLSHandshake    int64 `json:"tlsHandshakeMs,omitempty" yaml:"tlsHandshakeMs,omitempty"`
	TimeToFirstByte int64 `json:"timeToFirstByteMs,omitempty" yaml:"timeToFirstByteMs,omitempty"`
	ContentTransfer int64 `json:"contentTransferMs,omitempty" yaml:"contentTransferMs,omitempty"`
	Total           int64 `json:"totalMs" yaml:"totalMs"`
}

// ResponseData represents the structured data of an HTTP response
type ResponseData struct {
	StatusCode    int               `json:"statusCode" yaml:"statusCode"`
	Status        string            `json:"status" yaml:"status"`
	Proto         string            `json:"proto,omitempty" yaml:"proto,omitempty"`
	Headers       map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body          interface{}       `json:"body,omitempty" yaml:"body,omitempty"`
	ResponseTime  int64             `json:"responseTimeMs" yaml:"responseTimeMs"`
	Timing        *TimingData       `json:"timing,omitempty" yaml:"timing,omitempty"`
	Timestamp     string            `json:"timestamp" yaml:"timestamp"`
	ContentLength int64             `json:"contentLength,omitempty" yaml:"contentLength,omitempty"`
}

// NewRequestData converts an outbound request into its serializable form.
func NewRequestData(req *http.Outbound) *RequestData {
	return &RequestData{
		Method:      req.Method.String(),
		URL:         req.URL,
		Headers:     firstValues(req.Header),
		Body:        decodeBody(req.Body),
		HTTPVersion: req.Version.String(),
		Proxy:       req.Proxy,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// NewResponseData converts a response into its serializable form. Timing
// phases are included only when verbose is set.
func NewResponseData(resp *http.Response, verbose bool) *ResponseData {
	timing := resp.Timing()
	data := &ResponseData{
		StatusCode:   resp.StatusCode(),
		Status:       resp.Status(),
		Proto:        resp.Proto(),
		Headers:      firstValues(resp.Headers()),
		Body:         decodeBody(resp.BodyBytes()),
		ResponseTime: timing.Total.Milliseconds(),
		Timestamp:    time.Now().Format(time.RFC3339),
	}

	if verbose {
		data.Timing = &TimingData{
			DNSLookup:       timing.DNSLookup.Milliseconds(),
			TCPConnection:   timing.TCPConnect.Milliseconds(),
			TLSHandshake:    timing.TLSHandshake.Milliseconds(),
			TimeToFirstByte: timing.TimeToFirstByte.Milliseconds(),
			ContentTransfer: timing.ContentTransfer.Milliseconds(),
			Total:           timing.Total.Milliseconds(),
		}
	}

	if contentLength, ok := resp.Header("Content-Length"); ok {
		if length, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
			data.ContentLength = length
		}
	}

	return data
}

func firstValues(h map[string][]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}

// decodeBody parses JSON bodies so they nest in structured output; other
// bodies are kept as text.
func decodeBody(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Verbose bool
	Pretty  bool
}

func (f *JSONFormatter) marshal(v interface{}) string {
	var output []byte
	var err error
	if f.Pretty {
		output, err = json.MarshalIndent(v, "", "  ")
	} else {
		output, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Sprintf("{\"error\":%q}\n", err.Error())
	}
	return string(output) + "\n"
}

// FormatRequest formats a request as JSON
func (f *JSONFormatter) FormatRequest(req *http.Outbound) string {
	return f.marshal(NewRequestData(req))
}

// FormatResponse formats a response as JSON
func (f *JSONFormatter) FormatResponse(resp *http.Response) string {
	return f.marshal(NewResponseData(resp, f.Verbose))
}

// FormatSuite formats suite results as JSON
func (f *JSONFormatter) FormatSuite(result *SuiteResult) string {
	return f.marshal(result)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	Verbose bool
}

func (f *YAMLFormatter) marshal(v interface{}) string {
	output, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %s\n", err)
	}
	return "---\n" + string(output)
}

// FormatRequest formats a request as YAML
func (f *YAMLFormatter) FormatRequest(req *http.Outbound) string {
	return f.marshal(NewRequestData(req))
}

// FormatResponse formats a response as YAML
func (f *YAMLFormatter) FormatResponse(resp *http.Response) string {
	return f.marshal(NewResponseData(resp, f.Verbose))
}

// FormatSuite formats suite results as YAML
func (f *YAMLFormatter) FormatSuite(result *SuiteResult) string {
	return f.marshal(result)
}

// JUnitFormatter formats suite results as JUnit XML. Single requests are
// rendered as XML comments.
type JUnitFormatter struct {
	Verbose bool
}

// JUnitTestSuites represents the root element containing all test suites
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite represents a JUnit test suite
type JUnitTestSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a JUnit test case
type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitFailure `xml:"error,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure represents a JUnit test failure
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// FormatRequest formats a request as an XML comment
func (f *JUnitFormatter) FormatRequest(req *http.Outbound) string {
	return fmt.Sprintf("<!-- Request: %s %s -->\n", req.Method, req.URL)
}

// FormatResponse formats a response as an XML comment
func (f *JUnitFormatter) FormatResponse(resp *http.Response) string {
	return fmt.Sprintf("<!-- Response: %s (%dms) -->\n", resp.Status(), resp.Duration().Milliseconds())
}

// FormatSuite formats suite results as a JUnit XML document
func (f *JUnitFormatter) FormatSuite(result *SuiteResult) string {
	suite := JUnitTestSuite{
		Name:      result.Suite,
		Tests:     result.TotalTests,
		Time:      float64(result.Duration) / 1000.0,
		Timestamp: result.Timestamp,
		TestCases: []JUnitTestCase{},
	}

	for _, test := range result.Tests {
		testCase := JUnitTestCase{
			Name:      test.Name,
			Classname: "fetch." + result.Suite,
			Time:      float64(test.Duration) / 1000.0,
		}

		switch {
		case test.Error != "":
			testCase.Error = &JUnitFailure{Message: test.Error, Type: "RequestError", Content: test.Error}
			suite.Errors++
		case !test.Passed:
			var failureMessages []string
			for _, assertion := range test.Assertions {
				if !assertion.Passed {
					failureMessages = append(failureMessages, assertion.Message)
				}
			}
			testCase.Failure = &JUnitFailure{
				Message: fmt.Sprintf("Test failed with %d assertion failures", len(failureMessages)),
				Type:    "AssertionError",
				Content: strings.Join(failureMessages, "\n"),
			}
			suite.Failures++
		}

		if f.Verbose && test.Response != nil {
			testCase.SystemOut = fmt.Sprintf("Request: %s\nResponse: %s\nResponse Time: %dms",
				test.Request, test.Response.Status, test.Response.ResponseTime)
		}

		suite.TestCases = append(suite.TestCases, testCase)
	}

	output, err := xml.MarshalIndent(JUnitTestSuites{TestSuites: []JUnitTestSuite{suite}}, "", "  ")
	if err != nil {
		return fmt.Sprintf("%s<!-- Error: Failed to marshal test results: %s -->", xml.Header, err)
	}
	return xml.Header + string(output) + "\n"
}

// GetFormatter returns the appropriate formatter for the given format
func GetFormatter(format OutputFormat, verbose bool, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Verbose: verbose, Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{Verbose: verbose}
	case FormatJUnit:
		return &JUnitFormatter{Verbose: verbose}
	default:
		return NewFormatter(verbose, noColor)
	}
}
