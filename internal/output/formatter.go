package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wesleyorama2/fetch/http"
)

// Formatter is responsible for formatting HTTP requests and responses in text format
type Formatter struct {
	Verbose bool
	NoColor bool
	scheme  *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		scheme:  SchemeFor(noColor),
	}
}

func (f *Formatter) colors() *ColorScheme {
	if f.scheme == nil {
		f.scheme = SchemeFor(f.NoColor)
	}
	return f.scheme
}

// FormatRequest formats an HTTP request for display
func (f *Formatter) FormatRequest(req *http.Outbound) string {
	var buf strings.Builder
	c := f.colors()

	buf.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n", c.Method.Sprint(req.Method), c.URL.Sprint(req.URL)))

	if f.Verbose {
		buf.WriteString(fmt.Sprintf("  Protocol: HTTP/%s\n", req.Version))
		if req.Proxy != "" {
			buf.WriteString(fmt.Sprintf("  Proxy: %s\n", req.Proxy))
		}
	}

	if f.Verbose || len(req.Header) > 0 {
		buf.WriteString("  Headers:\n")
		writeHeaders(&buf, req.Header, c)
	}

	if len(req.Body) > 0 {
		buf.WriteString("  Body: ")
		buf.WriteString(formatJSONString(string(req.Body)))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats an HTTP response for display
func (f *Formatter) FormatResponse(resp *http.Response) string {
	var buf strings.Builder
	c := f.colors()

	statusColor := c.StatusError
	if resp.IsSuccessful() {
		statusColor = c.StatusOK
	} else if resp.IsRedirect() {
		statusColor = c.StatusWarn
	}

	buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
		statusColor.Sprint(resp.Status()),
		resp.Duration().Milliseconds()))

	if f.Verbose {
		timing := resp.Timing()
		buf.WriteString("  Timing:\n")
		buf.WriteString(fmt.Sprintf("    DNS Lookup:         %dms\n", timing.DNSLookup.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TCP Connection:     %dms\n", timing.TCPConnect.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TLS Handshake:      %dms\n", timing.TLSHandshake.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Time to First Byte: %dms\n", timing.TimeToFirstByte.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Content Transfer:   %dms\n", timing.ContentTransfer.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Total:              %dms\n", timing.Total.Milliseconds()))

		buf.WriteString("  Headers:\n")
		writeHeaders(&buf, resp.Headers(), c)
	}

	if body := resp.Body(); body != "" {
		buf.WriteString("  Body:\n")
		buf.WriteString(formatJSONString(body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatSuite formats suite results as a readable summary
func (f *Formatter) FormatSuite(result *SuiteResult) string {
	var buf strings.Builder
	c := f.colors()

	buf.WriteString(fmt.Sprintf("%s Suite: %s\n", InfoIcon(f.NoColor), c.Highlight.Sprint(result.Suite)))

	for _, test := range result.Tests {
		icon := SuccessIcon(f.NoColor)
		if !test.Passed {
			icon = ErrorIcon(f.NoColor)
		}
		buf.WriteString(fmt.Sprintf("  %s %s (%dms)\n", icon, test.Name, test.Duration))

		if test.Error != "" {
			buf.WriteString(fmt.Sprintf("      %s\n", c.Error.Sprint(test.Error)))
		}
		for _, a := range test.Assertions {
			if !a.Passed {
				buf.WriteString(fmt.Sprintf("      %s %s\n", ErrorIcon(f.NoColor), a.Message))
			} else if f.Verbose {
				buf.WriteString(fmt.Sprintf("      %s %s\n", SuccessIcon(f.NoColor), a.Message))
			}
		}
	}

	summary := c.Success
	if !result.Passed() {
		summary = c.Error
	}
	buf.WriteString(summary.Sprintf("Tests: %d passed, %d failed, %d total\n",
		result.PassedTests, result.FailedTests, result.TotalTests))
	buf.WriteString(fmt.Sprintf("Assertions: %d passed, %d failed, %d total\n",
		result.PassedAssertions, result.FailedAssertions, result.TotalAssertions))
	buf.WriteString(fmt.Sprintf("Duration: %dms\n", result.Duration))

	return buf.String()
}

func writeHeaders(buf *strings.Builder, headers map[string][]string, c *ColorScheme) {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, value := range headers[key] {
			buf.WriteString(fmt.Sprintf("    %s: %s\n", c.HeaderKey.Sprint(key), value))
		}
	}
}

// formatJSONString attempts to pretty-print a JSON string
func formatJSONString(s string) string {
	var prettyJSON bytes.Buffer
	err := json.Indent(&prettyJSON, []byte(s), "  ", "  ")
	if err != nil {
		return s
	}
	return prettyJSON.String()
}
