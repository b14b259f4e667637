package output

import "time"

// AssertionResult represents the result of a single assertion
type AssertionResult struct {
	Type     string      `json:"type" yaml:"type"`
	Field    string      `json:"field,omitempty" yaml:"field,omitempty"`
	Expected interface{} `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   interface{} `json:"actual,omitempty" yaml:"actual,omitempty"`
	Passed   bool        `json:"passed" yaml:"passed"`
	Message  string      `json:"message" yaml:"message"`
}

// TestResult represents the result of a single suite test
type TestResult struct {
	Name       string            `json:"name" yaml:"name"`
	Request    string            `json:"request" yaml:"request"`
	Passed     bool              `json:"passed" yaml:"passed"`
	Duration   int64             `json:"durationMs" yaml:"durationMs"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
	Assertions []AssertionResult `json:"assertions,omitempty" yaml:"assertions,omitempty"`
	Response   *ResponseData     `json:"response,omitempty" yaml:"response,omitempty"`
}

// SuiteResult represents the result of a test suite
type SuiteResult struct {
	Suite            string       `json:"suite" yaml:"suite"`
	TotalTests       int          `json:"totalTests" yaml:"totalTests"`
	PassedTests      int          `json:"passedTests" yaml:"passedTests"`
	FailedTests      int          `json:"failedTests" yaml:"failedTests"`
	TotalAssertions  int          `json:"totalAssertions" yaml:"totalAssertions"`
	PassedAssertions int          `json:"passedAssertions" yaml:"passedAssertions"`
	FailedAssertions int          `json:"failedAssertions" yaml:"failedAssertions"`
	Duration         int64        `json:"durationMs" yaml:"durationMs"`
	Tests            []TestResult `json:"tests" yaml:"tests"`
	Timestamp        string       `json:"timestamp" yaml:"timestamp"`
}

// NewSuiteResult starts an empty result for the named suite.
func NewSuiteResult(name string) *SuiteResult {
	return &SuiteResult{
		Suite:     name,
		Tests:     []TestResult{},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// Add appends a test and updates the counters.
func (s *SuiteResult) Add(test TestResult) {
	s.Tests = append(s.Tests, test)
	s.TotalTests++
	if test.Passed {
		s.PassedTests++
	} else {
		s.FailedTests++
	}

	for _, a := range test.Assertions {
		s.TotalAssertions++
		if a.Passed {
			s.PassedAssertions++
		} else {
			s.FailedAssertions++
		}
	}
}

// Passed reports whether every test passed.
func (s *SuiteResult) Passed() bool {
	return s.FailedTests == 0
}
