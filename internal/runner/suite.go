package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/wesleyorama2/fetch/internal/config"
	"github.com/wesleyorama2/fetch/internal/output"
)

// RunSuite executes the suite's requests in order, then its tests. A failing
// setup request aborts the suite; a failing test request is recorded as a
// test error and the remaining tests still run.
func (r *Runner) RunSuite(ctx context.Context, name string) (*output.SuiteResult, error) {
	if err := config.ValidateSuite(r.cfg, name); err != nil {
		return nil, err
	}
	suite := r.cfg.Suites[name]
	r.SetVars(suite.Vars)

	start := time.Now()
	result := output.NewSuiteResult(name)

	for _, reqName := range suite.Requests {
		if _, err := r.Execute(ctx, reqName); err != nil {
			return nil, fmt.Errorf("suite %s: %w", name, err)
		}
	}

	for _, test := range suite.Tests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Add(r.runTest(ctx, test))
	}

	result.Duration = time.Since(start).Milliseconds()
	return result, nil
}

func (r *Runner) runTest(ctx context.Context, test config.Test) output.TestResult {
	start := time.Now()
	tr := output.TestResult{Name: test.Name, Request: test.Request}

	exchange, err := r.Execute(ctx, test.Request)
	if err != nil {
		tr.Error = err.Error()
		tr.Duration = time.Since(start).Milliseconds()
		r.logger.Debug().Err(err).Str("test", test.Name).Msg("test request failed")
		return tr
	}

	tr.Passed = true
	for _, assertion := range test.Assertions {
		a := r.Assert(assertion, exchange.Response)
		tr.Passed = tr.Passed && a.Passed
		tr.Assertions = append(tr.Assertions, a)
	}

	tr.Response = output.NewResponseData(exchange.Response, false)
	tr.Duration = time.Since(start).Milliseconds()
	return tr
}
