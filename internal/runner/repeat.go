package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	histogramMin     = 1           // 1µs
	histogramMax     = 300_000_000 // 5 minutes in µs
	histogramSigFigs = 3
)

// Stats summarizes repeated executions of one request.
type Stats struct {
	Request     string        `json:"request" yaml:"request"`
	Count       int64         `json:"count" yaml:"count"`
	Failures    int64         `json:"failures" yaml:"failures"`
	StatusCodes map[int]int64 `json:"statusCodes" yaml:"statusCodes"`
	Min         time.Duration `json:"min" yaml:"min"`
	Mean        time.Duration `json:"mean" yaml:"mean"`
	P50         time.Duration `json:"p50" yaml:"p50"`
	P90         time.Duration `json:"p90" yaml:"p90"`
	P95         time.Duration `json:"p95" yaml:"p95"`
	P99         time.Duration `json:"p99" yaml:"p99"`
	Max         time.Duration `json:"max" yaml:"max"`
	Total       time.Duration `json:"total" yaml:"total"`
}

// Repeat executes the named request n times in sequence, paced by the
// runner's rate when one is set, and records the latency of each successful
// exchange. Failed executions are counted and
// their errors joined into the returned error; Stats is returned either way.
func (r *Runner) Repeat(ctx context.Context, name string, n int) (*Stats, error) {
	if n < 1 {
		return nil, fmt.Errorf("repeat count must be at least 1, got %d", n)
	}

	hist := hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)
	stats := &Stats{Request: name, StatusCodes: make(map[int]int64)}
	var pace *pacer
	if r.rate > 0 {
		pace = newPacer(r.rate)
	}
	var errs []error
	start := time.Now()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if pace != nil {
			if err := pace.wait(ctx); err != nil {
				errs = append(errs, err)
				break
			}
		}

		stats.Count++
		exchange, err := r.Execute(ctx, name)
		if err != nil {
			stats.Failures++
			errs = append(errs, fmt.Errorf("iteration %d: %w", i+1, err))
			continue
		}

		stats.StatusCodes[exchange.Response.StatusCode()]++

		// Clamp to the histogram range
		latency := exchange.Response.Duration().Microseconds()
		if latency < histogramMin {
			latency = histogramMin
		}
		if latency > histogramMax {
			latency = histogramMax
		}
		if err := hist.RecordValue(latency); err != nil {
			r.logger.Warn().Err(err).Msg("latency not recorded")
		}
	}

	stats.Total = time.Since(start)
	if hist.TotalCount() > 0 {
		stats.Min = micros(hist.Min())
		stats.Max = micros(hist.Max())
		stats.Mean = time.Duration(hist.Mean() * float64(time.Microsecond))
		stats.P50 = micros(hist.ValueAtQuantile(50))
		stats.P90 = micros(hist.ValueAtQuantile(90))
		stats.P95 = micros(hist.ValueAtQuantile(95))
		stats.P99 = micros(hist.ValueAtQuantile(99))
	}

	return stats, errors.Join(errs...)
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
