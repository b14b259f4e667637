package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/fetch/http"
	"github.com/wesleyorama2/fetch/internal/config"
	"github.com/wesleyorama2/fetch/internal/output"
	"github.com/wesleyorama2/fetch/internal/runner"
)

type runOptions struct {
	config      string
	environment string
	request     string
	suite       string
	repeat      int
	rate        float64
	timeout     time.Duration
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run requests or suites from a configuration file",
		Example: `  fetch run -c api.json -e dev -r login
  fetch run -c api.yaml -e dev -s users -o junit
  fetch run -c api.json -e dev -r health --repeat 50 --rate 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, global)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.config, "config", "c", "", "Configuration file (required)")
	flags.StringVarP(&opts.environment, "environment", "e", "", "Environment to use (required)")
	flags.StringVarP(&opts.request, "request", "r", "", "Request to run")
	flags.StringVarP(&opts.suite, "suite", "s", "", "Suite to run")
	flags.IntVar(&opts.repeat, "repeat", 1, "Execute the request N times and report latency statistics")
	flags.Float64Var(&opts.rate, "rate", 0, "Limit --repeat to this many requests per second")
	flags.DurationVarP(&opts.timeout, "timeout", "t", http.DefaultTimeout, "Timeout of requests that do not set their own")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("environment")
	cmd.MarkFlagsOneRequired("request", "suite")
	cmd.MarkFlagsMutuallyExclusive("request", "suite")
	cmd.MarkFlagsMutuallyExclusive("suite", "repeat")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, global *globalOptions) error {
	formatter, err := global.formatter(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(o.config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
		w := cmd.ErrOrStderr()
		fmt.Fprintln(w, "Configuration validation errors:")
		for _, e := range errs {
			fmt.Fprintf(w, "  - %s\n", e.Error())
		}
		return errFailed
	}

	out := cmd.OutOrStdout()
	r, err := runner.New(cfg, o.environment,
		runner.WithTimeout(o.timeout),
		runner.WithRate(o.rate),
		runner.WithLogger(global.logger(cmd.ErrOrStderr())),
		runner.WithObserver(func(e *runner.Exchange) {
			if o.suite == "" && o.repeat == 1 {
				fmt.Fprint(out, formatter.FormatRequest(e.Request))
				fmt.Fprint(out, formatter.FormatResponse(e.Response))
			}
		}),
	)
	if err != nil {
		return err
	}

	switch {
	case o.suite != "":
		result, err := r.RunSuite(cmd.Context(), o.suite)
		if err != nil {
			return err
		}
		fmt.Fprint(out, formatter.FormatSuite(result))
		if !result.Passed() {
			return errFailed
		}
		return nil

	case o.repeat != 1:
		stats, err := r.Repeat(cmd.Context(), o.request, o.repeat)
		if stats != nil {
			if werr := writeStats(out, stats, global.format, global.plain(cmd)); werr != nil {
				return errors.Join(err, werr)
			}
		}
		return err
	}

	exchange, err := r.Execute(cmd.Context(), o.request)
	if err != nil {
		return err
	}
	if global.verbose {
		for name, value := range exchange.Extracted {
			fmt.Fprintf(cmd.ErrOrStderr(), "Extracted variable %s = %s\n", name, value)
		}
	}
	return nil
}

// writeStats prints repeat statistics in the requested format.
func writeStats(w io.Writer, stats *runner.Stats, format string, noColor bool) error {
	switch output.OutputFormat(strings.ToLower(format)) {
	case output.FormatJSON:
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding stats: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case output.FormatYAML:
		data, err := yaml.Marshal(stats)
		if err != nil {
			return fmt.Errorf("encoding stats: %w", err)
		}
		_, err = fmt.Fprint(w, "---\n"+string(data))
		return err
	}

	c := output.SchemeFor(noColor)
	fmt.Fprintf(w, "%s: %d requests, %s failed, %s total\n",
		c.Highlight.Sprint(stats.Request), stats.Count, failureColor(c, stats.Failures).Sprint(stats.Failures),
		stats.Total.Round(time.Millisecond))
	for _, code := range sortedCodes(stats.StatusCodes) {
		fmt.Fprintf(w, "  %s: %d\n", statusColor(c, code).Sprint(code), stats.StatusCodes[code])
	}
	_, err := fmt.Fprintf(w, "  min %s  mean %s  p50 %s  p90 %s  p95 %s  p99 %s  max %s\n",
		stats.Min, stats.Mean.Round(time.Microsecond), stats.P50, stats.P90, stats.P95, stats.P99, stats.Max)
	return err
}

func failureColor(c *output.ColorScheme, failures int64) *color.Color {
	if failures > 0 {
		return c.Error
	}
	return c.Success
}

func statusColor(c *output.ColorScheme, code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return c.StatusOK
	case code >= 300 && code < 400:
		return c.StatusWarn
	}
	return c.StatusError
}

func sortedCodes(codes map[int]int64) []int {
	keys := make([]int, 0, len(codes))
	for code := range codes {
		keys = append(keys, code)
	}
	sort.Ints(keys)
	return keys
}
