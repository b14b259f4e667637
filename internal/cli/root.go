// Package cli implements the fetch command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/fetch/internal/output"
)

var version = "0.1.0"

// errFailed is returned when a command already reported its failure.
var errFailed = errors.New("failed")

type globalOptions struct {
	debug   bool
	noColor bool
	verbose bool
	format  string
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:     "fetch",
		Short:   "A terminal HTTP client built on a fluent request builder",
		Version: version,
		Long: `Fetch sends HTTP requests from the terminal and runs request suites
described in JSON or YAML configuration files, with assertions on status,
headers, JSON paths, schemas and response times.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&opts.debug, "debug", false, "Log request execution details to stderr")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVarP(&opts.format, "output", "o", "text", "Output format: text, json, yaml or junit")

	for _, cmd := range newMethodCmds(opts) {
		root.AddCommand(cmd)
	}
	root.AddCommand(newRunCmd(opts))
	return root
}

// Execute runs the root command and reports errors on stderr.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil && !errors.Is(err, errFailed) {
		fmt.Fprintln(root.ErrOrStderr(), color.RedString("Error:"), err)
	}
	return err
}

// formatter resolves the output format and color settings for a command.
func (o *globalOptions) formatter(cmd *cobra.Command) (output.FormatProvider, error) {
	format, err := output.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}

	return output.GetFormatter(format, o.verbose, o.plain(cmd)), nil
}

// plain reports whether the command output is written without color and
// updates the color package to match.
func (o *globalOptions) plain(cmd *cobra.Command) bool {
	var out *os.File
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		out = f
	}
	noColor := output.ColorDisabled(o.noColor, out)
	color.NoColor = noColor
	return noColor
}

func (o *globalOptions) logger(w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	if o.debug {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{Out: w, NoColor: o.noColor, TimeFormat: time.Kitchen}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}
