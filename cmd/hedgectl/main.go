// Package main is hedgectl, the command-line front end of the hedging engine.
//
// It runs the same analysis as the server against a YAML holdings file and
// renders the result as tables or JSON.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/hedger/internal/modules/hedging/reference"
	"github.com/aristath/hedger/pkg/logger"
)

// rootOptions are the flags shared by every subcommand
type rootOptions struct {
	referenceFile string
	logLevel      string
	log           zerolog.Logger
}

// tables loads the reference data named by --reference, or the embedded set
func (o *rootOptions) tables() (*reference.Tables, error) {
	if o.referenceFile == "" {
		return reference.Default()
	}
	t, err := reference.LoadFile(o.referenceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference file: %w", err)
	}
	return t, nil
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "hedgectl",
		Short: "Portfolio hedging analytics",
		Long: `hedgectl classifies a holdings snapshot, aggregates its exposures,
computes risk metrics and sizes futures and option hedges.

Examples:
  hedgectl analyze --portfolio holdings.yaml --hedge 50
  hedgectl options --spot 21500 --vix 18 --contracts 4
  hedgectl reference --format yaml`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = logger.New(logger.Config{
				Level:  opts.logLevel,
				Pretty: true,
				Output: stderr,
			})
		},
	}

	cmd.PersistentFlags().StringVar(&opts.referenceFile, "reference", os.Getenv("HEDGER_REFERENCE_FILE"), "YAML file overlaying the embedded reference tables")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newOptionsCmd(opts),
		newReferenceCmd(opts),
	)
	return cmd
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
