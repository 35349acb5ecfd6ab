package main

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newReferenceCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Print the reference tables in effect",
		Long: `Print the classification, beta, contract and stress tables the engine
uses, after applying --reference. The YAML output is a valid --reference file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format, "yaml"); err != nil {
				return err
			}
			tables, err := root.tables()
			if err != nil {
				return err
			}
			return writeReference(cmd.OutOrStdout(), tables, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format (yaml|json)")
	return cmd
}

func writeReference(out io.Writer, tables interface{}, format string) error {
	if format == "json" {
		return writeJSON(out, tables)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(tables); err != nil {
		return err
	}
	return enc.Close()
}
