package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dhamidi/caret/format"
	"github.com/spf13/cobra"
)

func newCompleteCmd() *cobra.Command {
	var (
		langPath string
		builtin  string
		offset   int
		output   string
	)

	cmd := &cobra.Command{
		Use:   "complete [file]",
		Short: "Print completion candidates at an offset of the input",
		Long: `Print completion candidates at a byte offset of the input.

The input is read from file, or from stdin when no file is given.
A negative offset means the end of the input.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var paths []string
			if langPath != "" {
				paths = append(paths, langPath)
			}
			langs, err := loadLanguages(paths, builtin)
			if err != nil {
				return err
			}

			var input []byte
			if len(args) == 1 {
				input, err = os.ReadFile(args[0])
			} else {
				input, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			at := offset
			if at < 0 {
				at = len(input)
			}
			result, err := langs[0].Complete(input, at, nil)
			if err != nil {
				return err
			}

			var enc format.Encoder
			switch output {
			case "json":
				enc = format.NewJSONEncoder(cmd.OutOrStdout())
			case "text":
				enc = format.NewLineEncoder(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unknown format %q (want json or text)", output)
			}
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&langPath, "lang", "", "language definition file")
	cmd.Flags().StringVar(&builtin, "builtin", "statemachine", "builtin language used when --lang is not given")
	cmd.Flags().IntVar(&offset, "offset", -1, "byte offset of the caret")
	cmd.Flags().StringVar(&output, "format", "text", "output format: json or text")

	return cmd
}
