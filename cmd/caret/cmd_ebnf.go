package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/dhamidi/caret/atn"
	"github.com/dhamidi/caret/grammar"
	"github.com/spf13/cobra"
	"golang.org/x/exp/ebnf"
)

func newEbnfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ebnf",
		Short:         "EBNF grammar tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newEbnfCheckCmd())
	cmd.AddCommand(newEbnfATNCmd())

	return cmd
}

func newEbnfCheckCmd() *cobra.Command {
	var (
		startProduction string
		skip            []string
	)

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Parse and verify an EBNF grammar file",
		Long: `Parse and verify an EBNF grammar file.

With --start the grammar is also compiled, which checks the naming
conventions: ALL-CAPS productions are tokens, capitalized ones are
parser rules, and lowercase ones are lexer fragments.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]

			f, err := os.Open(filename)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			source, err := ebnf.Parse(filename, f)
			if err != nil {
				printErrors(cmd.ErrOrStderr(), err)
				return fmt.Errorf("%s: invalid grammar", filename)
			}
			if startProduction == "" {
				return nil
			}

			if _, err := grammar.Load(filename, startProduction, skip...); err != nil {
				if cause := errors.Unwrap(err); cause != nil && reflect.ValueOf(cause).Kind() == reflect.Slice {
					printErrors(cmd.ErrOrStderr(), cause)
					return fmt.Errorf("%s: invalid grammar", filename)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d productions, %d parser rules, %d tokens\n",
				filename, len(source),
				len(productionsOf(source, grammar.ParserRule)),
				len(productionsOf(source, grammar.Token)))
			return nil
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production for verification (if empty, only checks syntax)")
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "tokens to skip between parser symbols")

	return cmd
}

func newEbnfATNCmd() *cobra.Command {
	var (
		startProduction string
		skip            []string
	)

	cmd := &cobra.Command{
		Use:           "atn <file>",
		Short:         "Print the augmented transition network of an EBNF grammar",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := grammar.Load(args[0], startProduction, skip...)
			if err != nil {
				return err
			}
			return atn.Dump(cmd.OutOrStdout(), g.ATN, g.Vocabulary)
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production")
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "tokens to skip between parser symbols")
	cmd.MarkFlagRequired("start")

	return cmd
}

func productionsOf(source ebnf.Grammar, k grammar.Kind) []string {
	var names []string
	for name := range source {
		if grammar.KindOf(name) == k {
			names = append(names, name)
		}
	}
	return names
}

// printErrors prints each error of an error list on its own line.
func printErrors(w io.Writer, err error) {
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(w, v.Index(i).Interface())
		}
		return
	}
	fmt.Fprintln(w, strings.TrimSpace(err.Error()))
}
