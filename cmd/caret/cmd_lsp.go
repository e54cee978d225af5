package main

import (
	"os"
	"path/filepath"

	"github.com/dhamidi/caret/lsp"
	"github.com/spf13/cobra"
)

func newLSPCmd() *cobra.Command {
	var (
		langPaths []string
		builtin   string
	)

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the Language Server Protocol server on stdio.

Language definitions come from --lang flags and from the CARET_LANGUAGES
environment variable, a list of files separated like PATH.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := langPaths
			if env := os.Getenv("CARET_LANGUAGES"); env != "" {
				paths = append(paths, filepath.SplitList(env)...)
			}
			langs, err := loadLanguages(paths, builtin)
			if err != nil {
				return err
			}
			server := lsp.NewServer(version, langs...)
			return server.RunStdio()
		},
	}

	cmd.Flags().StringArrayVar(&langPaths, "lang", nil, "language definition file (repeatable)")
	cmd.Flags().StringVar(&builtin, "builtin", "statemachine", "builtin language used when no definition is given")

	return cmd
}
