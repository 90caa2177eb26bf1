package main

import (
	"fmt"

	"literature-manager/internal/biblatex"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		projectID uint64
		opts      biblatex.Options
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the BibLaTeX entries of a project",
		Long: `Print the BibLaTeX entries of every publication in a project.

Examples:
  litctl export --project 3
  litctl export --project 3 --short-names --short-journal > refs.bib`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := application.Projects.Export(cmd.Context(), projectID, opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().Uint64Var(&projectID, "project", 0, "project id")
	cmd.Flags().BoolVar(&opts.ShortFirstNames, "short-names", false, "abbreviate first names")
	cmd.Flags().BoolVar(&opts.ShortJournalNames, "short-journal", false, "use journal short names")
	cmd.MarkFlagRequired("project")
	return needsStorage(cmd)
}
