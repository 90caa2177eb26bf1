package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportDOICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-doi DOI",
		Short: "Create a publication from Crossref metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := application.Publications.ImportFromDOI(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported [%d] %s as %s\n", pub.ID, pub, pub.CitationKey)
			return nil
		},
	}
	return needsStorage(cmd)
}
