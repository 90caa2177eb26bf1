package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRekeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rekey",
		Short: "Regenerate the citation key of every publication",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := application.Publications.RefreshAllKeys(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d citation keys changed\n", changed)
			return nil
		},
	}
	return needsStorage(cmd)
}
