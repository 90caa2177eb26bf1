package main

import (
	"fmt"
	"io"

	"literature-manager/internal/dedupe"
	"literature-manager/internal/domain"

	"github.com/spf13/cobra"
)

// duplicateAuthor is the yaml friendly view of an author in a group.
type duplicateAuthor struct {
	ID        uint64 `json:"id" yaml:"id"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
}

type duplicateGroup struct {
	Authors []duplicateAuthor `json:"authors" yaml:"authors"`
	Pairs   [][2]uint64       `json:"pairs" yaml:"pairs"`
}

func newDuplicatesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "List groups of authors that are probably the same person",
		Long: `List groups of authors whose first and last names match closely.

Examples:
  litctl duplicates
  litctl duplicates --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := application.Authors.FindDuplicates(cmd.Context())
			if err != nil {
				return err
			}
			view := duplicateView(groups)
			return writeOutput(cmd.OutOrStdout(), format, view, func(w io.Writer) error {
				return printDuplicates(w, view)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", FormatText, "output format: text, json or yaml")
	return needsStorage(cmd)
}

func duplicateView(groups []dedupe.Group) []duplicateGroup {
	out := make([]duplicateGroup, 0, len(groups))
	for _, g := range groups {
		dg := duplicateGroup{
			Authors: make([]duplicateAuthor, 0, len(g.Authors)),
			Pairs:   make([][2]uint64, 0, len(g.Pairs)),
		}
		for _, a := range g.Authors {
			dg.Authors = append(dg.Authors, toDuplicateAuthor(a))
		}
		for _, p := range g.Pairs {
			dg.Pairs = append(dg.Pairs, [2]uint64{p.First.ID, p.Second.ID})
		}
		out = append(out, dg)
	}
	return out
}

func toDuplicateAuthor(a domain.Author) duplicateAuthor {
	return duplicateAuthor{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName}
}

func printDuplicates(w io.Writer, groups []duplicateGroup) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "No duplicates found.")
		return err
	}
	for i, g := range groups {
		fmt.Fprintf(w, "Group %d:\n", i+1)
		for _, a := range g.Authors {
			fmt.Fprintf(w, "  [%d] %s, %s\n", a.ID, a.LastName, a.FirstName)
		}
	}
	return nil
}
