package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davinirjr/pygit2/pkg/repo"
)

func newLsTreeCmd() *cobra.Command {
	var repoDir string
	var nameOnly bool

	cmd := &cobra.Command{
		Use:   "ls-tree <tree-ish>",
		Short: "List the entries of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(repoDir)
			if err != nil {
				return err
			}
			defer r.Close()

			tree, err := resolveTree(r, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range tree.Entries() {
				if nameOnly {
					fmt.Fprintln(out, e.Name())
					continue
				}
				fmt.Fprintf(out, "%06o %s %s\t%s\n", e.Attributes(), entryTypeName(e.Attributes()), e.ID(), e.Name())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "list only entry names")

	return cmd
}
