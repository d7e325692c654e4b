package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davinirjr/pygit2/pkg/repo"
)

func newGcCmd() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Pack reachable loose objects and prune unreachable ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(repoDir)
			if err != nil {
				return err
			}
			defer r.Close()

			summary, err := r.GC()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if summary.PackedObjects == 0 && summary.PrunedObjects == 0 {
				fmt.Fprintln(out, "nothing to pack")
				return nil
			}

			if summary.PackedObjects > 0 {
				fmt.Fprintf(
					out,
					"packed %d loose object(s) into %s (%s)\n",
					summary.PackedObjects,
					summary.PackFile,
					summary.IndexFile,
				)
			}
			pruned := summary.PrunedObjects - summary.PackedObjects
			if pruned > 0 {
				fmt.Fprintf(out, "pruned %d unreachable object(s)\n", pruned)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")

	return cmd
}
