package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davinirjr/pygit2/pkg/repo"
)

func newVerifyCmd() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify loose and packed object integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(repoDir)
			if err != nil {
				return err
			}
			defer r.Close()

			report, err := r.Verify()
			if err != nil {
				return err
			}

			fmt.Fprintf(
				cmd.OutOrStdout(),
				"ok: verified %d loose object(s), %d pack file(s), %d packed object(s)\n",
				report.LooseObjects,
				report.PackFiles,
				report.PackObjects,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")

	return cmd
}
