package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davinirjr/pygit2/pkg/repo"
)

func newVerifyCommitCmd() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "verify-commit <revision>",
		Short: "Check the SSH signature on a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(repoDir)
			if err != nil {
				return err
			}
			defer r.Close()

			id, err := resolveRevision(r, args[0])
			if err != nil {
				return err
			}
			c, err := r.LookupCommit(id.String())
			if err != nil {
				return err
			}

			key, err := verifySSHCommitSignature(c)
			if err != nil {
				return fmt.Errorf("commit %s: %w", shortHex(id), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "good signature on %s\n", shortHex(id))
			fmt.Fprintf(out, "signed with %s\n", key)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")

	return cmd
}
