package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/davinirjr/pygit2/pkg/object"
	"github.com/davinirjr/pygit2/pkg/repo"
)

func newCommitTreeCmd() *cobra.Command {
	var repoDir, message, authorName, authorEmail, signKey, updateRef string
	var parents []string

	cmd := &cobra.Command{
		Use:   "commit-tree <tree>",
		Short: "Create a commit object from an existing tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := repo.Open(repoDir)
			if err != nil {
				return err
			}
			defer r.Close()

			treeID, err := object.ParseOid(args[0])
			if err != nil {
				return err
			}
			if _, err := r.LookupTree(treeID.String()); err != nil {
				return err
			}

			sig := buildIdentity(r, authorName, authorEmail)

			c, err := repo.NewCommit(r)
			if err != nil {
				return err
			}
			c.SetTree(treeID)
			c.SetAuthor(sig)
			c.SetCommitter(sig)
			c.SetMessage(message + "\n")
			for _, p := range parents {
				pid, err := resolveRevision(r, p)
				if err != nil {
					return fmt.Errorf("parent %q: %w", p, err)
				}
				if _, err := r.LookupCommit(pid.String()); err != nil {
					return fmt.Errorf("parent %q: %w", p, err)
				}
				c.AddParent(pid)
			}

			if signKey != "" {
				signer, keyDesc, err := newSSHCommitSigner(signKey)
				if err != nil {
					return err
				}
				if err := c.Sign(signer); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "signing with %s\n", keyDesc)
			}

			id, err := c.Write()
			if err != nil {
				return err
			}
			if updateRef != "" {
				if err := r.UpdateRef(updateRef, id); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent commit (repeatable)")
	cmd.Flags().StringVar(&authorName, "author", "", "override author name (default: config, then $USER)")
	cmd.Flags().StringVar(&authorEmail, "email", "", "override author email (default: config)")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "SSH private key to sign the commit with")
	cmd.Flags().StringVar(&updateRef, "update-ref", "", "point the given ref at the new commit")

	return cmd
}

// buildIdentity assembles the author signature from overrides, repository
// config, and environment, in that order.
func buildIdentity(r *repo.Repository, name, email string) object.Signature {
	cfg := r.Config()
	if name == "" {
		name = cfg.User.Name
	}
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "unknown"
	}
	if email == "" {
		email = cfg.User.Email
	}
	if email == "" {
		email = name + "@localhost"
	}
	return object.Signature{Name: name, Email: email, When: time.Now().Unix()}
}
