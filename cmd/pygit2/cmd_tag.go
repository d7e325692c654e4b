package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davinirjr/pygit2/pkg/object"
	"github.com/davinirjr/pygit2/pkg/repo"
)

func newTagCmd() *cobra.Command {
	var repoDir, deleteTag, message string
	var annotate, force, showHash bool

	cmd := &cobra.Command{
		Use:   "tag [name] [target]",
		Short: "List, create, or delete tags",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(repoDir)
			if err != nil {
				return err
			}
			defer r.Close()

			if strings.TrimSpace(deleteTag) != "" {
				if len(args) > 0 {
					return fmt.Errorf("tag --delete does not accept positional args")
				}
				return r.DeleteTag(deleteTag)
			}

			if len(args) == 0 {
				names, err := r.ListTags()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, name := range names {
					if showHash {
						id, err := r.ResolveTag(name)
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "%s %s\n", id, name)
					} else {
						fmt.Fprintln(out, name)
					}
				}
				return nil
			}

			name := args[0]
			var target object.Oid
			if len(args) == 2 {
				target, err = resolveRevision(r, strings.TrimSpace(args[1]))
			} else {
				target, err = r.ResolveRef("HEAD")
			}
			if err != nil {
				return fmt.Errorf("resolve tag target: %w", err)
			}

			if annotate {
				tagger := buildIdentity(r, "", "")
				id, err := r.CreateAnnotatedTag(name, target, tagger, message, force)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			}
			return r.CreateTag(name, target, force)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVarP(&deleteTag, "delete", "d", "", "delete the named tag")
	cmd.Flags().BoolVarP(&annotate, "annotate", "a", false, "create an annotated tag object")
	cmd.Flags().StringVarP(&message, "message", "m", "", "annotated tag message")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing tag")
	cmd.Flags().BoolVar(&showHash, "show-hash", false, "show tag targets when listing")

	return cmd
}
