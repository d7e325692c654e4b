package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/davinirjr/pygit2/pkg/object"
	"github.com/davinirjr/pygit2/pkg/repo"
)

func newLogCmd() *cobra.Command {
	var repoDir string
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show commit history along the first-parent chain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(repoDir)
			if err != nil {
				return err
			}
			defer r.Close()

			rev := "HEAD"
			if len(args) == 1 {
				rev = args[0]
			}

			startID, err := resolveRevision(r, rev)
			if err != nil {
				// An unborn HEAD has no commits yet; anything else is real.
				if len(args) == 0 && errors.Is(err, fs.ErrNotExist) {
					fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
					return nil
				}
				return fmt.Errorf("cannot resolve %s: %w", rev, err)
			}

			c, err := peelToCommit(r, startID)
			if err != nil {
				return err
			}

			var headID object.Oid
			if id, err := r.ResolveRef("HEAD"); err == nil {
				headID = id
			}
			branchName := ""
			if head, err := r.Head(); err == nil && strings.HasPrefix(head, "refs/heads/") {
				branchName = strings.TrimPrefix(head, "refs/heads/")
			}

			out := cmd.OutOrStdout()
			for printed := 0; limit <= 0 || printed < limit; printed++ {
				id, _ := c.ID()
				decoration := buildDecoration(id, headID, branchName)

				if oneline {
					if decoration != "" {
						fmt.Fprintf(out, "%s %s %s\n", shortHex(id), decoration, c.ShortMessage())
					} else {
						fmt.Fprintf(out, "%s %s\n", shortHex(id), c.ShortMessage())
					}
				} else {
					if decoration != "" {
						fmt.Fprintf(out, "commit %s %s\n", id, decoration)
					} else {
						fmt.Fprintf(out, "commit %s\n", id)
					}
					a := c.Author()
					fmt.Fprintf(out, "Author: %s <%s>\n", a.Name, a.Email)
					fmt.Fprintf(out, "Date:   %s\n", time.Unix(c.CommitTime(), 0).Format("2006-01-02 15:04:05"))
					fmt.Fprintln(out)
					for _, line := range strings.Split(strings.TrimRight(c.Message(), "\n"), "\n") {
						fmt.Fprintf(out, "    %s\n", line)
					}
					fmt.Fprintln(out)
				}

				parents := c.ParentIDs()
				if len(parents) == 0 {
					break
				}
				c, err = r.LookupCommit(parents[0].String())
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show")

	return cmd
}

// peelToCommit follows annotated tags until it reaches a commit.
func peelToCommit(r *repo.Repository, id object.Oid) (*repo.Commit, error) {
	for {
		obj, err := r.Lookup(id.String())
		if err != nil {
			return nil, err
		}
		if c, ok := obj.(*repo.Commit); ok {
			return c, nil
		}
		if obj.Type() != object.TypeTag {
			return nil, fmt.Errorf("%s is a %s, not a commit", id, obj.Type())
		}
		payload, err := obj.ReadRaw()
		if err != nil {
			return nil, err
		}
		first := string(payload)
		if idx := strings.IndexByte(first, '\n'); idx >= 0 {
			first = first[:idx]
		}
		if !strings.HasPrefix(first, "object ") {
			return nil, fmt.Errorf("tag %s: malformed payload", id)
		}
		next, err := object.ParseOid(strings.TrimPrefix(first, "object "))
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", id, err)
		}
		id = next
	}
}

// buildDecoration returns a string like "(HEAD -> main)" if the commit is
// the current HEAD, or "" otherwise.
func buildDecoration(commitID, headID object.Oid, branchName string) string {
	if headID.IsZero() || commitID != headID {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}
