package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davinirjr/pygit2/pkg/object"
	"github.com/davinirjr/pygit2/pkg/repo"
)

func newCatFileCmd() *cobra.Command {
	var repoDir string
	var showType, showSize, pretty bool

	cmd := &cobra.Command{
		Use:   "cat-file <object>",
		Short: "Show object type, size, or contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			picked := 0
			for _, on := range []bool{showType, showSize, pretty} {
				if on {
					picked++
				}
			}
			if picked != 1 {
				return fmt.Errorf("exactly one of -t, -s or -p is required")
			}

			r, err := repo.Open(repoDir)
			if err != nil {
				return err
			}
			defer r.Close()

			id, err := resolveRevision(r, args[0])
			if err != nil {
				return err
			}
			t, payload, err := r.ReadRaw(id.String())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, t)
			case showSize:
				fmt.Fprintln(out, len(payload))
			case t == object.TypeTree:
				tree, err := r.LookupTree(id.String())
				if err != nil {
					return err
				}
				for _, e := range tree.Entries() {
					fmt.Fprintf(out, "%06o %s %s\t%s\n", e.Attributes(), entryTypeName(e.Attributes()), e.ID(), e.Name())
				}
			default:
				// Blob, commit and tag payloads print verbatim.
				if _, err := out.Write(payload); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "show the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "show the payload size in bytes")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object contents")

	return cmd
}
