package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/davinirjr/pygit2/pkg/object"
	"github.com/davinirjr/pygit2/pkg/repo"
)

func newHashObjectCmd() *cobra.Command {
	var repoDir, typeName string
	var write, useStdin bool

	cmd := &cobra.Command{
		Use:   "hash-object [file]",
		Short: "Compute an object identifier, optionally storing the object",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := object.ParseType(typeName)
			if err != nil {
				return err
			}

			var data []byte
			switch {
			case useStdin:
				data, err = io.ReadAll(cmd.InOrStdin())
			case len(args) == 1:
				data, err = os.ReadFile(args[0])
			default:
				return fmt.Errorf("need a file argument or --stdin")
			}
			if err != nil {
				return err
			}

			id := object.HashObject(t, data)
			if write {
				r, err := repo.Open(repoDir)
				if err != nil {
					return err
				}
				defer r.Close()
				if id, err = r.Odb().Write(t, data); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().StringVarP(&typeName, "type", "t", "blob", "object type to hash as")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "store the object in the repository")
	cmd.Flags().BoolVar(&useStdin, "stdin", false, "read the payload from standard input")

	return cmd
}
