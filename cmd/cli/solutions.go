package main

import (
	"fmt"
	"strings"

	"github.com/myrjola/mysteries/internal/errors"
	"github.com/spf13/cobra"
)

var solutionGroup = &cobra.Group{
	ID:    "solution",
	Title: "Solution operations",
}

func (c *cli) solutionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "solution",
		GroupID: solutionGroup.ID,
		Short:   "Reveal or correct the culprit of a case",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print the culprit of a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCaseID(args[0])
			if err != nil {
				return err
			}
			culprit, err := c.cases.Solution(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), culprit)
			return nil
		},
	}, &cobra.Command{
		Use:   "set <id> <name>",
		Short: "Replace the culprit of a case",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd // id and at least one name part
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCaseID(args[0])
			if err != nil {
				return err
			}
			culprit := strings.TrimSpace(strings.Join(args[1:], " "))
			if culprit == "" {
				return errors.New("culprit name must not be empty")
			}
			if err = c.cases.SetSolution(cmd.Context(), id, culprit); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Real killer for case %d set to %q.\n", id, culprit)
			return nil
		},
	})
	return cmd
}
