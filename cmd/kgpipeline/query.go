package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query QUESTION",
		Short: "Query the knowledge graph with a natural language question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			question := strings.Join(args, " ")
			fmt.Fprintf(out, "Query: %s\n\n", question)

			a, err := buildApp(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.orchestrator.Answer(cmd.Context(), question)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Answer:\n%s\n", res.Answer)
			if len(res.Sources) > 0 {
				fmt.Fprintf(out, "\nSources: %s\n", strings.Join(res.Sources, ", "))
			}
			return nil
		},
	}
}
