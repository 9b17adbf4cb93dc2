package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/persistorai/wdtree/internal/service"
)

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query ROOT",
		Short: "Print the traversal query for a root without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp := service.NewExplorer(service.FromClient(apiClient), explorerOptions(cfg), logger)

			q, err := exp.Query(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}

			if flagFmt == "json" {
				formatJSON(map[string]any{"query": q.Text, "columns": q.Columns})
				return nil
			}

			fmt.Println(q.Text)
			return nil
		},
	}
}
