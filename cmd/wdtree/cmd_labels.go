package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/persistorai/wdtree/internal/label"
)

func newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels ID...",
		Short: "Resolve entity ids to labels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lab := label.New(apiClient.Labels, cfg.Language, cfg.BatchSize)
			if err := lab.Resolve(cmd.Context(), args); err != nil {
				return fmt.Errorf("labels failed: %w", err)
			}

			if flagFmt == "json" {
				out := make(map[string]string, len(args))
				for _, id := range args {
					out[id] = lab.ToHumanReadable(id)
				}
				formatJSON(out)
				return nil
			}

			rows := make([][]string, len(args))
			for i, id := range args {
				rows[i] = []string{id, lab.ToHumanReadable(id)}
			}
			formatTable([]string{"ID", "LABEL"}, rows)
			return nil
		},
	}
}
