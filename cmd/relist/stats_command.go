package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"relist/internal/catalog"
	"relist/internal/config"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show item counts per pipeline stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}

				stages := catalog.AllStages()
				rows := make([][]string, 0, len(stages)+1)
				total := 0
				for _, stage := range stages {
					count := stats[stage]
					total += count
					rows = append(rows, []string{string(stage), strconv.Itoa(count)})
				}
				rows = append(rows, []string{"total", strconv.Itoa(total)})
				out := renderTable(
					[]string{"Stage", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				)
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}
