package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"relist/internal/api"
	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history <item-id>",
		Short: "Show an item's workflow history, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withHistory(func(cfg *config.Config, store *catalog.Store, reader *history.Reader) error {
				actions, err := reader.History(cmd.Context(), id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.HistoryResponse{Actions: api.FromActions(actions)})
				}
				if len(actions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No history recorded")
					return nil
				}

				rows := make([][]string, 0, len(actions))
				for _, action := range actions {
					rows = append(rows, []string{
						strconv.FormatInt(action.ID, 10),
						action.CreatedAt.Format("2006-01-02 15:04:05"),
						strconv.FormatInt(action.UserID, 10),
						string(action.FromStage),
						string(action.ToStage),
						action.Action,
						action.Notes,
					})
				}
				out := renderTable(
					[]string{"ID", "When", "User", "From", "To", "Action", "Notes"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newAuditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Verify workflow history continuity for all items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(cfg *config.Config, store *catalog.Store, reader *history.Reader) error {
				broken, err := reader.Audit(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(broken) == 0 {
					fmt.Fprintln(out, "All item histories are continuous")
					return nil
				}
				for _, cerr := range broken {
					fmt.Fprintln(out, cerr.Error())
				}
				return fmt.Errorf("%d item(s) have broken history chains", len(broken))
			})
		},
	}
}
