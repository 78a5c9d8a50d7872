package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"relist/internal/catalog"
	"relist/internal/claims"
	"relist/internal/config"
)

func newClaimCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newClaimCommand(ctx),
		newReleaseCommand(ctx),
		newClaimsListCommand(ctx),
	}
}

func newClaimCommand(ctx *commandContext) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "claim <item-id>",
		Short: "Claim an item for exclusive editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withClaims(func(cfg *config.Config, store *catalog.Store, mgr *claims.Manager) error {
				claim, err := mgr.Claim(cmd.Context(), id, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %d claimed by user %d\n", claim.ItemID, claim.UserID)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Claiming user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "release <item-id>",
		Short: "Release a claim on an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withClaims(func(cfg *config.Config, store *catalog.Store, mgr *claims.Manager) error {
				if err := mgr.Release(cmd.Context(), id, userID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %d released\n", id)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Releasing user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newClaimsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "claims",
		Short: "List active claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClaims(func(cfg *config.Config, store *catalog.Store, mgr *claims.Manager) error {
				active, err := mgr.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(active) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No active claims")
					return nil
				}
				rows := make([][]string, 0, len(active))
				for _, claim := range active {
					rows = append(rows, []string{
						strconv.FormatInt(claim.ItemID, 10),
						strconv.FormatInt(claim.UserID, 10),
						claim.ClaimedAt.Format("2006-01-02 15:04:05"),
					})
				}
				out := renderTable(
					[]string{"Item", "User", "Claimed At"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}
