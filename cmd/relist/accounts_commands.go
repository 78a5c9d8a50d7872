package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"relist/internal/catalog"
	"relist/internal/config"
)

func newAccountsCommand(ctx *commandContext) *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage marketplace accounts",
	}

	accountsCmd.AddCommand(newAccountsListCommand(ctx))
	accountsCmd.AddCommand(newAccountsAddCommand(ctx))
	accountsCmd.AddCommand(newAccountsRotateCommand(ctx))

	return accountsCmd
}

func newAccountsListCommand(ctx *commandContext) *cobra.Command {
	var locationID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List marketplace accounts for a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if locationID <= 0 {
				return errors.New("--location is required")
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				accounts, err := store.MarketplaceAccountsByLocation(cmd.Context(), locationID)
				if err != nil {
					return err
				}
				if len(accounts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No accounts found")
					return nil
				}

				rows := make([][]string, 0, len(accounts))
				for _, account := range accounts {
					lastSync := "-"
					if account.LastSyncAt != nil {
						lastSync = account.LastSyncAt.Format("2006-01-02 15:04:05")
					}
					rows = append(rows, []string{
						strconv.FormatInt(account.ID, 10),
						account.Label,
						yesNo(account.Sandbox),
						lastSync,
					})
				}
				out := renderTable(
					[]string{"ID", "Label", "Sandbox", "Last Sync"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&locationID, "location", 0, "Location ID")
	return cmd
}

func newAccountsAddCommand(ctx *commandContext) *cobra.Command {
	var locationID int64
	var label, authToken, refreshToken string
	var sandbox bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a marketplace account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if locationID <= 0 {
				return errors.New("--location is required")
			}
			if strings.TrimSpace(label) == "" {
				return errors.New("--label is required")
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				account, err := store.NewMarketplaceAccount(cmd.Context(), &catalog.MarketplaceAccount{
					LocationID:   locationID,
					Label:        strings.TrimSpace(label),
					AuthToken:    authToken,
					RefreshToken: refreshToken,
					Sandbox:      sandbox,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created account %d (%s)\n", account.ID, account.Label)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&locationID, "location", 0, "Location ID")
	cmd.Flags().StringVar(&label, "label", "", "Account label")
	cmd.Flags().StringVar(&authToken, "auth-token", "", "Marketplace auth token")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Marketplace refresh token")
	cmd.Flags().BoolVar(&sandbox, "sandbox", false, "Mark the account as sandbox")
	return cmd
}

func newAccountsRotateCommand(ctx *commandContext) *cobra.Command {
	var authToken, refreshToken string

	cmd := &cobra.Command{
		Use:   "rotate <account-id>",
		Short: "Replace a marketplace account's stored credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			flags := cmd.Flags()
			if !flags.Changed("auth-token") && !flags.Changed("refresh-token") {
				return errors.New("provide --auth-token and/or --refresh-token")
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				account, err := store.GetMarketplaceAccount(cmd.Context(), id)
				if err != nil {
					return err
				}
				if account == nil {
					return fmt.Errorf("account %d not found", id)
				}

				auth := account.AuthToken
				if flags.Changed("auth-token") {
					auth = authToken
				}
				refresh := account.RefreshToken
				if flags.Changed("refresh-token") {
					refresh = refreshToken
				}

				if err := store.RotateAccountTokens(cmd.Context(), id, auth, refresh); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rotated credentials for account %d (%s)\n", id, account.Label)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&authToken, "auth-token", "", "New marketplace auth token")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "New marketplace refresh token")
	return cmd
}
