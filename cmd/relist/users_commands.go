package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/identity"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage operator accounts",
	}

	usersCmd.AddCommand(newUsersListCommand(ctx))
	usersCmd.AddCommand(newUsersAddCommand(ctx))

	return usersCmd
}

func newUsersListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List operator accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				users, err := store.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No users found")
					return nil
				}

				rows := make([][]string, 0, len(users))
				for _, user := range users {
					location := "-"
					if user.LocationID != nil {
						location = strconv.FormatInt(*user.LocationID, 10)
					}
					current := "-"
					if user.CurrentItemID != nil {
						current = strconv.FormatInt(*user.CurrentItemID, 10)
					}
					rows = append(rows, []string{
						strconv.FormatInt(user.ID, 10),
						user.Email,
						user.Name,
						string(user.Role),
						location,
						yesNo(user.IsOnline),
						current,
					})
				}
				out := renderTable(
					[]string{"ID", "Email", "Name", "Role", "Location", "Online", "Working On"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
				)
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newUsersAddCommand(ctx *commandContext) *cobra.Command {
	var email, name, role, password string
	var locationID int64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an operator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
				return errors.New("--email and --password are required")
			}
			parsedRole, err := catalog.ParseRole(role)
			if err != nil {
				return err
			}
			return ctx.withIdentity(func(cfg *config.Config, store *catalog.Store, svc *identity.Service) error {
				user := &catalog.User{
					Email: strings.TrimSpace(email),
					Name:  strings.TrimSpace(name),
					Role:  parsedRole,
				}
				if locationID > 0 {
					user.LocationID = &locationID
				}
				created, err := svc.Register(cmd.Context(), user, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s, %s)\n", created.ID, created.Email, created.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", "", "Role (photographer, processor, pricer, publisher, manager, admin)")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().Int64Var(&locationID, "location", 0, "Home location ID")
	return cmd
}
