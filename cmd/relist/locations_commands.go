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

func newLocationsCommand(ctx *commandContext) *cobra.Command {
	locationsCmd := &cobra.Command{
		Use:   "locations",
		Short: "Manage store locations",
	}

	locationsCmd.AddCommand(newLocationsListCommand(ctx))
	locationsCmd.AddCommand(newLocationsAddCommand(ctx))
	locationsCmd.AddCommand(newLocationsUpdateCommand(ctx))

	return locationsCmd
}

func newLocationsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List store locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				locations, err := store.ListLocations(cmd.Context())
				if err != nil {
					return err
				}
				if len(locations) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No locations found")
					return nil
				}

				rows := make([][]string, 0, len(locations))
				for _, loc := range locations {
					rows = append(rows, []string{
						strconv.FormatInt(loc.ID, 10),
						loc.Code,
						loc.Name,
						loc.Timezone,
						yesNo(loc.IsActive),
					})
				}
				out := renderTable(
					[]string{"ID", "Code", "Name", "Timezone", "Active"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newLocationsAddCommand(ctx *commandContext) *cobra.Command {
	var name, code, address, timezone string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a store location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" || strings.TrimSpace(code) == "" {
				return errors.New("--name and --code are required")
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				loc, err := store.NewLocation(cmd.Context(), &catalog.Location{
					Name:     strings.TrimSpace(name),
					Code:     strings.ToUpper(strings.TrimSpace(code)),
					Address:  strings.TrimSpace(address),
					Timezone: strings.TrimSpace(timezone),
					IsActive: true,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created location %d (%s)\n", loc.ID, loc.Code)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Location name")
	cmd.Flags().StringVar(&code, "code", "", "Short location code")
	cmd.Flags().StringVar(&address, "address", "", "Street address")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone (defaults to UTC)")
	return cmd
}

func newLocationsUpdateCommand(ctx *commandContext) *cobra.Command {
	var active bool
	var serverURL, address string

	cmd := &cobra.Command{
		Use:   "update <code>",
		Short: "Update a location's mutable settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.ToUpper(strings.TrimSpace(args[0]))
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				loc, err := store.GetLocationByCode(cmd.Context(), code)
				if err != nil {
					return err
				}
				if loc == nil {
					return fmt.Errorf("location %q not found", code)
				}

				flags := cmd.Flags()
				isActive := loc.IsActive
				if flags.Changed("active") {
					isActive = active
				}
				url := loc.ServerURL
				if flags.Changed("server-url") {
					url = strings.TrimSpace(serverURL)
				}
				addr := loc.Address
				if flags.Changed("address") {
					addr = strings.TrimSpace(address)
				}

				if err := store.UpdateLocationSettings(cmd.Context(), loc.ID, isActive, url, addr); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated location %s\n", loc.Code)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&active, "active", true, "Whether the location accepts new items")
	cmd.Flags().StringVar(&serverURL, "server-url", "", "Location server URL")
	cmd.Flags().StringVar(&address, "address", "", "Street address")
	return cmd
}
