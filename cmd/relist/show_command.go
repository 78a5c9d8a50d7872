package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"relist/internal/api"
	"relist/internal/catalog"
	"relist/internal/config"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show details for one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				svc := api.NewCatalogService(store)
				item, err := svc.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("item %d not found", id)
				}
				if jsonOut {
					return writeJSON(cmd, api.ItemResponse{Item: *item})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Item %d (%s)\n", item.ID, item.SKU)
				fmt.Fprintf(out, "  Title:       %s\n", item.Title)
				fmt.Fprintf(out, "  Stage:       %s\n", item.Stage)
				fmt.Fprintf(out, "  Status:      %s\n", item.Status)
				fmt.Fprintf(out, "  Location:    %d\n", item.LocationID)
				fmt.Fprintf(out, "  Photos:      %d\n", item.PhotoCount)
				if item.ClaimedBy != nil {
					fmt.Fprintf(out, "  Claimed by:  user %d\n", *item.ClaimedBy)
				}
				if item.Category != "" {
					fmt.Fprintf(out, "  Category:    %s\n", item.Category)
				}
				if item.Condition != "" {
					fmt.Fprintf(out, "  Condition:   %s\n", item.Condition)
				}
				if item.Brand != "" {
					fmt.Fprintf(out, "  Brand:       %s\n", item.Brand)
				}
				if item.StartingPrice != nil {
					fmt.Fprintf(out, "  Start price: %.2f\n", *item.StartingPrice)
				}
				if item.BuyNowPrice != nil {
					fmt.Fprintf(out, "  Buy now:     %.2f\n", *item.BuyNowPrice)
				}
				if item.ShippingCost != nil {
					fmt.Fprintf(out, "  Shipping:    %.2f\n", *item.ShippingCost)
				}
				if item.ExternalListingID != "" {
					fmt.Fprintf(out, "  Listing:     %s\n", item.ExternalListingID)
				}
				if item.PublishedAt != "" {
					fmt.Fprintf(out, "  Published:   %s\n", item.PublishedAt)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
