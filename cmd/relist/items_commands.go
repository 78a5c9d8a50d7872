package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"relist/internal/api"
	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/listing"
)

func newItemsCommand(ctx *commandContext) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "Inspect and manage catalog items",
	}

	itemsCmd.AddCommand(newItemsListCommand(ctx))
	itemsCmd.AddCommand(newItemsAddCommand(ctx))
	itemsCmd.AddCommand(newItemsEditCommand(ctx))
	itemsCmd.AddCommand(newItemsStatusCommand(ctx))

	return itemsCmd
}

func newItemsListCommand(ctx *commandContext) *cobra.Command {
	var stageFilters []string
	var locationID int64
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if locationID > 0 && len(stageFilters) > 0 {
				return errors.New("--stage and --location cannot be combined")
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				var stages []catalog.Stage
				for _, raw := range stageFilters {
					stage, err := catalog.ParseStage(strings.TrimSpace(raw))
					if err != nil {
						return err
					}
					stages = append(stages, stage)
				}

				var items []*catalog.Item
				var err error
				if locationID > 0 {
					items, err = store.ItemsByLocation(cmd.Context(), locationID)
				} else {
					items, err = store.ListItems(cmd.Context(), stages...)
				}
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.ItemListResponse{Items: api.FromItems(items)})
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No items found")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						item.SKU,
						item.Title,
						string(item.Stage),
						string(item.Status),
						formatPrice(item.StartingPrice),
					})
				}
				out := renderTable(
					[]string{"ID", "SKU", "Title", "Stage", "Status", "Start Price"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				)
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&stageFilters, "stage", nil, "Filter by stage (repeatable)")
	cmd.Flags().Int64Var(&locationID, "location", 0, "Filter by location ID")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newItemsAddCommand(ctx *commandContext) *cobra.Command {
	var sku string
	var title string
	var locationID int64
	var createdBy int64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new item at the photo upload stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return errors.New("--title is required")
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				item, err := store.NewItem(cmd.Context(), &catalog.Item{
					SKU:        listing.SanitizeSKU(sku),
					Title:      listing.CollapseWhitespace(title),
					LocationID: locationID,
					CreatedBy:  createdBy,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created item %d (%s) at stage %s\n", item.ID, item.SKU, item.Stage)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sku, "sku", "", "Stock keeping unit")
	cmd.Flags().StringVar(&title, "title", "", "Item title")
	cmd.Flags().Int64Var(&locationID, "location", 0, "Location ID")
	cmd.Flags().Int64Var(&createdBy, "user", 0, "Creating user ID")
	return cmd
}

func newItemsEditCommand(ctx *commandContext) *cobra.Command {
	var (
		sku, title, description, category, condition, brand string
		startingPrice, buyNowPrice, shippingCost            float64
		accountID                                           int64
	)

	cmd := &cobra.Command{
		Use:   "edit <item-id>",
		Short: "Edit an item's listing and pricing fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				item, err := store.GetItem(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("item %d not found", id)
				}

				flags := cmd.Flags()
				if flags.Changed("sku") {
					item.SKU = listing.SanitizeSKU(sku)
				}
				if flags.Changed("title") {
					item.Title = listing.CollapseWhitespace(title)
				}
				if flags.Changed("description") {
					item.Description = strings.TrimSpace(description)
				}
				if flags.Changed("category") {
					item.Category = strings.TrimSpace(category)
				}
				if flags.Changed("condition") {
					item.Condition = strings.TrimSpace(condition)
				}
				if flags.Changed("brand") {
					item.Brand = strings.TrimSpace(brand)
				}
				if flags.Changed("account") {
					item.MarketplaceAccountID = &accountID
				}

				// Pricing fields open up once the item reaches the pricing
				// stage; earlier edits would bypass the review flow.
				priceEdit := flags.Changed("starting-price") ||
					flags.Changed("buy-now-price") ||
					flags.Changed("shipping-cost")
				if priceEdit && !pricingOpen(item.Stage) {
					return fmt.Errorf("item %d is at stage %s; pricing fields can be set once it reaches %s",
						id, item.Stage, catalog.StagePricing)
				}
				if flags.Changed("starting-price") {
					value := startingPrice
					item.StartingPrice = &value
				}
				if flags.Changed("buy-now-price") {
					value := buyNowPrice
					item.BuyNowPrice = &value
				}
				if flags.Changed("shipping-cost") {
					value := shippingCost
					item.ShippingCost = &value
				}

				if err := store.UpdateItemFields(cmd.Context(), item); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated item %d\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sku, "sku", "", "Stock keeping unit")
	cmd.Flags().StringVar(&title, "title", "", "Item title")
	cmd.Flags().StringVar(&description, "description", "", "Listing description")
	cmd.Flags().StringVar(&category, "category", "", "Listing category")
	cmd.Flags().StringVar(&condition, "condition", "", "Item condition")
	cmd.Flags().StringVar(&brand, "brand", "", "Item brand")
	cmd.Flags().Float64Var(&startingPrice, "starting-price", 0, "Auction starting price")
	cmd.Flags().Float64Var(&buyNowPrice, "buy-now-price", 0, "Buy-now price")
	cmd.Flags().Float64Var(&shippingCost, "shipping-cost", 0, "Shipping cost")
	cmd.Flags().Int64Var(&accountID, "account", 0, "Marketplace account ID")
	return cmd
}

func newItemsStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <item-id> <status>",
		Short: "Set an item's operational status without moving its stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			status, err := catalog.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				item, err := store.GetItem(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("item %d not found", id)
				}
				if err := store.SetItemStatus(cmd.Context(), id, status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %d status set to %s\n", id, status)
				return nil
			})
		},
	}
}

// pricingOpen reports whether the stage permits editing price fields.
func pricingOpen(stage catalog.Stage) bool {
	switch stage {
	case catalog.StagePricing, catalog.StageFinalReview, catalog.StagePublished:
		return true
	}
	return false
}

func formatPrice(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *value)
}
