package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/photos"
)

func newPhotosCommand(ctx *commandContext) *cobra.Command {
	photosCmd := &cobra.Command{
		Use:   "photos",
		Short: "Manage item photos",
	}

	photosCmd.AddCommand(newPhotosAddCommand(ctx))
	photosCmd.AddCommand(newPhotosListCommand(ctx))
	photosCmd.AddCommand(newPhotosPrimaryCommand(ctx))
	photosCmd.AddCommand(newPhotosProcessedCommand(ctx))

	return photosCmd
}

func newPhotosAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <item-id> <file>",
		Short: "Import a photo file for an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				importer := photos.NewImporter(cfg, store, cliLogger())
				photo, err := importer.Import(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported photo %d for item %d\n", photo.ID, id)
				return nil
			})
		},
	}
}

func newPhotosListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <item-id>",
		Short: "List photos recorded for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				entries, err := store.PhotosByItem(cmd.Context(), id)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No photos found")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, photo := range entries {
					processed := "no"
					if photo.ProcessedAt != nil {
						processed = photo.ProcessedAt.Format("2006-01-02 15:04:05")
					}
					rows = append(rows, []string{
						strconv.FormatInt(photo.ID, 10),
						strconv.Itoa(photo.DisplayOrder),
						yesNo(photo.IsPrimary),
						processed,
						photo.OriginalPath,
					})
				}
				out := renderTable(
					[]string{"ID", "Order", "Primary", "Processed", "Path"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newPhotosPrimaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-primary <item-id> <photo-id>",
		Short: "Mark a photo as the item's primary image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			photoID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid photo id %q", args[1])
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				if err := store.SetPrimaryPhoto(cmd.Context(), itemID, photoID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Photo %d is now primary for item %d\n", photoID, itemID)
				return nil
			})
		},
	}
}

func newPhotosProcessedCommand(ctx *commandContext) *cobra.Command {
	var thumbnail, optimized, analysis string

	cmd := &cobra.Command{
		Use:   "set-processed <photo-id>",
		Short: "Record processing output for a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photoID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid photo id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				if err := store.MarkPhotoProcessed(cmd.Context(), photoID, thumbnail, optimized, analysis); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Photo %d marked processed\n", photoID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&thumbnail, "thumbnail", "", "Thumbnail file path")
	cmd.Flags().StringVar(&optimized, "optimized", "", "Optimized file path")
	cmd.Flags().StringVar(&analysis, "analysis", "", "Analysis result JSON")
	return cmd
}
