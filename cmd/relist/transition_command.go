package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/workflow"
)

func newTransitionCommand(ctx *commandContext) *cobra.Command {
	var actorID int64
	var notes string
	var changes []string

	cmd := &cobra.Command{
		Use:   "transition <item-id> <target-stage>",
		Short: "Move an item to a new stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			target, err := catalog.ParseStage(args[1])
			if err != nil {
				return err
			}
			changeMap, err := parseChanges(changes)
			if err != nil {
				return err
			}

			return ctx.withEngine(func(cfg *config.Config, store *catalog.Store, engine *workflow.Engine) error {
				item, action, err := engine.Transition(cmd.Context(), workflow.TransitionRequest{
					ItemID:  id,
					ActorID: actorID,
					Target:  target,
					Notes:   notes,
					Changes: changeMap,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %d moved %s -> %s (action %d)\n",
					item.ID, action.FromStage, action.ToStage, action.ID)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&actorID, "actor", 0, "Acting user ID")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes recorded on the audit entry")
	cmd.Flags().StringSliceVar(&changes, "set", nil, "Field change to record, key=value (repeatable)")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func parseChanges(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid change %q, expected key=value", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}
