package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sudooom.storefront/internal/cart"
)

func cartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Cart items selected for checkout",
	}

	store := func() *cart.SelectionStore {
		return cart.NewSelectionStore(a.redis(), "")
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "select <item-id>...",
			Short: "Select cart items",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return store().Select(cmd.Context(), args...)
			},
		},
		&cobra.Command{
			Use:   "deselect <item-id>...",
			Short: "Deselect cart items",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return store().Deselect(cmd.Context(), args...)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print selected cart items",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := store().List(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(a.out, id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Drop the selection",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return store().Clear(cmd.Context())
			},
		},
	)
	return cmd
}
