package main

import (
	"fmt"

	"github.com/fjod/go_storefront/internal/orders"
	"github.com/spf13/cobra"
)

func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order from the current cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireIdentity(ctx); err != nil {
				return a.mapCartError(err)
			}

			identity, _ := a.gate.Current()
			items := a.engine.Items()
			totals := a.engine.DerivedTotals()

			order, err := a.tracker.Place(identity.UserID, items, totals.Total)
			if err != nil {
				if err == orders.ErrNothingToCheckout {
					return fmt.Errorf("cart is empty, nothing to checkout")
				}
				return err
			}
			if err := a.engine.ClearCart(ctx); err != nil {
				return a.mapCartError(err)
			}

			fmt.Printf("Order %s placed: %s\n", order.ID, totals)
			fmt.Printf("Status: %s, estimated delivery %s\n",
				order.Status, order.EstimatedDelivery.Format("2006-01-02"))
			return nil
		},
	}
}
