package main

import (
	"errors"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fjod/go_storefront/cmd/storefront/ui"
	"github.com/fjod/go_storefront/internal/api"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/spf13/cobra"
)

func newCartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the cart",
	}
	cmd.AddCommand(newCartAddCmd())
	cmd.AddCommand(newCartListCmd())
	cmd.AddCommand(newCartSetCmd())
	cmd.AddCommand(newCartRemoveCmd())
	cmd.AddCommand(newCartClearCmd())
	cmd.AddCommand(newCartSummaryCmd())
	cmd.AddCommand(newCartViewCmd())
	return cmd
}

// mapCartError turns taxonomy errors into the messages the storefront shows.
// A rejected credential also forces the logout the taxonomy demands.
func (a *app) mapCartError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, api.ErrUnauthenticated):
		a.gate.ForceLogout("server rejected credential")
		return fmt.Errorf("authentication required, please log in again")
	case errors.Is(err, api.ErrInsufficientStock):
		return fmt.Errorf("not enough stock available, please try a smaller quantity")
	case errors.Is(err, api.ErrTransport):
		return fmt.Errorf("the store is unreachable right now, please retry: %w", err)
	default:
		return err
	}
}

func newCartAddCmd() *cobra.Command {
	var quantity int

	cmd := &cobra.Command{
		Use:   "add <variation-id>",
		Short: "Add a product variation to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variationID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("variation id must be an integer")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireIdentity(ctx); err != nil {
				return err
			}

			// Snapshot the stock level so the engine can fast-path
			// reject; the server stays authoritative either way.
			stock, err := a.stocks.Get(ctx, variationID)
			if err != nil {
				return a.mapCartError(err)
			}
			variation := domain.Variation{ID: variationID, AvailableStock: stock}
			if err := a.engine.AddItem(ctx, variation, quantity); err != nil {
				return a.mapCartError(err)
			}
			printCart(a.engine.Items(), a.engine.DerivedTotals())
			return nil
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "units to add")
	return cmd
}

func newCartListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
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
			printCart(a.engine.Items(), a.engine.DerivedTotals())
			return nil
		},
	}
}

func newCartSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <cart-item-id> <quantity>",
		Short: "Set a cart line's quantity (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cartItemID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("cart item id must be an integer")
			}
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be an integer")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireIdentity(ctx); err != nil {
				return a.mapCartError(err)
			}
			if err := a.engine.SetQuantity(ctx, cartItemID, quantity); err != nil {
				return a.mapCartError(err)
			}
			printCart(a.engine.Items(), a.engine.DerivedTotals())
			return nil
		},
	}
}

func newCartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <cart-item-id>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cartItemID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("cart item id must be an integer")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireIdentity(ctx); err != nil {
				return a.mapCartError(err)
			}
			if err := a.engine.RemoveItem(ctx, cartItemID); err != nil {
				return a.mapCartError(err)
			}
			printCart(a.engine.Items(), a.engine.DerivedTotals())
			return nil
		},
	}
}

func newCartClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
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
			if err := a.engine.ClearCart(ctx); err != nil {
				return a.mapCartError(err)
			}
			fmt.Println("Cart cleared")
			return nil
		},
	}
}

func newCartSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show server-computed cart totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			summary, err := a.carts.Summary(ctx)
			if err != nil {
				return a.mapCartError(err)
			}
			fmt.Printf("%d item(s), total %s\n", summary.TotalItems, summary.TotalPrice.StringFixed(2))
			return nil
		},
	}
}

func newCartViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Interactive cart view",
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

			model := ui.NewCartModel(a.engine, a.tracker, a.gate)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}
}

func printCart(items []domain.CartItem, totals cart.Totals) {
	if len(items) == 0 {
		fmt.Println("Cart is empty")
		return
	}
	for _, item := range items {
		fmt.Printf("#%d  %s %s/%s  x%d  @ %s = %s\n",
			item.CartItemID, item.ProductName, item.Size, item.Color,
			item.Quantity, item.UnitPrice.StringFixed(2), item.LineTotal.StringFixed(2))
	}
	fmt.Println(totals.String())
}
