package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newProductsCmd() *cobra.Command {
	var categoryID int64
	var variations bool
	var categories bool

	cmd := &cobra.Command{
		Use:   "products [product-id]",
		Short: "Browse the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if categories {
				list, err := a.products.Categories(ctx)
				if err != nil {
					return a.mapCartError(err)
				}
				for _, c := range list {
					fmt.Printf("#%d  %s\n", c.ID, c.Name)
				}
				return nil
			}

			if len(args) == 1 {
				productID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("product id must be an integer")
				}
				product, err := a.products.Product(ctx, productID)
				if err != nil {
					return a.mapCartError(err)
				}
				fmt.Printf("#%d  %s  %s\n", product.ID, product.Name, product.Price.StringFixed(2))
				if !variations {
					return nil
				}
				vars, err := a.products.VariationsByProduct(ctx, productID)
				if err != nil {
					return a.mapCartError(err)
				}
				for _, v := range vars {
					fmt.Printf("  variation #%d  %s/%s  stock %d\n", v.ID, v.Size, v.Color, v.AvailableStock)
				}
				return nil
			}

			if categoryID != 0 {
				products, err := a.products.ProductsByCategory(ctx, categoryID)
				if err != nil {
					return a.mapCartError(err)
				}
				for _, p := range products {
					fmt.Printf("#%d  %s  %s\n", p.ID, p.Name, p.Price.StringFixed(2))
				}
				return nil
			}

			products, err := a.products.Products(ctx)
			if err != nil {
				return a.mapCartError(err)
			}
			for _, p := range products {
				fmt.Printf("#%d  %s  %s\n", p.ID, p.Name, p.Price.StringFixed(2))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&categoryID, "category", 0, "filter by category id")
	cmd.Flags().BoolVar(&variations, "variations", false, "list variations of the product")
	cmd.Flags().BoolVar(&categories, "categories", false, "list categories instead of products")
	return cmd
}

func newStockCmd() *cobra.Command {
	var check int

	cmd := &cobra.Command{
		Use:   "stock <variation-id>",
		Short: "Check stock for a variation",
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

			if check > 0 {
				result := a.engine.CheckStock(ctx, variationID, check)
				if result.Sufficient {
					fmt.Printf("%d unit(s) available (%d in stock)\n", check, result.AvailableStock)
				} else {
					fmt.Printf("only %d in stock\n", result.AvailableStock)
				}
				return nil
			}

			stock, err := a.stocks.Get(ctx, variationID)
			if err != nil {
				return a.mapCartError(err)
			}
			fmt.Printf("%d in stock\n", stock)
			return nil
		},
	}
	cmd.Flags().IntVar(&check, "check", 0, "check feasibility of this quantity")
	return cmd
}
