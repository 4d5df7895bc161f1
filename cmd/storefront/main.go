package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fjod/go_storefront/internal/api"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/orders"
	"github.com/fjod/go_storefront/internal/session"
	"github.com/fjod/go_storefront/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app bundles the wired client stack for one CLI invocation. The cart engine
// and order tracker live for the length of the process; the credential slot
// persists across invocations.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    session.TokenStore
	gate     *session.Gate
	engine   *cart.Engine
	carts    *api.CartClient
	stocks   *api.StockClient
	products *api.ProductClient
	tracker  *orders.Tracker
	cancel   context.CancelFunc
}

// newApp builds the stack and seeds the identity gate from the stored
// credential.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	tokenPath := cfg.TokenFile
	if tokenPath == "" {
		var err error
		tokenPath, err = session.DefaultTokenPath()
		if err != nil {
			return nil, fmt.Errorf("resolve token path: %w", err)
		}
	}
	store := session.NewFileTokenStore(tokenPath)

	base := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, store, log)
	auths := api.NewAuthClient(base)
	carts := api.NewCartClient(base)
	stocks := api.NewStockClient(base)
	products := api.NewProductClient(base)

	gate := session.NewGate(store, auths, log)
	engine := cart.NewEngine(carts, stocks, gate, log)

	runCtx, cancel := context.WithCancel(context.Background())
	go engine.Run(runCtx)
	gate.Bootstrap(ctx)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		gate:     gate,
		engine:   engine,
		carts:    carts,
		stocks:   stocks,
		products: products,
		tracker:  orders.NewTracker(),
		cancel:   cancel,
	}, nil
}

func (a *app) close() {
	a.cancel()
	a.log.Sync()
}

// requireIdentity loads the cart mirror for commands that mutate it and
// reports a friendly error when no one is logged in.
func (a *app) requireIdentity(ctx context.Context) error {
	if _, ok := a.gate.Current(); !ok {
		return fmt.Errorf("not logged in; run `storefront login` first")
	}
	return a.engine.Reload(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront client: browse products, manage your cart, place orders",
		Long: `Command line client for the storefront backend.

The cart is server-authoritative: every mutation goes to the backend and the
local view is rebuilt from what the server confirms.`,
		SilenceUsage: true,
	}

	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newWhoamiCmd())
	root.AddCommand(newCartCmd())
	root.AddCommand(newProductsCmd())
	root.AddCommand(newStockCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newDemoCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
