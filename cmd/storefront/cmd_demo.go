package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/stubshop"
	"github.com/fjod/go_storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newDemoCmd serves the in-process stub backend so the rest of the CLI has
// something to talk to without a deployed storefront.
func newDemoCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a local stub storefront backend (demo@example.com / password123)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.New(cfg.LogLevel)
			defer log.Sync()

			store := stubshop.NewStore()
			stubshop.SeedDemo(store)
			secret := []byte(uuid.NewString())
			server := stubshop.NewServer(store, secret, log)

			srv := &http.Server{
				Addr:         ":" + port,
				Handler:      server.Handler(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("stub storefront listening", zap.String("addr", srv.Addr))
				fmt.Printf("Stub storefront on http://localhost:%s (demo@example.com / password123)\n", port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			log.Info("shutting down stub storefront")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "8080", "port to listen on")
	return cmd
}
