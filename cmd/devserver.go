/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nakachan-ing/dtl-cli/internal/clock"
	"github.com/nakachan-ing/dtl-cli/internal/devserver"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	devAddr   string
	devSecret string
	devUser   string
	devSeed   bool
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory daily task backend for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		store := devserver.NewStore(clock.Real())
		if devSeed {
			store.Seed(devUser)
			fmt.Printf("🌱 Seeded sample days for user %s\n", devUser)
		}

		opts := devserver.Options{}
		if devSecret != "" {
			opts.Secret = []byte(devSecret)
			token, err := devserver.IssueToken(opts.Secret, devUser, 24*time.Hour)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			fmt.Printf("🔑 Token for %s (valid 24h):\n%s\n", devUser, token)
		}

		srv := &http.Server{
			Addr:              devAddr,
			Handler:           otelhttp.NewHandler(devserver.SetupRouter(store, opts), "dtl-devserver"),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			fmt.Printf("🚀 Listening on http://%s (Ctrl+C to stop)\n", devAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		slog.Info("devserver stopped")
		fmt.Println("✅ Server stopped")
		return nil
	},
}

func init() {
	devserverCmd.Flags().StringVar(&devAddr, "addr", "localhost:5000", "Listen address")
	devserverCmd.Flags().StringVar(&devSecret, "secret", "", "HMAC secret; enables bearer-token auth and prints a token")
	devserverCmd.Flags().StringVar(&devUser, "user", "dev-user", "User id for the seeded data and the printed token")
	devserverCmd.Flags().BoolVar(&devSeed, "seed", false, "Seed sample days")
	rootCmd.AddCommand(devserverCmd)
}
