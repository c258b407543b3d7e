package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cashcheck-dev/cashcheck/internal/api"
	"github.com/cashcheck-dev/cashcheck/internal/buildinfo"
)

func newServeCommand(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the import API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(_ context.Context, a *app) error {
				if addr == "" {
					addr = a.cfg.Server.Addr
				}
				return runServe(a, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

func runServe(a *app, addr string) error {
	handler := api.NewHandler(a.svc, a.logger)
	router := api.NewRouter(handler, a.logger, api.Options{
		BodyLimit:    a.cfg.Server.BodyLimitMB * 1024 * 1024,
		AccessLog:    true,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	})

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("address", addr), zap.String("version", buildinfo.String()))
		errCh <- router.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	a.logger.Info("shutting down server")
	if err := router.Shutdown(); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
