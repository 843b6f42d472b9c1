package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/translation-grader/internal/core"
	"github.com/mikey/translation-grader/internal/di"
	"github.com/mikey/translation-grader/internal/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the grading pipeline over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := di.BuildContainer(flags)
		if err != nil {
			return fmt.Errorf("failed to build dependency container: %w", err)
		}

		return container.Invoke(func(
			logger *zap.Logger,
			surface ports.Surface,
			grader core.Grader,
			store ports.Store,
		) error {
			defer logger.Sync()

			if err := surface.Start(); err != nil {
				logger.Error("Failed to start surface", zap.Error(err))
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()
			logger.Info("Shutting down...")

			if err := surface.Stop(); err != nil {
				logger.Error("Failed to stop surface", zap.Error(err))
			}

			closeGrader(grader, logger)

			closeStore(store, logger)

			logger.Info("Shutdown complete")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
