package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/greenpi/watering-deploy/internal/config"
	"github.com/greenpi/watering-deploy/internal/service/updater"
	"github.com/greenpi/watering-deploy/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for redeploying the service.
	rootCmd = &cobra.Command{
		Use:   "watering-update",
		Short: "Rebuild and restart the watering service",
		Long: "Stop the service, rebuild the release binary, verify the artifact and " +
			"restart the service. A failed build restarts the previous binary so the " +
			"service is never left down. Must run with elevated privileges.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return updater.Run(ctx, &updater.Options{ConfigPath: configPath})
		},
	}
)

// Execute runs the watering-update CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
