package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/greenpi/watering-deploy/internal/config"
	"github.com/greenpi/watering-deploy/internal/service/installer"
	"github.com/greenpi/watering-deploy/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for provisioning the service.
	rootCmd = &cobra.Command{
		Use:   "watering-install",
		Short: "Provision the watering service on a fresh host",
		Long: "Install system prerequisites, grant the runtime user hardware access, " +
			"build the release binary, register the systemd unit and start the service. " +
			"Must run with elevated privileges.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return installer.Run(ctx, &installer.Options{ConfigPath: configPath})
		},
	}
)

// Execute runs the watering-install CLI and exits with non-zero status on error.
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
