package cmd

import (
	"github.com/spf13/cobra"

	"github.com/benedict-erwin/license-console/config"
	"github.com/benedict-erwin/license-console/pkg/logger"
	"github.com/benedict-erwin/license-console/server"
)

var consolePort int

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the web console",
	Long:  `Serve the license console in the browser, supervised by overseer for zero-downtime restarts`,
	RunE:  runConsole,
}

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Start the web console without overseer",
	Long:  `Serve the license console in the foreground, for hot reload during development`,
	RunE:  runConsole,
}

func init() {
	devCmd.Flags().IntVar(&consolePort, "port", 0, "listen port (default from config)")
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg := *config.Get()
	if consolePort > 0 {
		cfg.Console.Port = consolePort
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}

	if err := server.Start(&cfg, listener); err != nil {
		logger.WithScope("consoleCmd").Error().Err(err).Msg("Failed to start console")
		return err
	}
	return nil
}
