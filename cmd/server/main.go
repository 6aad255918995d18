package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"window_calculator/internal/config"
)

var (
	flagPort string
	flagEnv  string
)

var rootCmd = &cobra.Command{
	Use:   "window-calculator",
	Short: "Window price calculator backend",
	Long: `Serves the window price calculator API (calculations, cart, pricing, previews)
and the single-page front-end from PUBLIC_DIR.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), loadConfig())
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the registered routes and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRoutes(cmd.OutOrStdout(), loadConfig())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPort, "port", "", "HTTP port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "", "environment: development or production (overrides NODE_ENV)")
	rootCmd.AddCommand(routesCmd)
}

// loadConfig lit .env + environnement, puis applique les flags.
func loadConfig() *config.Config {
	cfg := config.Load()
	if flagEnv != "" {
		cfg.Env = flagEnv
	}
	if flagPort != "" {
		cfg.Port = flagPort
		if os.Getenv("BASE_URL") == "" {
			cfg.BaseURL = ""
		}
	}
	cfg.Normalize()
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
