package main

import (
	"fmt"
	"path/filepath"

	"github.com/chrissnell/weatherlink/internal/app"
	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/chrissnell/weatherlink/pkg/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll the configured stations and serve their readings",
	Long: `Start every configured station, storage backend and controller and run
until interrupted.`,
	RunE: runServe,
}

var serveConfig string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfig, "config", "config.yaml", "Path to the YAML configuration file")
}

func runServe(cmd *cobra.Command, args []string) error {
	filename, _ := filepath.Abs(serveConfig)
	provider := config.NewYAMLProvider(filename)
	defer provider.Close()

	if _, err := provider.LoadConfig(); err != nil {
		return fmt.Errorf("error reading config file. Did you pass the --config flag? Run with -h for help: %w", err)
	}

	return app.New(provider, log.GetSugaredLogger()).Run(cmd.Context())
}
