package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/spf13/cobra"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

var debug bool

var rootCmd = &cobra.Command{
	Use:   "weatherlink",
	Short: "weatherlink - Davis Vantage console poller",
	Long: `weatherlink polls Davis Vantage Pro2 and Vue consoles over serial or
TCP, derives secondary weather values with exact decimal arithmetic and
serves the results over HTTP.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return log.Init(debug)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Turn on debugging output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
