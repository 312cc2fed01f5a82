package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Courier - raw-socket HTTP engine and virtual-host reverse proxy",
	Long: `Courier is a raw-socket HTTP/1.1 engine paired with a virtual-host
reverse proxy.

The application daemon (courier serve) parses requests off the wire,
dispatches exact-match routes, and serves static content from per-MIME
directories. It ships with a peer-to-peer sample application: a tracker
that assigns authenticated users a peer from a registered pool, and a
peer role that exchanges direct messages.

The proxy daemon (courier proxy) selects a backend pool by the request's
Host header, rotates origins round-robin, and relays bytes verbatim in
both directions.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
