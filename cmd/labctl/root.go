package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/labd/internal/config"
	"github.com/banshee-data/labd/internal/version"
)

var address string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "labctl",
	Short: "Control the labd lab instrument daemon",
	Long: `labctl talks to a running labd daemon over its local TCP socket.

Use it to check the daemon is alive, list configured instruments, inspect
a single instrument, run scripted test sequences, or shut the daemon down.`,
	Version: fmt.Sprintf("%s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime),
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&address, "address", "a", config.DefaultAddress, "Address of the labd daemon")
}
