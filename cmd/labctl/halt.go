package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/labd/internal/rpc"
)

// haltCmd represents the halt command
var haltCmd = &cobra.Command{
	Use:   "halt",
	Short: "Shut the daemon down",
	Long: `Ask the daemon to terminate. The request is fire-and-forget: the daemon
closes the connection and exits without replying.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := rpc.NewClient(address)

		if err := client.Halt(); err != nil {
			fmt.Fprintf(os.Stderr, "Error halting daemon: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Halt requested")
	},
}

func init() {
	rootCmd.AddCommand(haltCmd)
}
