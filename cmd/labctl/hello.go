package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/labd/internal/rpc"
)

// helloCmd represents the hello command
var helloCmd = &cobra.Command{
	Use:   "hello",
	Short: "Check that the daemon is alive",
	Long: `Send a Hello request and print the daemon's reply.

Examples:
  labctl hello
  labctl hello --address 127.0.0.1:14337`,
	Run: func(cmd *cobra.Command, args []string) {
		client := rpc.NewClient(address)
		defer client.Close()

		resp, err := client.Hello()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error contacting daemon: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(resp.Content)
	},
}

func init() {
	rootCmd.AddCommand(helloCmd)
}
