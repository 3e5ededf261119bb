package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/labd/internal/rpc"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <device>",
	Short: "Display detailed information about an instrument",
	Long: `Connect to one configured instrument and print its current state.

Examples:
  labctl info psu1`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]

		client := rpc.NewClient(address)
		defer client.Close()

		resp, err := client.DeviceInfo(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting device info: %v\n", err)
			os.Exit(1)
		}
		if resp.DeviceType == "" && !resp.IsConnected {
			fmt.Fprintf(os.Stderr, "No device named %q is configured\n", name)
			os.Exit(1)
		}

		fmt.Printf("Device: %s\n\n", name)
		fmt.Printf("  Type:      %s\n", resp.DeviceType)
		fmt.Printf("  Connected: %v\n", resp.IsConnected)
		if resp.ErrorMessage != "" {
			fmt.Printf("  Error:     %s (%s)\n", resp.ErrorMessage, resp.ErrorType)
		}

		if ps := resp.PowerSupplyInfo; ps != nil {
			fmt.Println("\nPower Supply State:")
			fmt.Printf("  Output:          %s\n", onOff(ps.IsOutputOn))
			fmt.Printf("  Mode:            %s\n", ps.Mode)
			fmt.Printf("  Target voltage:  %.3f V\n", ps.TargetVoltage)
			fmt.Printf("  Actual voltage:  %.3f V\n", ps.ActualVoltage)
			fmt.Printf("  Target current:  %.3f A\n", ps.TargetCurrent)
			fmt.Printf("  Actual current:  %.3f A\n", ps.ActualCurrent)
		}
	},
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
