package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/banshee-data/labd/internal/rpc"
)

var (
	availableStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	unavailableStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// devicesCmd represents the devices command
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List configured instruments and their availability",
	Long: `Probe every instrument the daemon has configured and report whether it
responds. Probing opens each device, runs its connection test, and closes
it again, so a device held by another process shows as unavailable.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := rpc.NewClient(address)
		defer client.Close()

		resp, err := client.ListDevices()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing devices: %v\n", err)
			os.Exit(1)
		}

		if len(resp.Devices) == 0 {
			fmt.Println("No devices configured")
			return
		}

		for _, d := range resp.Devices {
			if d.IsAvailable {
				fmt.Printf("%s %s\n", availableStyle.Render("●"), d.Name)
				continue
			}
			fmt.Printf("%s %s\n", unavailableStyle.Render("●"), d.Name)
			if d.ErrorMessage != "" {
				fmt.Printf("  %s\n", detailStyle.Render(fmt.Sprintf("%s: %s", d.ErrorType, d.ErrorMessage)))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
