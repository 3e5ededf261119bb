package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/banshee-data/labd/internal/config"
	"github.com/banshee-data/labd/internal/device"
	"github.com/banshee-data/labd/internal/drivers/tdklambda"
	"github.com/banshee-data/labd/internal/results"
	"github.com/banshee-data/labd/internal/rpc"
	"github.com/banshee-data/labd/internal/sequence"
	"github.com/banshee-data/labd/internal/serialmux"
)

var (
	runConfigPath  string
	runResultsPath string
	runLockDir     string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <sequence.yml>",
	Short: "Run a scripted test sequence against an instrument",
	Long: `Run a test sequence from a YAML file and record sampled readbacks to the
results database.

The sequence drives the instrument directly over its serial port rather
than through the daemon, claiming the port with the same lock files labd
uses. A daemon serving requests on the same port at the same time will
see the port as busy, and vice versa.

Examples:
  labctl run burn-in.yml
  labctl run burn-in.yml --config labd.yml --results results.db`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSequence(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error running sequence: %v\n", err)
			os.Exit(1)
		}
	},
}

func runSequence(path string) error {
	seq, err := sequence.Load(path)
	if err != nil {
		return err
	}
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", runConfigPath, err)
	}

	resultsPath := runResultsPath
	if resultsPath == "" {
		resultsPath = cfg.Results.Path
	}
	db, err := results.Open(resultsPath)
	if err != nil {
		return fmt.Errorf("open results db %s: %w", resultsPath, err)
	}
	defer db.Close()

	drivers := device.NewDriverRegistry()
	if err := tdklambda.Register(drivers); err != nil {
		return err
	}
	var muxOpts []serialmux.RegistryOption
	if runLockDir != "" {
		muxOpts = append(muxOpts, serialmux.WithLockDir(runLockDir))
	}
	ports := serialmux.NewRegistry(muxOpts...)

	env, err := rpc.NewEnv(cfg, drivers, ports)
	if err != nil {
		return err
	}
	dev := env.DeviceByName(seq.Device)
	if dev == nil {
		return fmt.Errorf("no device named %q is configured", seq.Device)
	}
	supply, ok := dev.(device.PowerSupply)
	if !ok {
		return fmt.Errorf("device %q is not a power supply", seq.Device)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := sequence.NewRunner(supply, db)
	run, err := runner.Run(ctx, seq)
	if err != nil {
		return err
	}
	fmt.Printf("Sequence %q finished, run ID %s\n", seq.Name, run)
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", config.DefaultPath, "Path to the device configuration file")
	runCmd.Flags().StringVarP(&runResultsPath, "results", "r", "", "Path to the results database (defaults to the configured path)")
	runCmd.Flags().StringVar(&runLockDir, "lock-dir", "", "Directory for serial port lock files")
}
