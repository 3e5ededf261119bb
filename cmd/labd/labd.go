// labd is the lab instrument daemon. It owns the serial ports, arbitrates
// access between callers, and serves the request protocol on a local TCP
// socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/labd/internal/config"
	"github.com/banshee-data/labd/internal/device"
	"github.com/banshee-data/labd/internal/drivers/tdklambda"
	"github.com/banshee-data/labd/internal/rpc"
	"github.com/banshee-data/labd/internal/serialmux"
	"github.com/banshee-data/labd/internal/version"
)

var (
	configPath  = flag.String("config", config.DefaultPath, "Path to the device configuration file")
	listen      = flag.String("listen", "", "Listen address (overrides the configured address)")
	lockDir     = flag.String("lock-dir", "", "Directory for serial port lock files")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("labd %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config %s: %v", *configPath, err)
	}
	if *listen != "" {
		cfg.Server.Address = *listen
	}

	drivers := device.NewDriverRegistry()
	if err := tdklambda.Register(drivers); err != nil {
		log.Fatalf("failed to register drivers: %v", err)
	}

	var muxOpts []serialmux.RegistryOption
	if *lockDir != "" {
		muxOpts = append(muxOpts, serialmux.WithLockDir(*lockDir))
	}
	ports := serialmux.NewRegistry(muxOpts...)

	env, err := rpc.NewEnv(cfg, drivers, ports)
	if err != nil {
		log.Fatalf("failed to build devices: %v", err)
	}
	log.Printf("labd %s: %d device(s) configured", version.Version, len(env.Devices))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := rpc.NewServer(cfg.Server.Address, rpc.NewTypeRegistry(), env)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatalf("server failed: %v", err)
	}
	log.Print("labd stopped")
}
