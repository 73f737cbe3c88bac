package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/hostkit/internal/host/jshost"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/config"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/server"
)

const probeTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Parse flags
	port := flag.String("port", cfg.Server.Port, "Inspector port")
	host := flag.String("host", cfg.Server.Host, "Inspector bind address")
	profile := flag.String("profile", cfg.Host.Profile, "Host profile name")
	profileDir := flag.String("profile-dir", cfg.Host.ProfileDir, "Directory of extra YAML/TOML host profiles")
	forceTimer := flag.Bool("force-timer", cfg.Scheduler.ForceTimer, "Drive frames with timers even when the host has frames")
	logLevel := flag.String("log-level", cfg.Logging.Level, "Log level (debug, info, warn, error)")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	listProfiles := flag.Bool("list-profiles", false, "List built-in profiles and exit")
	probe := flag.Bool("probe", false, "Discover capabilities, print them as JSON and exit")
	flag.Parse()

	if *listProfiles {
		fmt.Println(strings.Join(jshost.BuiltinNames(), "\n"))
		return
	}

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Host.Profile = *profile
	cfg.Host.ProfileDir = *profileDir
	cfg.Scheduler.ForceTimer = *forceTimer
	cfg.Logging.Level = *logLevel
	cfg.Logging.Development = *dev

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer srv.Close()

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *probe {
		if err := runProbe(ctx, srv); err != nil {
			log.Fatalf("Probe failed: %v", err)
		}
		return
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runProbe(ctx context.Context, srv *server.Server) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	rep, err := srv.Discover(ctx)
	if err != nil {
		return err
	}
	out, err := sonic.ConfigStd.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
