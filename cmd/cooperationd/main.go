// Command cooperationd is the daemon entrypoint: it loads configuration,
// wires the event loop, wrapper factory, and Manager together, and runs
// them under a suture supervisor until signaled to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/uos-cooperation/daemon/internal/config"
	"github.com/uos-cooperation/daemon/lib/eventloop"
	"github.com/uos-cooperation/daemon/lib/logger"
	"github.com/uos-cooperation/daemon/lib/manager"
	"github.com/uos-cooperation/daemon/lib/wrappers"
)

var log = logger.DefaultLogger.NewFacility("main")

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", defaultConfigPath(), "path to the daemon's YAML configuration file")
	flag.Parse()

	if err := run(configPath); err != nil {
		log.Warnf("cooperationd exiting: %v", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "uos-cooperation", "config.yaml")
	}
	return "/etc/uos-cooperation/config.yaml"
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.Save(configPath, cfg); err != nil {
		log.Warnf("could not persist config: %v", err)
	}

	for _, dir := range []string{cfg.DataDir, cfg.ReceiveDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	loop := eventloop.NewLoop()
	factory := wrappers.New(loop, wrappers.Paths{
		ConfirmDialog: cfg.ConfirmDialogPath,
		InputEmittor:  cfg.InputEmittorPath,
	})

	mgr := manager.New(loop, factory, manager.Config{
		LocalUUID:  cfg.UUID,
		LocalName:  cfg.Name,
		OS:         cfg.DeviceOS(),
		Compositor: cfg.DeviceCompositor(),
		ListenPort: cfg.ListenPort,
		BeaconPort: cfg.BeaconPort,
		DataDir:    cfg.DataDir,
		ReceiveDir: cfg.ReceiveDir,
		Timings:    cfg.Timings(),
	})

	sup := suture.NewSimple("cooperationd")
	sup.Add(loop)
	sup.Add(mgr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go broadcastLoop(ctx, mgr)

	log.Infof("cooperationd starting: uuid=%s listen=%d beacon=%d", cfg.UUID, cfg.ListenPort, cfg.BeaconPort)
	return sup.Serve(ctx)
}

// broadcastLoop periodically advertises this daemon's presence,
// independent of any single Machine's pingTimer (which only re-probes
// already-known peers).
func broadcastLoop(ctx context.Context, mgr *manager.Manager) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mgr.BroadcastBeacon()
		}
	}
}
