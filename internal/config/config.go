// Package config implements the daemon's on-disk configuration: a
// small YAML settings file (identity, listen port, data dir, receive
// dir, ping/offline/keepalive timings) loaded with defaults filled in
// for anything missing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/uos-cooperation/daemon/lib/codec"
	"github.com/uos-cooperation/daemon/lib/machine"
)

// Config is the full on-disk daemon configuration.
type Config struct {
	// UUID is this daemon's stable peer identity, generated once via
	// google/uuid and persisted on first run if empty.
	UUID       string `yaml:"uuid"`
	Name       string `yaml:"name"`
	OS         string `yaml:"os"`
	Compositor string `yaml:"compositor"`

	ListenPort uint16 `yaml:"listen_port"`
	BeaconPort int    `yaml:"beacon_port"`

	DataDir    string `yaml:"data_dir"`
	ReceiveDir string `yaml:"receive_dir"`

	ConfirmDialogPath string `yaml:"confirm_dialog_path"`
	InputEmittorPath  string `yaml:"input_emittor_path"`

	PingIntervalSeconds  int `yaml:"ping_interval_seconds"`
	OfflineWindowSeconds int `yaml:"offline_window_seconds"`
	KeepaliveIdleSeconds int `yaml:"keepalive_idle_seconds"`
}

// Default returns a Config with every field set to its default: ping
// 10s, offline 25s, keepalive idle 20s, and the well-known beacon
// port.
func Default() Config {
	return Config{
		ListenPort:           0,
		BeaconPort:           21027,
		DataDir:              defaultDataDir(),
		ReceiveDir:           defaultReceiveDir(),
		ConfirmDialogPath:    "/usr/lib/uos-cooperation/confirm-dialog",
		InputEmittorPath:     "/usr/lib/uos-cooperation/input-emittor",
		PingIntervalSeconds:  10,
		OfflineWindowSeconds: 25,
		KeepaliveIdleSeconds: 20,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/var/lib/uos-cooperation"
	}
	return filepath.Join(home, ".local", "share", "uos-cooperation")
}

func defaultReceiveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/var/lib/uos-cooperation/received"
	}
	return filepath.Join(home, "Downloads")
}

// Load reads and parses a YAML config file at path, filling in
// defaults for anything unset and assigning a fresh UUID if one is not
// already persisted.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.UUID = uuid.NewString()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.UUID == "" {
		cfg.UUID = uuid.NewString()
	}

	return cfg, nil
}

// Save persists cfg to path as YAML, creating parent directories as
// needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Timings converts the config's second-granularity durations into
// machine.Timings.
func (c Config) Timings() machine.Timings {
	return machine.Timings{
		PingInterval:  time.Duration(c.PingIntervalSeconds) * time.Second,
		OfflineWindow: time.Duration(c.OfflineWindowSeconds) * time.Second,
		KeepaliveIdle: time.Duration(c.KeepaliveIdleSeconds) * time.Second,
	}
}

// DeviceOS parses the configured OS string into a codec.DeviceOS,
// defaulting to OSLinux since this daemon targets Linux desktops.
func (c Config) DeviceOS() codec.DeviceOS {
	switch c.OS {
	case "uos":
		return codec.OSUOS
	case "windows":
		return codec.OSWindows
	case "macos":
		return codec.OSMacOS
	case "android":
		return codec.OSAndroid
	case "other":
		return codec.OSOther
	default:
		return codec.OSLinux
	}
}

// DeviceCompositor parses the configured compositor string, defaulting
// to Wayland.
func (c Config) DeviceCompositor() codec.Compositor {
	switch c.Compositor {
	case "x11":
		return codec.CompositorX11
	case "none":
		return codec.CompositorNone
	default:
		return codec.CompositorWayland
	}
}
