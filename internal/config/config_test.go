package config

import (
	"path/filepath"
	"testing"

	"github.com/uos-cooperation/daemon/lib/codec"
)

func TestLoadMissingFileReturnsDefaultsWithFreshUUID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UUID == "" {
		t.Error("expected a freshly generated UUID")
	}
	if cfg.BeaconPort != Default().BeaconPort {
		t.Errorf("BeaconPort = %d, want default %d", cfg.BeaconPort, Default().BeaconPort)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := Default()
	want.UUID = "fixed-uuid"
	want.Name = "desk-1"
	want.ListenPort = 5000

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.UUID != want.UUID || got.Name != want.Name || got.ListenPort != want.ListenPort {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLoadPreservesUUIDOnSecondRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	first, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Save(path, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if second.UUID != first.UUID {
		t.Fatalf("UUID changed across runs: %s -> %s", first.UUID, second.UUID)
	}
}

func TestDeviceOSDefaultsToLinux(t *testing.T) {
	cfg := Default()
	if cfg.DeviceOS() != codec.OSLinux {
		t.Errorf("DeviceOS() = %v, want OSLinux", cfg.DeviceOS())
	}
}
