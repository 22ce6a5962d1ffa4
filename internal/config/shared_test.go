package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Client.MeterRetries != 5 {
		t.Errorf("expected 5 meter retries, got %d", cfg.Client.MeterRetries)
	}
	if cfg.MeterInterval() != 10*time.Second {
		t.Errorf("expected 10s meter interval, got %s", cfg.MeterInterval())
	}
	if cfg.MeterTimeout() != 5*time.Second {
		t.Errorf("expected 5s meter timeout, got %s", cfg.MeterTimeout())
	}
	if !cfg.Client.MeterKeepAlive {
		t.Error("expected keep-alive to default to true")
	}
	if cfg.Storage.Provider != "local" {
		t.Errorf("expected local storage provider, got %q", cfg.Storage.Provider)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MOMO_CLIENT_METER_INTERVAL_SECONDS", "3")
	t.Setenv("MOMO_STORAGE_BUCKET_INGEST", "drops")
	t.Setenv("MOMO_CLIENT_METER_KEEP_ALIVE", "false")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.MeterInterval() != 3*time.Second {
		t.Errorf("expected 3s interval, got %s", cfg.MeterInterval())
	}
	if cfg.Storage.BucketIngest != "drops" {
		t.Errorf("expected bucket 'drops', got %q", cfg.Storage.BucketIngest)
	}
	if cfg.Client.MeterKeepAlive {
		t.Error("expected keep-alive override to false")
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
