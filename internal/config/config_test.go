package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
app:
  env: prod
  timezone: Asia/Shanghai
server:
  http_addr: ":9090"
auth:
  tokens: ["a"]
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CSINV_DB_DSN", "postgres://u:p@localhost/csinv")

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Env != "prod" || cfg.Server.HTTPAddr != ":9090" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.DB.DSN != "postgres://u:p@localhost/csinv" {
		t.Fatalf("dsn=%q", cfg.DB.DSN)
	}
	if cfg.Import.MaxFileBytes != 50<<20 {
		t.Fatalf("max_file_bytes=%d", cfg.Import.MaxFileBytes)
	}
	if cfg.Cron.SnapshotEvery != time.Hour {
		t.Fatalf("snapshot_every=%s", cfg.Cron.SnapshotEvery)
	}
	if len(cfg.Auth.Tokens) != 1 || cfg.Auth.Tokens[0] != "a" {
		t.Fatalf("tokens=%v", cfg.Auth.Tokens)
	}
	if cfg.App.Location().String() != "Asia/Shanghai" {
		t.Fatalf("location=%s", cfg.App.Location())
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("CSINV_SERVER_HTTP_ADDR", ":7000")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":7000" {
		t.Fatalf("addr=%q", cfg.Server.HTTPAddr)
	}
	if cfg.Redis.KeyPrefix != "csinv" {
		t.Fatalf("prefix=%q", cfg.Redis.KeyPrefix)
	}
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	if got := (AppConfig{Timezone: "Not/AZone"}).Location(); got != time.UTC {
		t.Fatalf("got %s", got)
	}
}
