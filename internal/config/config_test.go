package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigFrom_Defaults(t *testing.T) {
	dir := writeConfig(t, "database:\n  dsn: postgres://u:p@localhost:5432/league\n")

	cfg, err := LoadConfigFrom(dir)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Server.Mode != "release" {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Settlement.Timeout != 15*time.Second || cfg.Settlement.SweepCron != "*/5 * * * *" || cfg.Settlement.SweepLimit != 50 {
		t.Errorf("settlement defaults = %+v", cfg.Settlement)
	}
	if cfg.Settlement.HookTimeout != time.Minute {
		t.Errorf("hook timeout = %v, want 1m", cfg.Settlement.HookTimeout)
	}
	if cfg.Prediction.PickLimit != 5 {
		t.Errorf("pick limit = %d, want 5", cfg.Prediction.PickLimit)
	}
	if cfg.Notify.Driver != "log" || cfg.Notify.Redis.Channel != "league:notifications" {
		t.Errorf("notify defaults = %+v", cfg.Notify)
	}
	if cfg.Database.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("conn max lifetime = %v", cfg.Database.ConnMaxLifetime)
	}
}

func TestLoadConfigFrom_EnvOverridesSecrets(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: 9000
database:
  dsn: postgres://yaml@localhost/league
settlement:
  timeout: 30s
  hook_timeout: 90s
notify:
  driver: webhook
  webhook:
    base_url: http://push.local
    auth_token: from-yaml
`)
	t.Setenv("DATABASE_DSN", "postgres://env@localhost/league")
	t.Setenv("NOTIFY_WEBHOOK_TOKEN", "from-env")
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := LoadConfigFrom(dir)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Database.DSN != "postgres://env@localhost/league" {
		t.Errorf("dsn = %s", cfg.Database.DSN)
	}
	if cfg.Notify.Webhook.AuthToken != "from-env" {
		t.Errorf("auth token = %s", cfg.Notify.Webhook.AuthToken)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Settlement.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.Settlement.Timeout)
	}
	if cfg.Settlement.HookTimeout != 90*time.Second {
		t.Errorf("hook timeout = %v, want 90s", cfg.Settlement.HookTimeout)
	}
}

func TestLoadConfigFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing dsn", "server:\n  port: 8080\n", "database.dsn"},
		{"bad port", "server:\n  port: 70000\ndatabase:\n  dsn: x\n", "server.port"},
		{"zero hook timeout", "database:\n  dsn: x\nsettlement:\n  hook_timeout: 0s\n", "settlement.hook_timeout"},
		{"unknown driver", "database:\n  dsn: x\nnotify:\n  driver: carrier-pigeon\n", "notify.driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_DSN", "")
			_, err := LoadConfigFrom(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}

	if _, err := LoadConfigFrom(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
