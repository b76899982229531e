package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/worldlink/internal/testutil/testlog"
	"github.com/danmuck/worldlink/internal/transport"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestTemplatesLoadAndValidate(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvSecret, "")
	t.Setenv(EnvAddress, "")

	for _, kind := range []string{"client", "bot"} {
		path := filepath.Join(t.TempDir(), kind+".toml")
		if err := WriteTemplate(path, kind, false); err != nil {
			t.Fatalf("write %s template: %v", kind, err)
		}
		cfg, err := LoadClientConfig(path)
		if err != nil {
			t.Fatalf("load %s template: %v", kind, err)
		}
		if _, err := cfg.HostConfig(); err != nil {
			t.Fatalf("%s host config: %v", kind, err)
		}
		if err := WriteTemplate(path, kind, false); err == nil {
			t.Fatalf("expected refusal to overwrite %s template", kind)
		}
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	testlog.Start(t)

	path := writeConfig(t, "address = \"127.0.0.1:1\"\nsecret = \"x\"\nsecert = \"typo\"\n")
	_, err := LoadClientConfig(path)
	if err == nil || !strings.Contains(err.Error(), "secert") {
		t.Fatalf("expected unknown key error naming secert, got %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvSecret, "from-env")
	t.Setenv(EnvAddress, " 10.0.0.5:7777 ")

	path := writeConfig(t, "address = \"127.0.0.1:1\"\n")
	cfg, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Secret != "from-env" || cfg.Address != "10.0.0.5:7777" {
		t.Fatalf("env overrides not applied: secret=%q address=%q", cfg.Secret, cfg.Address)
	}
}

func TestValidateClientConfig(t *testing.T) {
	testlog.Start(t)

	base := DefaultClientConfig()
	base.Secret = "x"
	if err := ValidateClientConfig(base); err != nil {
		t.Fatalf("defaults with secret should validate: %v", err)
	}

	cases := map[string]func(*ClientConfig){
		"secret":    func(c *ClientConfig) { c.Secret = "" },
		"address":   func(c *ClientConfig) { c.Address = " " },
		"transport": func(c *ClientConfig) { c.Transport = "udp" },
		"duration":  func(c *ClientConfig) { c.TickInterval = "soon" },
		"move_rate": func(c *ClientConfig) { c.MoveRate = -1 },
		"mutual":    func(c *ClientConfig) { c.TLS.Mutual = true },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := ValidateClientConfig(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestHostConfigConversion(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultClientConfig()
	cfg.Secret = "x"
	cfg.Transport = "websocket"
	cfg.TickInterval = "20"
	cfg.HandshakeTimeout = "2s"
	cfg.HeartbeatInterval = "-1s"
	cfg.SpawnPoints = []SpawnPoint{{X: 1, Y: 2, Z: 3}}

	hc, err := cfg.HostConfig()
	if err != nil {
		t.Fatalf("host config: %v", err)
	}
	if hc.TickInterval != 20*time.Millisecond {
		t.Fatalf("bare integer should be milliseconds, got %v", hc.TickInterval)
	}
	if hc.Client.Config.HandshakeTimeout != 2*time.Second || hc.Client.Config.HeartbeatInterval >= 0 {
		t.Fatalf("unexpected session timing: %+v", hc.Client.Config)
	}
	if _, ok := hc.Client.Dialer.(*transport.WebSocketDialer); !ok {
		t.Fatalf("expected websocket dialer, got %T", hc.Client.Dialer)
	}
	if len(hc.SpawnPoints) != 1 || hc.SpawnPoints[0].Z != 3 {
		t.Fatalf("unexpected spawn points: %+v", hc.SpawnPoints)
	}

	cfg.SecurityMode = "production"
	if _, err := cfg.HostConfig(); err == nil {
		t.Fatalf("production without tls should be rejected")
	}
}
