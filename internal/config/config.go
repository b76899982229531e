package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/worldlink/internal/host"
)

// ClientConfig is the on-disk shape of a worldlink client config. Durations
// are strings in time.ParseDuration form.
type ClientConfig struct {
	Address            string        `toml:"address"`
	Transport          string        `toml:"transport"`
	Secret             string        `toml:"secret"`
	Nickname           string        `toml:"nickname"`
	PlayerID           string        `toml:"player_id"`
	ChatChannel        string        `toml:"chat_channel"`
	TickInterval       string        `toml:"tick_interval"`
	MoveRate           float64       `toml:"move_rate"`
	MoveMinDistance    float64       `toml:"move_min_distance"`
	MaxConnectAttempts int           `toml:"max_connect_attempts"`
	StatusAddr         string        `toml:"status_addr"`
	CorsOrigins        []string      `toml:"cors_origins"`
	SpawnPoints        []SpawnPoint  `toml:"spawn_points"`
	Wander             bool          `toml:"wander"`
	WanderRadius       float64       `toml:"wander_radius"`
	HandshakeTimeout   string        `toml:"handshake_timeout"`
	HeartbeatInterval  string        `toml:"heartbeat_interval"`
	ReadTimeout        string        `toml:"read_timeout"`
	SecurityMode       string        `toml:"security_mode"`
	TLS                TLSFileConfig `toml:"tls"`
}

type SpawnPoint struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	Z float64 `toml:"z"`
}

type TLSFileConfig struct {
	Enabled            bool   `toml:"enabled"`
	Mutual             bool   `toml:"mutual"`
	CertFile           string `toml:"cert_file"`
	KeyFile            string `toml:"key_file"`
	CAFile             string `toml:"ca_file"`
	ServerName         string `toml:"server_name"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

const (
	EnvSecret  = "WORLDLINK_SECRET"
	EnvAddress = "WORLDLINK_ADDRESS"
)

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Address:           "127.0.0.1:7777",
		Transport:         "tcp",
		ChatChannel:       "global",
		TickInterval:      "50ms",
		MoveRate:          host.DefaultMoveRate,
		MoveMinDistance:   host.DefaultMoveMinDistance,
		StatusAddr:        "127.0.0.1:7080",
		HandshakeTimeout:  "5s",
		HeartbeatInterval: "5s",
		ReadTimeout:       "15s",
		SecurityMode:      "development",
	}
}

// LoadClientConfig strictly decodes path over the defaults, applies
// environment overrides, and validates the result. Unknown keys are errors.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	ApplyEnv(&cfg, os.LookupEnv)
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config parse failed (%s): %s", path, strict.String())
		}
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// ApplyEnv lets the secret and address come from the environment instead of
// the file.
func ApplyEnv(cfg *ClientConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSecret); ok && v != "" {
		cfg.Secret = v
	}
	if v, ok := lookup(EnvAddress); ok && strings.TrimSpace(v) != "" {
		cfg.Address = strings.TrimSpace(v)
	}
}

func ValidateClientConfig(cfg ClientConfig) error {
	if strings.TrimSpace(cfg.Address) == "" {
		return fmt.Errorf("client config missing address")
	}
	if cfg.Secret == "" {
		return fmt.Errorf("client config missing secret (set secret or %s)", EnvSecret)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case "", "tcp", "websocket", "ws":
	default:
		return fmt.Errorf("client config transport %q not supported", cfg.Transport)
	}
	for _, d := range []struct{ key, value string }{
		{"tick_interval", cfg.TickInterval},
		{"handshake_timeout", cfg.HandshakeTimeout},
		{"heartbeat_interval", cfg.HeartbeatInterval},
		{"read_timeout", cfg.ReadTimeout},
	} {
		if _, err := parseDuration(d.value); err != nil {
			return fmt.Errorf("client config %s: %w", d.key, err)
		}
	}
	if cfg.MoveRate < 0 {
		return fmt.Errorf("client config move_rate must not be negative")
	}
	if cfg.MoveMinDistance < 0 {
		return fmt.Errorf("client config move_min_distance must not be negative")
	}
	if cfg.MaxConnectAttempts < 0 {
		return fmt.Errorf("client config max_connect_attempts must not be negative")
	}
	if cfg.TLS.Mutual && !cfg.TLS.Enabled {
		return fmt.Errorf("client config tls.mutual requires tls.enabled")
	}
	return nil
}

// parseDuration accepts an empty string as zero and a bare integer as
// milliseconds.
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(raw)
}
