package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/worldlink/internal/config"
)

// loadClientConfig overlays only the keys present in path onto the defaults,
// so an explicit zero (max_connect_attempts = 0, wander = false) still wins.
func loadClientConfig(path string) (config.ClientConfig, error) {
	cfg := config.DefaultClientConfig()

	var raw config.ClientConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.ClientConfig{}, fmt.Errorf("load worldlink config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		log.Warn().Strs("keys", keys).Str("path", path).Msg("ignoring unknown config keys")
	}

	if meta.IsDefined("address") {
		cfg.Address = strings.TrimSpace(raw.Address)
	}
	if meta.IsDefined("transport") {
		cfg.Transport = strings.TrimSpace(raw.Transport)
	}
	if meta.IsDefined("secret") {
		cfg.Secret = raw.Secret
	}
	if meta.IsDefined("nickname") {
		cfg.Nickname = strings.TrimSpace(raw.Nickname)
	}
	if meta.IsDefined("player_id") {
		cfg.PlayerID = strings.TrimSpace(raw.PlayerID)
	}
	if meta.IsDefined("chat_channel") {
		cfg.ChatChannel = strings.TrimSpace(raw.ChatChannel)
	}
	if meta.IsDefined("tick_interval") {
		cfg.TickInterval = strings.TrimSpace(raw.TickInterval)
	}
	if meta.IsDefined("move_rate") {
		cfg.MoveRate = raw.MoveRate
	}
	if meta.IsDefined("move_min_distance") {
		cfg.MoveMinDistance = raw.MoveMinDistance
	}
	if meta.IsDefined("max_connect_attempts") {
		cfg.MaxConnectAttempts = raw.MaxConnectAttempts
	}
	if meta.IsDefined("status_addr") {
		cfg.StatusAddr = strings.TrimSpace(raw.StatusAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}
	if meta.IsDefined("spawn_points") {
		cfg.SpawnPoints = raw.SpawnPoints
	}
	if meta.IsDefined("wander") {
		cfg.Wander = raw.Wander
	}
	if meta.IsDefined("wander_radius") {
		cfg.WanderRadius = raw.WanderRadius
	}
	if meta.IsDefined("handshake_timeout") {
		cfg.HandshakeTimeout = strings.TrimSpace(raw.HandshakeTimeout)
	}
	if meta.IsDefined("heartbeat_interval") {
		cfg.HeartbeatInterval = strings.TrimSpace(raw.HeartbeatInterval)
	}
	if meta.IsDefined("read_timeout") {
		cfg.ReadTimeout = strings.TrimSpace(raw.ReadTimeout)
	}
	if meta.IsDefined("security_mode") {
		cfg.SecurityMode = strings.TrimSpace(raw.SecurityMode)
	}
	if meta.IsDefined("tls") {
		cfg.TLS = raw.TLS
	}

	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		v := strings.TrimSpace(o)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
