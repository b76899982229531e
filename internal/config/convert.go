package config

import (
	"strings"
	"time"

	"github.com/danmuck/worldlink/internal/client"
	"github.com/danmuck/worldlink/internal/host"
	"github.com/danmuck/worldlink/internal/protocol/session"
	"github.com/danmuck/worldlink/internal/transport"
	"github.com/danmuck/worldlink/internal/world"
)

// SessionConfig maps the timing and TLS keys onto a session.Config.
func (c ClientConfig) SessionConfig() (session.Config, error) {
	cfg := session.DefaultConfig()
	var err error
	if cfg.HandshakeTimeout, err = durationOr(c.HandshakeTimeout, cfg.HandshakeTimeout); err != nil {
		return session.Config{}, err
	}
	if cfg.HeartbeatInterval, err = durationOr(c.HeartbeatInterval, cfg.HeartbeatInterval); err != nil {
		return session.Config{}, err
	}
	if cfg.ReadTimeout, err = durationOr(c.ReadTimeout, cfg.ReadTimeout); err != nil {
		return session.Config{}, err
	}
	cfg.SecurityMode = session.SecurityMode(strings.TrimSpace(c.SecurityMode))
	cfg.TLS = session.TLSConfig{
		Enabled:            c.TLS.Enabled,
		Mutual:             c.TLS.Mutual,
		CertFile:           strings.TrimSpace(c.TLS.CertFile),
		KeyFile:            strings.TrimSpace(c.TLS.KeyFile),
		CAFile:             strings.TrimSpace(c.TLS.CAFile),
		ServerName:         strings.TrimSpace(c.TLS.ServerName),
		InsecureSkipVerify: c.TLS.InsecureSkipVerify,
	}
	return cfg.WithDefaults(), nil
}

// HostConfig builds the runner configuration. Presenters and chat hooks are
// left for the caller.
func (c ClientConfig) HostConfig() (host.Config, error) {
	sessCfg, err := c.SessionConfig()
	if err != nil {
		return host.Config{}, err
	}
	if err := sessCfg.ValidateClientTransport(); err != nil {
		return host.Config{}, err
	}
	dialer, err := transport.NewDialer(transport.Kind(c.Transport), sessCfg)
	if err != nil {
		return host.Config{}, err
	}
	tick, err := parseDuration(c.TickInterval)
	if err != nil {
		return host.Config{}, err
	}

	points := make([]world.Position, 0, len(c.SpawnPoints))
	for _, p := range c.SpawnPoints {
		points = append(points, world.Position{X: p.X, Y: p.Y, Z: p.Z})
	}

	return host.Config{
		Client: client.Options{
			Address:     strings.TrimSpace(c.Address),
			Secret:      c.Secret,
			Nickname:    strings.TrimSpace(c.Nickname),
			PlayerID:    strings.TrimSpace(c.PlayerID),
			ChatChannel: strings.TrimSpace(c.ChatChannel),
			Config:      sessCfg,
			Dialer:      dialer,
		},
		TickInterval:       tick,
		MaxConnectAttempts: c.MaxConnectAttempts,
		MoveRate:           c.MoveRate,
		MoveMinDistance:    c.MoveMinDistance,
		SpawnPoints:        points,
		Wander:             c.Wander,
		WanderRadius:       c.WanderRadius,
	}, nil
}

func durationOr(raw string, fallback time.Duration) (time.Duration, error) {
	d, err := parseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return fallback, nil
	}
	return d, nil
}
