package transport

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/danmuck/worldlink/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

// TCPDialer dials a plain TCP stream, upgraded to TLS when Config.TLS.Enabled.
type TCPDialer struct {
	Config session.Config
}

func (d *TCPDialer) Dial(ctx context.Context, address string) (Conn, error) {
	cfg := d.Config.WithDefaults()
	if err := cfg.ValidateClientTransport(); err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	if !cfg.TLS.Enabled {
		log.Debug().Str("addr", address).Msg("transport tcp connected")
		return rawConn, nil
	}

	tlsCfg, err := cfg.ClientTLSConfig(address)
	if err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	conn := tls.Client(rawConn, tlsCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	log.Debug().Str("addr", address).Str("server_name", tlsCfg.ServerName).Msg("transport tls connected")
	return conn, nil
}
