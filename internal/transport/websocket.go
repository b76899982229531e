package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/worldlink/internal/protocol/session"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketDialer carries frames over a websocket. Each write is sent as one
// text message; inbound messages are concatenated into a single byte stream.
type WebSocketDialer struct {
	Config session.Config
	Header http.Header
}

// Dial accepts ws:// and wss:// urls, or a bare host:port which becomes
// ws://host:port/ (wss when TLS is enabled).
func (d *WebSocketDialer) Dial(ctx context.Context, address string) (Conn, error) {
	cfg := d.Config.WithDefaults()
	if err := cfg.ValidateClientTransport(); err != nil {
		return nil, err
	}
	target, hostPort, err := websocketURL(address, cfg.TLS.Enabled)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.ConnectTimeout,
	}
	if strings.HasPrefix(target, "wss://") {
		tlsCfg, err := cfg.ClientTLSConfig(hostPort)
		if err != nil {
			return nil, err
		}
		dialer.TLSClientConfig = tlsCfg
	}

	conn, resp, err := dialer.DialContext(ctx, target, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Str("url", target).Msg("transport websocket connected")
	return &wsConn{conn: conn}, nil
}

func websocketURL(address string, secure bool) (string, string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", "", errors.New("transport: empty address")
	}
	if !strings.Contains(address, "://") {
		scheme := "ws"
		if secure {
			scheme = "wss"
		}
		address = scheme + "://" + address + "/"
	}
	u, err := url.Parse(address)
	if err != nil {
		return "", "", err
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return "", "", fmt.Errorf("transport: unsupported websocket scheme %q", u.Scheme)
	}
	hostPort := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "wss" {
			port = "443"
		}
		hostPort = net.JoinHostPort(u.Hostname(), port)
	}
	return u.String(), hostPort, nil
}

type wsConn struct {
	conn *websocket.Conn

	readMu sync.Mutex
	reader io.Reader

	writeMu sync.Mutex
}

func (c *wsConn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	for {
		if c.reader == nil {
			_, r, err := c.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			c.reader = r
		}
		n, err := c.reader.Read(p)
		if errors.Is(err, io.EOF) {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame on a best-effort basis before dropping the socket.
func (c *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.conn.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }
