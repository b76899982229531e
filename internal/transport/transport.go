// Package transport opens the byte streams a client session runs over.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/danmuck/worldlink/internal/protocol/session"
)

// Kind names a transport implementation in configuration.
type Kind string

const (
	KindTCP       Kind = "tcp"
	KindWebSocket Kind = "websocket"
)

var ErrUnknownKind = errors.New("transport: unknown kind")

// Conn is an ordered, reliable byte stream with per-direction deadlines.
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Dialer opens a Conn to address.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// NewDialer returns the dialer registered for kind. An empty kind means tcp.
func NewDialer(kind Kind, cfg session.Config) (Dialer, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(string(kind)))) {
	case "", KindTCP:
		return &TCPDialer{Config: cfg}, nil
	case KindWebSocket, "ws":
		return &WebSocketDialer{Config: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
