package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/worldlink/internal/protocol/session"
	"github.com/danmuck/worldlink/internal/testutil/testlog"
	"github.com/danmuck/worldlink/internal/testutil/tlstest"
	"github.com/gorilla/websocket"
)

func echoLines(t *testing.T, ln net.Listener) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if _, err := io.WriteString(conn, line); err != nil {
				return
			}
		}
	}()
}

func roundTrip(t *testing.T, conn Conn, line string) {
	t.Helper()
	if _, err := io.WriteString(conn, line); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != line {
		t.Fatalf("unexpected echo: got=%q want=%q", got, line)
	}
}

func TestNewDialerKinds(t *testing.T) {
	testlog.Start(t)

	cfg := session.DefaultConfig()
	if d, err := NewDialer("", cfg); err != nil {
		t.Fatalf("default kind: %v", err)
	} else if _, ok := d.(*TCPDialer); !ok {
		t.Fatalf("expected tcp dialer, got %T", d)
	}
	if d, err := NewDialer("WebSocket", cfg); err != nil {
		t.Fatalf("websocket kind: %v", err)
	} else if _, ok := d.(*WebSocketDialer); !ok {
		t.Fatalf("expected websocket dialer, got %T", d)
	}
	if _, err := NewDialer("carrier-pigeon", cfg); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestTCPDialerPlain(t *testing.T) {
	testlog.Start(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	echoLines(t, ln)

	d := &TCPDialer{Config: session.DefaultConfig()}
	conn, err := d.Dial(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	roundTrip(t, conn, "{\"id\":1,\"data\":{}}\n")
}

func TestTCPDialerMutualTLS(t *testing.T) {
	testlog.Start(t)

	ca := tlstest.NewAuthority(t, "worldlink-test-ca")
	serverCert, serverKey := ca.IssueLoopbackServer(t)
	clientCert, clientKey := ca.IssueClient(t, "worldlink-client")

	ln, err := tls.Listen("tcp", "127.0.0.1:0", ca.ServerConfig(t, serverCert, serverKey, true))
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	echoLines(t, ln)

	cfg := session.DefaultConfig()
	cfg.SecurityMode = session.SecurityModeProduction
	cfg.TLS = session.TLSConfig{
		Enabled:  true,
		Mutual:   true,
		CertFile: clientCert,
		KeyFile:  clientKey,
		CAFile:   ca.CAFile(),
	}
	d := &TCPDialer{Config: cfg}
	conn, err := d.Dial(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	roundTrip(t, conn, "{\"id\":4,\"data\":{\"channel\":\"global\",\"text\":\"hi\"}}\n")
}

func TestTCPDialerRejectsInvalidSecurity(t *testing.T) {
	testlog.Start(t)

	cfg := session.DefaultConfig()
	cfg.SecurityMode = session.SecurityModeProduction
	d := &TCPDialer{Config: cfg}
	if _, err := d.Dial(context.Background(), "127.0.0.1:1"); !errors.Is(err, session.ErrTLSRequired) {
		t.Fatalf("expected ErrTLSRequired, got %v", err)
	}
}

func TestWebSocketURL(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		in       string
		secure   bool
		url      string
		hostPort string
	}{
		{"127.0.0.1:7777", false, "ws://127.0.0.1:7777/", "127.0.0.1:7777"},
		{"game.example:7777", true, "wss://game.example:7777/", "game.example:7777"},
		{"ws://game.example/play", false, "ws://game.example/play", "game.example:80"},
		{"wss://game.example/play", false, "wss://game.example/play", "game.example:443"},
	}
	for _, tc := range cases {
		gotURL, gotHost, err := websocketURL(tc.in, tc.secure)
		if err != nil {
			t.Fatalf("websocketURL(%q): %v", tc.in, err)
		}
		if gotURL != tc.url || gotHost != tc.hostPort {
			t.Fatalf("websocketURL(%q) = %q %q, want %q %q", tc.in, gotURL, gotHost, tc.url, tc.hostPort)
		}
	}
	if _, _, err := websocketURL("http://game.example", false); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestWebSocketStreamsMessagesAsBytes(t *testing.T) {
	testlog.Start(t)

	upgrader := websocket.Upgrader{}
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// One frame split across two messages, then two frames in one message.
		_ = conn.WriteMessage(websocket.TextMessage, []byte("{\"id\":2,"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("\"data\":{}}\n"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("a\nb\n"))
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- string(msg)
		}
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	d := &WebSocketDialer{Config: session.DefaultConfig()}
	conn, err := d.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(conn)
	for _, want := range []string{"{\"id\":2,\"data\":{}}\n", "a\n", "b\n"} {
		got, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if got != want {
			t.Fatalf("unexpected line: got=%q want=%q", got, want)
		}
	}

	frame := "{\"id\":1,\"data\":{\"msg\":\"ping\"}}\n"
	if _, err := io.WriteString(conn, frame); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case got := <-received:
		if got != frame {
			t.Fatalf("server got %q, want %q", got, frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not receive frame")
	}
}
