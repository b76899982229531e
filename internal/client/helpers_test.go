package client

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/danmuck/worldlink/internal/protocol"
	"github.com/danmuck/worldlink/internal/protocol/session"
	"github.com/danmuck/worldlink/internal/transport"
	"github.com/danmuck/worldlink/internal/world"
)

const testSecret = "s3cret"

var fixedNow = time.Unix(1_700_000_000, 0)

type recordingPresenter struct {
	spawned   []string
	moved     []string
	destroyed []string
}

func (p *recordingPresenter) Spawn(id string, _ world.Position) world.Handle {
	p.spawned = append(p.spawned, id)
	return id
}

func (p *recordingPresenter) Move(h world.Handle, _ world.Position) {
	p.moved = append(p.moved, h.(string))
}

func (p *recordingPresenter) Destroy(h world.Handle) {
	p.destroyed = append(p.destroyed, h.(string))
}

type recordingLocal struct {
	spawns      []int
	corrections []world.Position
}

func (l *recordingLocal) SpawnLocal(i int)                { l.spawns = append(l.spawns, i) }
func (l *recordingLocal) CorrectLocal(pos world.Position) { l.corrections = append(l.corrections, pos) }

type harness struct {
	players     *recordingPresenter
	npcs        *recordingPresenter
	local       *recordingLocal
	chats       []protocol.Chat
	disconnects []error
}

func newHarness() *harness {
	return &harness{
		players: &recordingPresenter{},
		npcs:    &recordingPresenter{},
		local:   &recordingLocal{},
	}
}

func (h *harness) collaborators() Collaborators {
	return Collaborators{
		Players:      h.players,
		NPCs:         h.npcs,
		Local:        h.local,
		OnChat:       func(c protocol.Chat) { h.chats = append(h.chats, c) },
		OnDisconnect: func(cause error) { h.disconnects = append(h.disconnects, cause) },
	}
}

func testConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.HeartbeatInterval = -1
	return cfg
}

// pipeDialer hands the server side of an in-memory pipe to the test.
type pipeDialer struct {
	server chan net.Conn
}

func newPipeDialer() *pipeDialer {
	return &pipeDialer{server: make(chan net.Conn, 1)}
}

func (d *pipeDialer) Dial(_ context.Context, _ string) (transport.Conn, error) {
	client, server := net.Pipe()
	d.server <- server
	return client, nil
}

func (d *pipeDialer) accept(t *testing.T) *fakeServer {
	t.Helper()
	select {
	case conn := <-d.server:
		return &fakeServer{t: t, conn: conn, r: bufio.NewReader(conn)}
	case <-time.After(2 * time.Second):
		t.Fatalf("client never dialed")
		return nil
	}
}

type fakeServer struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func (f *fakeServer) send(id protocol.MessageID, payload any) {
	f.t.Helper()
	out, err := protocol.Encode(id, payload)
	if err != nil {
		f.t.Fatalf("encode %s: %v", id, err)
	}
	f.write(out)
}

func (f *fakeServer) write(b []byte) {
	f.t.Helper()
	_ = f.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := f.conn.Write(b); err != nil {
		f.t.Fatalf("server write: %v", err)
	}
}

func (f *fakeServer) expect(id protocol.MessageID) protocol.Message {
	f.t.Helper()
	_ = f.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := f.r.ReadBytes('\n')
	if err != nil {
		f.t.Fatalf("server read: %v", err)
	}
	msg, err := protocol.Decode(bytes.TrimSuffix(line, []byte{'\n'}))
	if err != nil {
		f.t.Fatalf("server decode: %v", err)
	}
	if msg.ID != id {
		f.t.Fatalf("unexpected message: got=%s want=%s", msg.ID, id)
	}
	return msg
}

// expectSilence asserts the client wrote nothing before closing or timing out.
func (f *fakeServer) expectSilence(wait time.Duration) {
	f.t.Helper()
	_ = f.conn.SetReadDeadline(time.Now().Add(wait))
	buf := make([]byte, 64)
	if n, _ := f.r.Read(buf); n > 0 {
		f.t.Fatalf("expected no frames, got %q", buf[:n])
	}
}

func newSession(t *testing.T, h *harness, dialer transport.Dialer, mutate func(*Options)) *Session {
	t.Helper()
	opts := Options{
		Address:  "pipe",
		Secret:   testSecret,
		Nickname: "tester",
		PlayerID: "local-1",
		Config:   testConfig(),
		Dialer:   dialer,
		Clock:    func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts, h.collaborators())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

// connectedSession runs the full handshake against a fake server.
func connectedSession(t *testing.T, h *harness, mutate func(*Options)) (*Session, *fakeServer, protocol.PlayerJoin) {
	t.Helper()
	d := newPipeDialer()
	s := newSession(t, h, d, mutate)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Connect(context.Background()) }()
	fs := d.accept(t)
	t.Cleanup(func() { _ = fs.conn.Close() })

	fs.send(protocol.MsgHandshakeChallenge, protocol.HandshakeChallenge{Nonce: "abc"})
	msg := fs.expect(protocol.MsgPlayerJoin)
	if err := <-errCh; err != nil {
		t.Fatalf("connect: %v", err)
	}
	join, err := protocol.PayloadAs[protocol.PlayerJoin](msg)
	if err != nil {
		t.Fatalf("join payload: %v", err)
	}

	fs.send(protocol.MsgPlayerIDAssigned, protocol.PlayerIDAssigned{AssignedID: "srv-1", SpawnIndex: 3})
	waitFor(t, s, func() bool { return s.State() == StateConnected })
	return s, fs, join
}

// waitFor ticks s until cond holds.
func waitFor(t *testing.T, s *Session, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.Tick()
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached; state=%s err=%v", s.State(), s.Err())
}

func setState(s *Session, st State, confirmed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.idConfirmed = confirmed
}
