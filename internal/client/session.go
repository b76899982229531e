// Package client implements the session layer of a game client: transport
// ownership, the challenge/response handshake, and routing of inbound
// messages onto the consumer's dispatch queue.
//
// A Session has two execution contexts. A background goroutine owns the
// blocking read loop; everything that touches entity or chat state runs as a
// dispatch action when the host calls Tick. Sends may come from any goroutine.
package client

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/worldlink/internal/auth"
	"github.com/danmuck/worldlink/internal/dispatch"
	"github.com/danmuck/worldlink/internal/observability"
	"github.com/danmuck/worldlink/internal/protocol"
	"github.com/danmuck/worldlink/internal/protocol/frame"
	"github.com/danmuck/worldlink/internal/protocol/session"
	"github.com/danmuck/worldlink/internal/transport"
	"github.com/danmuck/worldlink/internal/world"
)

const (
	DefaultChatChannel = "global"
	readBufferSize     = 4096
)

// LocalPlayer receives events about the player this client controls.
type LocalPlayer interface {
	SpawnLocal(spawnIndex int)
	CorrectLocal(pos world.Position)
}

// Collaborators are the consumer-side hooks. All of them are invoked from Tick.
type Collaborators struct {
	Players      world.Presenter
	NPCs         world.Presenter
	Local        LocalPlayer
	OnChat       func(protocol.Chat)
	OnDisconnect func(cause error)
}

type Options struct {
	Address     string
	Secret      string
	Nickname    string
	PlayerID    string
	ChatChannel string
	Config      session.Config
	Dialer      transport.Dialer
	FrameLimits frame.Limits
	// Clock supplies the handshake timestamp. Defaults to time.Now.
	Clock func() time.Time
}

// Status is a point-in-time copy of session state, safe to read from any
// goroutine. Entity counts are refreshed on every Tick.
type Status struct {
	State       State
	LocalID     string
	IDConfirmed bool
	Players     int
	NPCs        int
	Err         error
}

type challengeResult struct {
	nonce string
	err   error
}

// Session is one connection attempt. It is not reusable once Closed or Failed.
type Session struct {
	opts     Options
	cfg      session.Config
	collab   Collaborators
	queue    *dispatch.Queue
	world    *world.World
	handlers map[protocol.MessageID]handler
	frames   *frame.Reader

	mu          sync.Mutex
	state       State
	localID     string
	idConfirmed bool
	joinSent    bool
	err         error
	conn        transport.Conn
	cancel      context.CancelFunc
	startedAt   time.Time
	players     int
	npcs        int

	writeMu sync.Mutex

	challenge chan challengeResult
	readDone  chan struct{}
}

func New(opts Options, collab Collaborators) (*Session, error) {
	opts.Address = strings.TrimSpace(opts.Address)
	if opts.Address == "" {
		return nil, ErrMissingAddress
	}
	if opts.Secret == "" {
		return nil, ErrMissingSecret
	}
	cfg := opts.Config.WithDefaults()
	if opts.Dialer == nil {
		opts.Dialer = &transport.TCPDialer{Config: cfg}
	}
	if strings.TrimSpace(opts.PlayerID) == "" {
		id, err := newLocalID()
		if err != nil {
			return nil, err
		}
		opts.PlayerID = id
	}
	if strings.TrimSpace(opts.Nickname) == "" {
		opts.Nickname = opts.PlayerID
	}
	if strings.TrimSpace(opts.ChatChannel) == "" {
		opts.ChatChannel = DefaultChatChannel
	}
	if opts.FrameLimits.MaxFrameBytes <= 0 {
		opts.FrameLimits = frame.DefaultLimits()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Session{
		opts:      opts,
		cfg:       cfg,
		collab:    collab,
		queue:     dispatch.NewQueue(),
		world:     world.New(collab.Players, collab.NPCs),
		handlers:  defaultHandlers(),
		frames:    frame.NewReader(opts.FrameLimits),
		state:     StateDisconnected,
		localID:   opts.PlayerID,
		challenge: make(chan challengeResult, 1),
		readDone:  make(chan struct{}),
	}, nil
}

func newLocalID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return "player-" + hex.EncodeToString(b[:]), nil
}

// Connect dials, starts the read loop, and answers the server challenge. It
// returns once the join has been sent; the session becomes Connected when the
// id assignment is drained by Tick. ctx bounds the dial and handshake only.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	conn, err := s.opts.Dialer.Dial(ctx, s.opts.Address)
	if err != nil {
		err = fmt.Errorf("client: dial %s: %w", s.opts.Address, err)
		s.fail(err)
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.state != StateConnecting {
		s.mu.Unlock()
		cancel()
		_ = conn.Close()
		return ErrNotConnected
	}
	s.conn = conn
	s.cancel = cancel
	s.startedAt = time.Now()
	s.setStateLocked(StateAwaitingHandshake)
	s.mu.Unlock()

	log.Info().Str("addr", s.opts.Address).Str("player", s.opts.PlayerID).Msg("client connected, awaiting challenge")
	go s.readLoop(loopCtx, conn)

	if err := s.handshake(ctx); err != nil {
		s.fail(err)
		if cause := s.Err(); cause != nil {
			return cause
		}
		return err
	}
	if hb := s.cfg.HeartbeatInterval; hb > 0 {
		go s.heartbeat(loopCtx, hb)
	}
	return nil
}

func (s *Session) handshake(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.HandshakeTimeout)
	defer timer.Stop()

	var nonce string
	select {
	case res := <-s.challenge:
		if res.err != nil {
			return res.err
		}
		nonce = res.nonce
	case <-timer.C:
		return ErrHandshakeTimeout
	case <-s.readDone:
		return ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	if strings.TrimSpace(nonce) == "" {
		return ErrHandshakeNonce
	}

	id := s.LocalID()
	ts := s.opts.Clock().Unix()
	join := protocol.PlayerJoin{
		PreferredID: id,
		Nickname:    s.opts.Nickname,
		TS:          ts,
		HMAC:        auth.ComputeJoinCode(s.opts.Secret, nonce, id, ts),
	}
	s.mu.Lock()
	s.joinSent = true
	s.mu.Unlock()
	if err := s.Send(protocol.MsgPlayerJoin, join); err != nil {
		return err
	}
	s.transition(StateAwaitingHandshake, StateAuthenticating)
	log.Debug().Str("player", id).Int64("ts", ts).Msg("client join sent")
	return nil
}

// offerChallenge hands a challenge to the waiting handshake. Only the first
// one counts.
func (s *Session) offerChallenge(res challengeResult) {
	if s.State() != StateAwaitingHandshake {
		log.Debug().Msg("client challenge ignored outside handshake")
		return
	}
	select {
	case s.challenge <- res:
	default:
		log.Warn().Msg("client duplicate challenge dropped")
	}
}

func (s *Session) readLoop(ctx context.Context, conn transport.Conn) {
	defer close(s.readDone)
	buf := make([]byte, readBufferSize)
	for {
		if rt := s.cfg.ReadTimeout; rt > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(rt))
		}
		n, err := conn.Read(buf)
		if n > 0 {
			for f, ferr := range s.frames.Feed(buf[:n]) {
				if ferr != nil {
					observability.RecordDecodeError()
					log.Warn().Err(ferr).Msg("client frame dropped")
					continue
				}
				s.route(f)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.fail(readError(err))
			return
		}
	}
}

func readError(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrSessionDead
	}
	if errors.Is(err, io.EOF) {
		return ErrTransportClosed
	}
	return fmt.Errorf("%w: %v", ErrTransportClosed, err)
}

func (s *Session) heartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.State() != StateConnected {
				continue
			}
			err := s.Send(protocol.MsgPing, protocol.Ping{Msg: "ping"})
			if err != nil && !errors.Is(err, ErrNotConnected) {
				return
			}
		}
	}
}

// Send encodes and writes one frame. Outside Connected it returns
// ErrNotConnected; the join is additionally allowed while awaiting the
// handshake. A write failure fails the session.
func (s *Session) Send(id protocol.MessageID, payload any) error {
	s.mu.Lock()
	state, conn := s.state, s.conn
	s.mu.Unlock()
	if !sendAllowed(state, id) || conn == nil {
		return ErrNotConnected
	}

	out, err := protocol.Encode(id, payload)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if wt := s.cfg.WriteTimeout; wt > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(wt))
	}
	if _, err := conn.Write(out); err != nil {
		err = fmt.Errorf("%w: write %s: %v", ErrTransportClosed, id, err)
		s.fail(err)
		return err
	}
	observability.RecordFrameSent(id.String())
	return nil
}

func sendAllowed(state State, id protocol.MessageID) bool {
	switch state {
	case StateConnected:
		return true
	case StateAwaitingHandshake:
		return id == protocol.MsgPlayerJoin
	default:
		return false
	}
}

// SendMove reports the local player position.
func (s *Session) SendMove(pos world.Position) error {
	return s.Send(protocol.MsgPlayerMove, protocol.PlayerMove{
		ID: s.LocalID(),
		X:  pos.X,
		Y:  pos.Y,
		Z:  pos.Z,
	})
}

// SendChat posts text on the configured channel.
func (s *Session) SendChat(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyChat
	}
	return s.Send(protocol.MsgChat, protocol.Chat{Channel: s.opts.ChatChannel, Text: text})
}

// Tick drains pending actions on the caller's goroutine and returns how many
// ran. Hosts call it once per frame.
func (s *Session) Tick() int {
	n := s.queue.Drain()
	players, npcs := s.world.Players.Len(), s.world.NPCs.Len()
	s.mu.Lock()
	s.players, s.npcs = players, npcs
	s.mu.Unlock()
	return n
}

// Close stops the read loop and closes the transport. The disconnect
// callback runs on the next Tick.
func (s *Session) Close() error {
	return s.terminate(StateClosed, nil)
}

// Shutdown closes the session and drains the final actions.
func (s *Session) Shutdown() error {
	err := s.Close()
	s.Tick()
	return err
}

func (s *Session) fail(cause error) {
	_ = s.terminate(StateFailed, cause)
}

func (s *Session) terminate(to State, cause error) error {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return nil
	}
	from := s.state
	s.err = cause
	s.setStateLocked(to)
	conn, cancel := s.conn, s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var closeErr error
	if conn != nil {
		closeErr = conn.Close()
	}

	if to == StateFailed {
		log.Warn().Err(cause).Str("from", from.String()).Msg("client session failed")
	} else {
		log.Info().Str("from", from.String()).Msg("client session closed")
	}
	if from.open() {
		s.queue.Enqueue(func() {
			s.world.Clear()
			if s.collab.OnDisconnect != nil {
				s.collab.OnDisconnect(cause)
			}
		})
	}
	return closeErr
}

func (s *Session) setStateLocked(to State) {
	s.state = to
	observability.RecordTransition(to.String())
}

// transition moves from -> to and reports whether it happened.
func (s *Session) transition(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.setStateLocked(to)
	return true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LocalID is the locally generated id until the server assigns one.
func (s *Session) LocalID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localID
}

func (s *Session) identity() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localID, s.idConfirmed
}

// Err returns the cause of a Failed session.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:       s.state,
		LocalID:     s.localID,
		IDConfirmed: s.idConfirmed,
		Players:     s.players,
		NPCs:        s.npcs,
		Err:         s.err,
	}
}

// World exposes the entity registries. Only use it from the Tick goroutine.
func (s *Session) World() *world.World {
	return s.world
}
