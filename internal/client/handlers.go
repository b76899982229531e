package client

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/worldlink/internal/observability"
	"github.com/danmuck/worldlink/internal/protocol"
	"github.com/danmuck/worldlink/internal/world"
)

// handler runs on the read goroutine. Anything that touches consumer state
// must be enqueued.
type handler func(s *Session, m protocol.Message)

func typed[T any](fn func(s *Session, p T)) handler {
	return func(s *Session, m protocol.Message) {
		p, err := protocol.PayloadAs[T](m)
		if err != nil {
			log.Warn().Err(err).Str("message", m.ID.String()).Msg("client handler payload mismatch")
			return
		}
		fn(s, p)
	}
}

func defaultHandlers() map[protocol.MessageID]handler {
	return map[protocol.MessageID]handler{
		protocol.MsgHandshakeChallenge: typed(handleChallenge),
		protocol.MsgPlayerIDAssigned:   typed(handleIDAssigned),
		protocol.MsgWorldUpdate:        typed(handleWorldUpdate),
		protocol.MsgChat:               typed(handleChat),
		protocol.MsgPlayerCorrection:   typed(handleCorrection),
		protocol.MsgNPCSpawn:           typed(handleNPCSpawn),
		protocol.MsgNPCUpdate:          typed(handleNPCUpdate),
		protocol.MsgNPCDespawn:         typed(handleNPCDespawn),
		protocol.MsgPing:               typed(handlePing),
		protocol.MsgPong:               typed(handlePong),
	}
}

// HandledIDs lists the message ids with a registered handler, ascending.
func HandledIDs() []protocol.MessageID {
	ids := make([]protocol.MessageID, 0, len(defaultHandlers()))
	for id := range defaultHandlers() {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// route decodes one frame and hands it to its handler.
func (s *Session) route(f []byte) {
	msg, err := protocol.Decode(f)
	if err != nil {
		s.decodeFailed(err)
		return
	}
	observability.RecordFrameReceived(msg.ID.String())
	s.handle(msg)
}

func (s *Session) handle(msg protocol.Message) {
	h, ok := s.handlers[msg.ID]
	if !ok {
		if msg.ID.Known() {
			log.Debug().Str("message", msg.ID.String()).Msg("client message ignored")
			return
		}
		observability.RecordUnknownMessage()
		log.Warn().Int("id", int(msg.ID)).Msg("client unrecognized message id")
		return
	}
	h(s, msg)
}

// decodeFailed drops the frame, unless it was the challenge the handshake is
// waiting for.
func (s *Session) decodeFailed(err error) {
	observability.RecordDecodeError()
	var de *protocol.DecodeError
	if errors.As(err, &de) && de.ID == protocol.MsgHandshakeChallenge && s.State() == StateAwaitingHandshake {
		s.offerChallenge(challengeResult{err: fmt.Errorf("%w: %v", ErrHandshakeMalformed, de.Err)})
		return
	}
	// The raw frame may carry chat text, so only its size is logged.
	ev := log.Warn()
	if de != nil {
		ev = ev.Err(de.Err).Int("id", int(de.ID)).Int("raw_len", len(de.Raw))
	} else {
		ev = ev.Err(err)
	}
	ev.Msg("client frame decode failed")
}

func handleChallenge(s *Session, p protocol.HandshakeChallenge) {
	s.offerChallenge(challengeResult{nonce: p.Nonce})
}

func handleIDAssigned(s *Session, p protocol.PlayerIDAssigned) {
	s.queue.Enqueue(func() { s.adoptID(p) })
}

func (s *Session) adoptID(p protocol.PlayerIDAssigned) {
	s.mu.Lock()
	ready := s.state == StateAuthenticating || (s.state == StateAwaitingHandshake && s.joinSent)
	if !ready {
		state := s.state
		s.mu.Unlock()
		log.Warn().Str("state", state.String()).Msg("client id assignment ignored")
		return
	}
	prev := s.localID
	s.localID = p.AssignedID
	s.idConfirmed = true
	s.setStateLocked(StateConnected)
	started := s.startedAt
	s.mu.Unlock()

	observability.RecordHandshake(time.Since(started))
	log.Info().
		Str("player", p.AssignedID).
		Str("requested", prev).
		Int("spawn_index", p.SpawnIndex).
		Msg("client session established")
	if s.collab.Local != nil {
		s.collab.Local.SpawnLocal(p.SpawnIndex)
	}
}

func handleWorldUpdate(s *Session, p protocol.WorldUpdate) {
	snapshot := make([]world.EntitySnapshot, 0, len(p.Players))
	for _, pl := range p.Players {
		snapshot = append(snapshot, world.EntitySnapshot{
			ID:       pl.ID,
			Position: world.Position{X: pl.X, Y: pl.Y, Z: pl.Z},
		})
	}
	s.queue.Enqueue(func() {
		self, confirmed := s.identity()
		if !confirmed {
			log.Warn().Int("players", len(snapshot)).Msg("client world update before id assignment skipped")
			return
		}
		s.world.ApplySnapshot(snapshot, self)
	})
}

func handleChat(s *Session, p protocol.Chat) {
	s.queue.Enqueue(func() {
		self, confirmed := s.identity()
		if confirmed && p.PlayerID == self {
			return
		}
		log.Debug().Str("channel", p.Channel).Str("from", p.Sender()).Msg("client chat received")
		if s.collab.OnChat != nil {
			s.collab.OnChat(p)
		}
	})
}

func handleCorrection(s *Session, p protocol.PlayerCorrection) {
	pos := world.Position{X: p.X, Y: p.Y, Z: p.Z}
	s.queue.Enqueue(func() {
		if s.collab.Local != nil {
			s.collab.Local.CorrectLocal(pos)
		}
	})
}

func npcPosition(p protocol.NPCState) world.Position {
	return world.Position{X: p.X, Y: p.Y, Z: p.Z}
}

func handleNPCSpawn(s *Session, p protocol.NPCState) {
	s.queue.Enqueue(func() { s.world.SpawnNPC(p.NPCID, npcPosition(p)) })
}

func handleNPCUpdate(s *Session, p protocol.NPCState) {
	s.queue.Enqueue(func() { s.world.UpdateNPC(p.NPCID, npcPosition(p)) })
}

func handleNPCDespawn(s *Session, p protocol.NPCState) {
	s.queue.Enqueue(func() { s.world.DespawnNPC(p.NPCID) })
}

func handlePing(s *Session, p protocol.Ping) {
	if err := s.Send(protocol.MsgPong, protocol.Pong{Msg: "pong"}); err != nil && !errors.Is(err, ErrNotConnected) {
		log.Debug().Err(err).Msg("client pong failed")
	}
}

func handlePong(s *Session, p protocol.Pong) {
	log.Trace().Str("msg", p.Msg).Msg("client keepalive")
}
