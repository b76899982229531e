// Package host drives client sessions from a tick loop: it owns the consumer
// goroutine, reconnects with backoff, and throttles outbound movement.
package host

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/worldlink/internal/client"
	"github.com/danmuck/worldlink/internal/protocol"
	"github.com/danmuck/worldlink/internal/protocol/session"
	"github.com/danmuck/worldlink/internal/world"
)

const DefaultTickInterval = 50 * time.Millisecond

type Config struct {
	// Client is the template for every session. PlayerID is replaced by the
	// server-assigned id after the first successful handshake.
	Client             client.Options
	TickInterval       time.Duration
	MaxConnectAttempts int
	// Zero MoveRate or MoveMinDistance disables that gate.
	MoveRate           float64
	MoveMinDistance    float64
	SpawnPoints        []world.Position
	Wander             bool
	WanderRadius       float64
	Players            world.Presenter
	NPCs               world.Presenter
	OnChat             func(protocol.Chat)
}

// Runner owns the tick goroutine for a sequence of sessions.
type Runner struct {
	cfg      Config
	local    *LocalPlayer
	moves    *MoveSender
	wanderer *Wanderer
	rng      *rand.Rand

	mu       sync.RWMutex
	current  *client.Session
	lastID   string
	attempts int
}

func NewRunner(cfg Config) *Runner {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	cfg.Client.Config = cfg.Client.Config.WithDefaults()

	r := &Runner{
		cfg:   cfg,
		local: NewLocalPlayer(cfg.SpawnPoints),
		moves: NewMoveSender(cfg.MoveRate, cfg.MoveMinDistance),
		rng:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	if cfg.Wander {
		r.wanderer = NewWanderer(uint64(time.Now().UnixNano()), cfg.WanderRadius, 0)
		r.local.onSpawn = r.wanderer.Anchor
	}
	return r
}

// Run connects and ticks until ctx is done or MaxConnectAttempts consecutive
// attempts fail without reaching Connected.
func (r *Runner) Run(ctx context.Context) error {
	for {
		established, err := r.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}

		r.mu.Lock()
		if established {
			r.attempts = 0
		} else {
			r.attempts++
		}
		attempt := r.attempts
		r.mu.Unlock()

		if limit := r.cfg.MaxConnectAttempts; !established && limit > 0 && attempt >= limit {
			return fmt.Errorf("host: giving up after %d attempts: %w", attempt, err)
		}
		delay := session.NextBackoffDelay(r.cfg.Client.Config.Backoff, attempt, r.rng)
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("host session ended")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// runOnce drives one session to its end and reports whether it ever reached
// Connected.
func (r *Runner) runOnce(ctx context.Context) (bool, error) {
	sess, err := r.newSession()
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	r.current = sess
	r.mu.Unlock()

	if err := sess.Connect(ctx); err != nil {
		sess.Tick()
		return false, err
	}
	return r.drive(ctx, sess)
}

func (r *Runner) newSession() (*client.Session, error) {
	opts := r.cfg.Client
	r.mu.RLock()
	if r.lastID != "" {
		opts.PlayerID = r.lastID
	}
	r.mu.RUnlock()

	r.local.Despawn()
	r.moves.Reset()
	return client.New(opts, client.Collaborators{
		Players: r.cfg.Players,
		NPCs:    r.cfg.NPCs,
		Local:   r.local,
		OnChat:  r.cfg.OnChat,
		OnDisconnect: func(cause error) {
			r.local.Despawn()
		},
	})
}

func (r *Runner) drive(ctx context.Context, sess *client.Session) (bool, error) {
	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	established := false
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			_ = sess.Shutdown()
			return established, ctx.Err()
		case now := <-ticker.C:
			sess.Tick()
			st := sess.Status()
			if st.State.Terminal() {
				sess.Tick()
				if st.Err == nil {
					return established, client.ErrTransportClosed
				}
				return established, st.Err
			}
			if st.IDConfirmed && !established {
				established = true
				r.mu.Lock()
				r.lastID = st.LocalID
				r.mu.Unlock()
			}
			r.step(now, now.Sub(last), sess)
			last = now
		}
	}
}

// step advances the wander bot and reports movement.
func (r *Runner) step(now time.Time, dt time.Duration, sess *client.Session) {
	pos, ok := r.local.Position()
	if !ok {
		return
	}
	if r.wanderer != nil {
		pos = r.wanderer.Step(pos, dt)
		r.local.moveTo(pos)
	}
	if _, err := r.moves.Offer(now, pos, sess.SendMove); err != nil && !errors.Is(err, client.ErrNotConnected) {
		log.Debug().Err(err).Msg("host move send failed")
	}
}

// Status reports the current session, or Disconnected before the first one.
func (r *Runner) Status() client.Status {
	r.mu.RLock()
	sess := r.current
	r.mu.RUnlock()
	if sess == nil {
		return client.Status{State: client.StateDisconnected}
	}
	return sess.Status()
}
