package host

import (
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/danmuck/worldlink/internal/world"
)

const (
	DefaultMoveRate        = 10.0
	DefaultMoveMinDistance = 0.01
)

// MoveSender throttles outbound position reports: at most perSecond sends,
// and none until the player has moved at least minDistance since the last one.
type MoveSender struct {
	limiter     *rate.Limiter
	minDistance float64
	last        world.Position
	sent        bool
}

func NewMoveSender(perSecond, minDistance float64) *MoveSender {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if minDistance < 0 {
		minDistance = 0
	}
	return &MoveSender{
		limiter:     rate.NewLimiter(limit, 1),
		minDistance: minDistance,
	}
}

// Offer calls send with pos when both the distance and rate gates pass. It
// reports whether a send happened.
func (m *MoveSender) Offer(now time.Time, pos world.Position, send func(world.Position) error) (bool, error) {
	if m.sent && distance(m.last, pos) < m.minDistance {
		return false, nil
	}
	if !m.limiter.AllowN(now, 1) {
		return false, nil
	}
	if err := send(pos); err != nil {
		return false, err
	}
	m.last = pos
	m.sent = true
	return true, nil
}

// Reset forgets the last sent position so the next offer always passes the
// distance gate.
func (m *MoveSender) Reset() {
	m.sent = false
}

func distance(a, b world.Position) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
