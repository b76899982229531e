package host

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/danmuck/worldlink/internal/world"
)

// Wanderer random-walks on the XZ plane around an anchor point.
type Wanderer struct {
	rng     *rand.Rand
	anchor  world.Position
	radius  float64
	speed   float64
	heading float64
}

func NewWanderer(seed uint64, radius, speed float64) *Wanderer {
	if radius <= 0 {
		radius = 5
	}
	if speed <= 0 {
		speed = 2
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &Wanderer{rng: rng, radius: radius, speed: speed, heading: rng.Float64() * 2 * math.Pi}
}

// Anchor recenters the walk, typically on the spawn point.
func (w *Wanderer) Anchor(pos world.Position) {
	w.anchor = pos
}

// Step advances from by dt and returns the new position.
func (w *Wanderer) Step(from world.Position, dt time.Duration) world.Position {
	w.heading += (w.rng.Float64() - 0.5) * 0.6
	dx, dz := from.X-w.anchor.X, from.Z-w.anchor.Z
	if math.Hypot(dx, dz) > w.radius*0.9 {
		w.heading = math.Atan2(-dz, -dx)
	}
	step := w.speed * dt.Seconds()
	next := world.Position{
		X: from.X + math.Cos(w.heading)*step,
		Y: from.Y,
		Z: from.Z + math.Sin(w.heading)*step,
	}
	ndx, ndz := next.X-w.anchor.X, next.Z-w.anchor.Z
	if d := math.Hypot(ndx, ndz); d > w.radius {
		scale := w.radius / d
		next.X = w.anchor.X + ndx*scale
		next.Z = w.anchor.Z + ndz*scale
	}
	return next
}
