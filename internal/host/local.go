package host

import (
	"github.com/rs/zerolog/log"

	"github.com/danmuck/worldlink/internal/world"
)

// LocalPlayer tracks the position of the controlled player. It is driven
// from the tick goroutine only.
type LocalPlayer struct {
	spawnPoints []world.Position
	pos         world.Position
	spawned     bool
	onSpawn     func(world.Position)
}

func NewLocalPlayer(spawnPoints []world.Position) *LocalPlayer {
	return &LocalPlayer{spawnPoints: spawnPoints}
}

// SpawnPoint maps a server spawn index onto the configured points. With no
// points configured every index maps to the origin.
func (l *LocalPlayer) SpawnPoint(index int) world.Position {
	if len(l.spawnPoints) == 0 {
		return world.Position{}
	}
	i := index % len(l.spawnPoints)
	if i < 0 {
		i += len(l.spawnPoints)
	}
	return l.spawnPoints[i]
}

func (l *LocalPlayer) SpawnLocal(index int) {
	l.pos = l.SpawnPoint(index)
	l.spawned = true
	log.Info().
		Int("spawn_index", index).
		Float64("x", l.pos.X).
		Float64("y", l.pos.Y).
		Float64("z", l.pos.Z).
		Msg("host local player spawned")
	if l.onSpawn != nil {
		l.onSpawn(l.pos)
	}
}

func (l *LocalPlayer) CorrectLocal(pos world.Position) {
	log.Debug().
		Float64("dx", pos.X-l.pos.X).
		Float64("dy", pos.Y-l.pos.Y).
		Float64("dz", pos.Z-l.pos.Z).
		Msg("host local player corrected")
	l.pos = pos
}

// Despawn forgets the player until the next spawn.
func (l *LocalPlayer) Despawn() {
	l.spawned = false
}

func (l *LocalPlayer) Position() (world.Position, bool) {
	return l.pos, l.spawned
}

func (l *LocalPlayer) moveTo(pos world.Position) {
	l.pos = pos
}
