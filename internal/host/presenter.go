package host

import (
	"github.com/rs/zerolog"

	"github.com/danmuck/worldlink/internal/world"
)

type logHandle struct {
	id  string
	pos world.Position
}

// LogPresenter stands in for a renderer: it records entity lifecycle events
// in the log at debug level.
type LogPresenter struct {
	kind   string
	logger zerolog.Logger
}

func NewLogPresenter(kind string, logger zerolog.Logger) *LogPresenter {
	return &LogPresenter{kind: kind, logger: logger.With().Str("entity", kind).Logger()}
}

func (p *LogPresenter) Spawn(id string, pos world.Position) world.Handle {
	p.logger.Debug().Str("id", id).Float64("x", pos.X).Float64("z", pos.Z).Msg("entity spawned")
	return &logHandle{id: id, pos: pos}
}

func (p *LogPresenter) Move(h world.Handle, pos world.Position) {
	lh, ok := h.(*logHandle)
	if !ok {
		return
	}
	lh.pos = pos
	p.logger.Trace().Str("id", lh.id).Float64("x", pos.X).Float64("z", pos.Z).Msg("entity moved")
}

func (p *LogPresenter) Destroy(h world.Handle) {
	lh, ok := h.(*logHandle)
	if !ok {
		return
	}
	p.logger.Debug().Str("id", lh.id).Msg("entity destroyed")
}
