package world

import "github.com/rs/zerolog/log"

// World holds the remote player and NPC registries for one session.
type World struct {
	Players *Registry
	NPCs    *Registry
}

func New(players, npcs Presenter) *World {
	return &World{
		Players: NewRegistry(players),
		NPCs:    NewRegistry(npcs),
	}
}

// ApplySnapshot reconciles remote players against one authoritative snapshot.
func (w *World) ApplySnapshot(snapshot []EntitySnapshot, selfID string) {
	Reconcile(w.Players.IDs(), snapshot, selfID, w.Players)
}

// SpawnNPC is a no-op when id already exists.
func (w *World) SpawnNPC(id string, pos Position) bool {
	if !w.NPCs.create(id, pos) {
		return false
	}
	log.Debug().Str("npc", id).Msg("world npc spawned")
	return true
}

// UpdateNPC is a no-op when id does not exist.
func (w *World) UpdateNPC(id string, pos Position) bool {
	return w.NPCs.move(id, pos)
}

// DespawnNPC removes and destroys id when present.
func (w *World) DespawnNPC(id string) bool {
	if !w.NPCs.destroy(id) {
		return false
	}
	log.Debug().Str("npc", id).Msg("world npc despawned")
	return true
}

// Clear destroys every player and NPC.
func (w *World) Clear() {
	w.Players.Clear()
	w.NPCs.Clear()
}
