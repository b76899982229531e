// Package world keeps the local cache of remote entities in step with the
// server's authoritative view.
//
// Everything here runs on the consumer goroutine; nothing is safe for
// concurrent use.
package world

// Position is a point in world space.
type Position struct {
	X float64
	Y float64
	Z float64
}

// EntitySnapshot is one entity's position at one server tick.
type EntitySnapshot struct {
	ID       string
	Position Position
}

// Handle is an opaque value owned by the presentation layer.
type Handle any

// Presenter materializes entities. Handles it returns are passed back to it
// unchanged and never inspected here.
type Presenter interface {
	Spawn(id string, pos Position) Handle
	Move(h Handle, pos Position)
	Destroy(h Handle)
}

// Lifecycle is the id-keyed surface Reconcile drives.
type Lifecycle interface {
	Create(id string, pos Position)
	Move(id string, pos Position)
	Destroy(id string)
}

// NopPresenter discards every call.
type NopPresenter struct{}

func (NopPresenter) Spawn(string, Position) Handle { return nil }
func (NopPresenter) Move(Handle, Position)         {}
func (NopPresenter) Destroy(Handle)                {}
