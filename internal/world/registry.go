package world

import "sort"

// Registry maps entity ids to presentation handles and implements Lifecycle
// on top of a Presenter. Create on a known id and Move or Destroy on an unknown
// id are no-ops.
type Registry struct {
	presenter Presenter
	handles   map[string]Handle
}

func NewRegistry(p Presenter) *Registry {
	if p == nil {
		p = NopPresenter{}
	}
	return &Registry{
		presenter: p,
		handles:   make(map[string]Handle),
	}
}

var _ Lifecycle = (*Registry)(nil)

// Create spawns id unless it is already registered.
func (r *Registry) Create(id string, pos Position) {
	r.create(id, pos)
}

func (r *Registry) create(id string, pos Position) bool {
	if _, ok := r.handles[id]; ok {
		return false
	}
	r.handles[id] = r.presenter.Spawn(id, pos)
	return true
}

func (r *Registry) Move(id string, pos Position) {
	r.move(id, pos)
}

func (r *Registry) move(id string, pos Position) bool {
	h, ok := r.handles[id]
	if !ok {
		return false
	}
	r.presenter.Move(h, pos)
	return true
}

func (r *Registry) Destroy(id string) {
	r.destroy(id)
}

func (r *Registry) destroy(id string) bool {
	h, ok := r.handles[id]
	if !ok {
		return false
	}
	delete(r.handles, id)
	r.presenter.Destroy(h)
	return true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.handles[id]
	return ok
}

// Handle returns the presentation handle for id.
func (r *Registry) Handle(id string) (Handle, bool) {
	h, ok := r.handles[id]
	return h, ok
}

func (r *Registry) Len() int {
	return len(r.handles)
}

// IDs returns a copy of the registered id set.
func (r *Registry) IDs() map[string]struct{} {
	out := make(map[string]struct{}, len(r.handles))
	for id := range r.handles {
		out[id] = struct{}{}
	}
	return out
}

// SortedIDs returns registered ids in lexical order.
func (r *Registry) SortedIDs() []string {
	out := make([]string, 0, len(r.handles))
	for id := range r.handles {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear destroys every entry.
func (r *Registry) Clear() {
	for _, id := range r.SortedIDs() {
		r.destroy(id)
	}
}
