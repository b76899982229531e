package world

// Reconcile makes lc match snapshot. Unknown ids are created, every listed id
// is moved (a fresh create is moved too), and ids in previous that the snapshot
// omits are destroyed. selfID is never created, moved, or destroyed.
func Reconcile(previous map[string]struct{}, snapshot []EntitySnapshot, selfID string, lc Lifecycle) {
	received := make(map[string]struct{}, len(snapshot))
	for _, entry := range snapshot {
		if entry.ID == selfID {
			received[entry.ID] = struct{}{}
			continue
		}
		_, known := previous[entry.ID]
		_, seen := received[entry.ID]
		if !known && !seen {
			lc.Create(entry.ID, entry.Position)
		}
		received[entry.ID] = struct{}{}
		lc.Move(entry.ID, entry.Position)
	}

	for id := range previous {
		if id == selfID {
			continue
		}
		if _, ok := received[id]; !ok {
			lc.Destroy(id)
		}
	}
}
