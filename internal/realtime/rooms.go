package realtime

import "sync"

// Registry is the process-wide table of note rooms: note id to the ordered set
// of user handles currently present. Presence is a UI signal only; membership
// is never an authorization statement. Only the hub's connection lifecycle
// mutates the registry.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// room keeps insertion order so presence lists render stably.
type room struct {
	order   []string
	present map[string]struct{}
}

// NewRegistry constructs an empty room registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room)}
}

// Join adds handle to the note's room, creating the room lazily. A duplicate
// join leaves membership unchanged; the returned snapshot is broadcast either
// way.
func (r *Registry) Join(noteID, handle string) (members []string, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[noteID]
	if !ok {
		rm = &room{present: make(map[string]struct{})}
		r.rooms[noteID] = rm
	}

	if _, present := rm.present[handle]; !present {
		rm.present[handle] = struct{}{}
		rm.order = append(rm.order, handle)
		changed = true
	}

	return rm.snapshot(), changed
}

// Leave removes handle from the note's room. Idempotent: leaving a room the
// handle is not in (or that does not exist) is a no-op. The room is dropped
// when its last member leaves.
func (r *Registry) Leave(noteID, handle string) (members []string, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[noteID]
	if !ok {
		return []string{}, false
	}

	if _, present := rm.present[handle]; present {
		delete(rm.present, handle)
		for i, h := range rm.order {
			if h == handle {
				rm.order = append(rm.order[:i], rm.order[i+1:]...)
				break
			}
		}
		changed = true
	}

	if len(rm.present) == 0 {
		delete(r.rooms, noteID)
		return []string{}, changed
	}

	return rm.snapshot(), changed
}

// Members returns the current presence list for the note in join order.
func (r *Registry) Members(noteID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[noteID]
	if !ok {
		return []string{}
	}
	return rm.snapshot()
}

// Len reports the number of occupied rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Snapshot returns every occupied room with its member count.
func (r *Registry) Snapshot() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.rooms))
	for noteID, rm := range r.rooms {
		out[noteID] = len(rm.present)
	}
	return out
}

func (rm *room) snapshot() []string {
	out := make([]string, len(rm.order))
	copy(out, rm.order)
	return out
}
