package netserver

import "sync"

// arbiter tracks which connected client currently owns the display and
// implements the disconnect-others epoch, guarded by a single mutex per the
// concurrency model's "current_thread_id, disconnect_epoch, thread id list:
// guarded by one mutex" rule.
type arbiter struct {
	mu      sync.Mutex
	nextID  uint32
	current uint32
	epoch   uint32
	ids     []uint32
}

// register assigns a new monotonically increasing client id and promotes it
// to current owner.
func (a *arbiter) register() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	id := a.nextID
	a.current = id
	a.ids = append(a.ids, id)
	return id
}

// isOwner reports whether id is the current owner.
func (a *arbiter) isOwner(id uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current == id
}

// requestDisconnectOthers records id as the disconnect-epoch, but only if id
// is the current owner.
func (a *arbiter) requestDisconnectOthers(id uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != id {
		return false
	}
	a.epoch = id
	return true
}

// shouldTerminate reports whether a client with the given id must end its
// receive loop because it registered strictly before the active
// disconnect-epoch. The epoch-setting owner's own id is excluded: it is the
// client that requested the disconnect, not one of the "others".
func (a *arbiter) shouldTerminate(id uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.epoch != 0 && id < a.epoch
}

// unregister removes id from the live set. If id was the owner, the most
// recently registered remaining id is promoted, unless id set the active
// disconnect-epoch: ownership then stays with id while the remaining clients
// terminate. Whenever the live set empties while an epoch is active, owner
// and epoch are both reset to 0. Returns the owner id afterwards, or 0 if
// there is none.
func (a *arbiter) unregister(id uint32) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, v := range a.ids {
		if v == id {
			a.ids = append(a.ids[:i], a.ids[i+1:]...)
			break
		}
	}

	if a.epoch != 0 && len(a.ids) == 0 {
		a.current = 0
		a.epoch = 0
		return 0
	}

	if a.current != id {
		return a.current
	}

	if a.epoch == id {
		return a.current
	}

	if len(a.ids) > 0 {
		a.current = a.ids[len(a.ids)-1]
	} else {
		a.current = 0
	}
	return a.current
}

// threadSetEmpty reports whether every registered client has unregistered.
func (a *arbiter) threadSetEmpty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ids) == 0
}
