package souko

import "iter"

// delayedOp records one membership change that arrived while the filter was
// locked by an iterator. Replayed verbatim, in order, on final unlock.
type delayedOp struct {
	entity Entity
	added  bool
}

// Filter is the live set of entities matching a fixed include/exclude mask.
// Membership is maintained incrementally by the world's change dispatcher;
// Count and iteration never rescan pools.
//
// The dense array holds each member exactly once, in an order that is an
// internal detail but stable between mutations. sparse maps entity id to a
// 1-based dense position.
type Filter struct {
	world   *World
	include []int
	exclude []int
	hash    uint64

	dense  []Entity
	sparse []int32

	lockCount int
	delayed   []delayedOp
}

// Count returns the number of entities currently matching the mask.
func (f *Filter) Count() int {
	return len(f.dense)
}

// World returns the owning world.
func (f *Filter) World() *World {
	return f.world
}

// Iter yields each matching entity once. The filter is locked for the whole
// iteration: structural changes that affect this filter's membership are
// queued and applied when the outermost iterator is disposed, so the loop
// sees the membership snapshot taken at lock time even while it attaches or
// detaches components freely. Iterating the same filter from inside the loop
// nests; the queue drains when the last iterator finishes.
func (f *Filter) Iter() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		f.lock()
		defer f.unlock()
		for _, e := range f.dense {
			if !yield(e) {
				return
			}
		}
	}
}

// Entities returns the dense member array itself. Read-only, and only valid
// until the next structural change; prefer Iter.
func (f *Filter) Entities() []Entity {
	return f.dense
}

func (f *Filter) lock() {
	f.lockCount++
}

// unlock releases one iterator hold. Dropping the last hold replays the
// delayed queue in FIFO order through the eager paths, leaving the same
// membership an unlocked filter would have reached.
func (f *Filter) unlock() {
	if Debug && f.lockCount <= 0 {
		panicf("souko: filter unlock without a matching lock in world %q", f.world.name)
	}
	f.lockCount--
	if f.lockCount > 0 || len(f.delayed) == 0 {
		return
	}
	for i := 0; i < len(f.delayed); i++ {
		op := f.delayed[i]
		if op.added {
			f.addEntity(op.entity)
		} else {
			f.removeEntity(op.entity)
		}
	}
	f.delayed = f.delayed[:0]
}

// addEntity inserts e, or queues the insert while iterators hold the filter.
// Dispatcher-only entry point.
func (f *Filter) addEntity(e Entity) {
	if f.lockCount > 0 {
		f.delayed = append(f.delayed, delayedOp{entity: e, added: true})
		return
	}
	if Debug && f.sparse[e] > 0 {
		panicf("souko: entity %d already in filter, world %q", e, f.world.name)
	}
	f.dense = append(f.dense, e)
	f.sparse[e] = int32(len(f.dense))
}

// removeEntity deletes e by swapping the last member into its slot, or
// queues the delete while iterators hold the filter. Dispatcher-only.
func (f *Filter) removeEntity(e Entity) {
	if f.lockCount > 0 {
		f.delayed = append(f.delayed, delayedOp{entity: e, added: false})
		return
	}
	idx := f.sparse[e]
	if Debug && idx == 0 {
		panicf("souko: entity %d not in filter, world %q", e, f.world.name)
	}
	last := len(f.dense) - 1
	moved := f.dense[last]
	f.dense[idx-1] = moved
	f.sparse[moved] = idx
	f.dense = f.dense[:last]
	f.sparse[e] = 0
}

// compatible reports whether e satisfies the mask against current pool
// state: every include pool has e, no exclude pool does.
func (f *Filter) compatible(e Entity) bool {
	for _, id := range f.include {
		if !f.world.pools[id].has(e) {
			return false
		}
	}
	for _, id := range f.exclude {
		if f.world.pools[id].has(e) {
			return false
		}
	}
	return true
}

// compatibleWithout is compatible with pool `without` treated as absent on
// e. The dispatcher uses it to evaluate the membership just before an attach
// or just after a detach of that pool without consulting the in-flux pool.
func (f *Filter) compatibleWithout(e Entity, without int) bool {
	for _, id := range f.include {
		if id == without || !f.world.pools[id].has(e) {
			return false
		}
	}
	for _, id := range f.exclude {
		if id == without {
			continue
		}
		if f.world.pools[id].has(e) {
			return false
		}
	}
	return true
}

// resizeSparse follows entity-table growth.
func (f *Filter) resizeSparse(capacity int) {
	f.sparse = growTo(f.sparse, capacity)[:capacity]
}
