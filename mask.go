package souko

import (
	"slices"
	"sort"

	"go.uber.org/zap"
)

// maskHashPrime mixes pool ids into a mask hash. Any well-distributed odd
// prime works; the value is inherited, not magic.
const maskHashPrime = 314159

// Mask is a transient builder accumulating include/exclude pool ids for a
// filter. Builders come from a world-owned free list and go back to it when
// End resolves them, so a Mask must not be touched after End.
type Mask struct {
	world   *World
	include []int
	exclude []int
	built   bool
}

// FilterOf returns a mask builder seeded with an include on T, the usual
// starting point of a query:
//
//	f := souko.Exc[Dead](souko.FilterOf[Position](w)).End(0)
func FilterOf[T any](w *World) *Mask {
	return Inc[T](w.Mask())
}

// Mask returns an empty builder. At least one include must be recorded
// before End.
func (w *World) Mask() *Mask {
	if Debug && w.destroyed {
		panicf("souko: Mask on destroyed world %q", w.name)
	}
	if n := len(w.freeMasks); n > 0 {
		m := w.freeMasks[n-1]
		w.freeMasks = w.freeMasks[:n-1]
		m.built = false
		return m
	}
	return &Mask{
		world:   w,
		include: make([]int, 0, 8),
		exclude: make([]int, 0, 4),
	}
}

// Inc records the pool id of T in the include list, creating the pool when T
// was never seen before. T must not already be included or excluded.
func Inc[T any](m *Mask) *Mask {
	id := GetPool[T](m.world).poolID
	if Debug {
		if m.built {
			panicf("souko: Inc on a mask already resolved by End")
		}
		if slices.Contains(m.include, id) || slices.Contains(m.exclude, id) {
			panicf("souko: pool %d already constrained on this mask", id)
		}
	}
	m.include = append(m.include, id)
	return m
}

// Exc records the pool id of T in the exclude list. Same constraints as Inc.
func Exc[T any](m *Mask) *Mask {
	id := GetPool[T](m.world).poolID
	if Debug {
		if m.built {
			panicf("souko: Exc on a mask already resolved by End")
		}
		if slices.Contains(m.include, id) || slices.Contains(m.exclude, id) {
			panicf("souko: pool %d already constrained on this mask", id)
		}
	}
	m.exclude = append(m.exclude, id)
	return m
}

// End canonicalizes the mask and resolves it to a filter. Equal masks, in
// any build order, resolve to the same filter instance; a new mask gets a
// freshly constructed filter seeded by one scan over the live entities.
// capacity sizes the dense array of a new filter, 0 meaning the world
// default. The builder is retired either way.
func (m *Mask) End(capacity int) *Filter {
	if Debug {
		if m.built {
			panicf("souko: End on a mask already resolved")
		}
		if len(m.include) == 0 {
			panicf("souko: mask without includes")
		}
	}
	w := m.world
	sort.Ints(m.include)
	sort.Ints(m.exclude)
	h := maskHash(m.include, m.exclude)
	for _, f := range w.filtersByHash[h] {
		if slices.Equal(f.include, m.include) && slices.Equal(f.exclude, m.exclude) {
			m.retire()
			return f
		}
	}
	if capacity <= 0 {
		capacity = w.filterCap
	}
	f := &Filter{
		world:   w,
		include: slices.Clone(m.include),
		exclude: slices.Clone(m.exclude),
		hash:    h,
		dense:   make([]Entity, 0, capacity),
		sparse:  make([]int32, w.entityCap),
		delayed: make([]delayedOp, 0, capacity),
	}
	for _, id := range f.include {
		w.filtersByInc[id] = append(w.filtersByInc[id], f)
	}
	for _, id := range f.exclude {
		w.filtersByExc[id] = append(w.filtersByExc[id], f)
	}
	for i := range w.entities {
		e := Entity(i)
		if w.entities[i].gen > 0 && f.compatible(e) {
			f.addEntity(e)
		}
	}
	w.filters = append(w.filters, f)
	w.filtersByHash[h] = append(w.filtersByHash[h], f)
	w.log.Debug("filter registered",
		zap.Ints("include", f.include),
		zap.Ints("exclude", f.exclude))
	m.retire()
	return f
}

// retire resets the builder and hands it back to the world free list. built
// stays raised until the builder is handed out again, so stale pointers trip
// the debug checks.
func (m *Mask) retire() {
	m.include = m.include[:0]
	m.exclude = m.exclude[:0]
	m.built = true
	m.world.freeMasks = append(m.world.freeMasks, m)
}

// maskHash folds the canonical (sorted, deduplicated) id lists into one
// value. Includes and excludes mix in opposite directions so swapping a pool
// between the lists changes the hash.
func maskHash(include, exclude []int) uint64 {
	h := uint64(len(include) + len(exclude))
	for _, id := range include {
		h = h*maskHashPrime + uint64(id)
	}
	for _, id := range exclude {
		h = h*maskHashPrime - uint64(id)
	}
	return h
}
