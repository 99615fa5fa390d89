package souko

import (
	"math"
	"reflect"

	"go.uber.org/zap"
)

// Debug enables the contract checks: misuse of a dead entity, duplicate
// component adds, unbalanced filter locks, leaked zero-component entities.
// Every check panics with a diagnostic. Flip to false to compile the checks
// out of release builds.
const Debug = true

const defaultCapacity = 512

// Config carries the initial capacities of a World. Zero values fall back to
// 512 each. Logger defaults to a nop logger; supply one to see pool/filter
// registration and leak reports.
type Config struct {
	// Name identifies the world in diagnostics and multi-world containers.
	Name string
	// EntityCapacity is the initial size of the entity table.
	EntityCapacity int
	// RecycledCapacity is the initial size of the recycled-id stack.
	RecycledCapacity int
	// PoolCapacity is the initial dense capacity of each component pool.
	PoolCapacity int
	// FilterCapacity is the default dense capacity of new filters.
	FilterCapacity int
	Logger         *zap.Logger
}

// World owns the entity table, the component pools and all filters built on
// them. It is single-threaded: nothing here is safe for concurrent use.
type World struct {
	name      string
	log       *zap.Logger
	entities  []entityData
	entityCap int
	recycled  []Entity

	pools      []poolRef
	poolByType map[reflect.Type]poolRef
	poolCap    int

	filters       []*Filter
	filtersByHash map[uint64][]*Filter
	filtersByInc  [][]*Filter
	filtersByExc  [][]*Filter
	filterCap     int

	freeMasks []*Mask

	leaked    []Entity
	destroyed bool
}

// NewWorld creates an empty world with the given capacities.
func NewWorld(cfg Config) *World {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.EntityCapacity <= 0 {
		cfg.EntityCapacity = defaultCapacity
	}
	if cfg.RecycledCapacity <= 0 {
		cfg.RecycledCapacity = defaultCapacity
	}
	if cfg.PoolCapacity <= 0 {
		cfg.PoolCapacity = defaultCapacity
	}
	if cfg.FilterCapacity <= 0 {
		cfg.FilterCapacity = defaultCapacity
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &World{
		name:          cfg.Name,
		log:           logger.With(zap.String("world", cfg.Name)),
		entities:      make([]entityData, 0, cfg.EntityCapacity),
		entityCap:     cfg.EntityCapacity,
		recycled:      make([]Entity, 0, cfg.RecycledCapacity),
		pools:         make([]poolRef, 0, 16),
		poolByType:    make(map[reflect.Type]poolRef, 16),
		poolCap:       cfg.PoolCapacity,
		filters:       make([]*Filter, 0, 16),
		filtersByHash: make(map[uint64][]*Filter, 16),
		filterCap:     cfg.FilterCapacity,
	}
	if Debug {
		w.leaked = make([]Entity, 0, 256)
	}
	return w
}

// Name returns the world name given at construction.
func (w *World) Name() string {
	return w.name
}

// IsAlive reports whether the world has not been destroyed yet.
func (w *World) IsAlive() bool {
	return !w.destroyed
}

// Destroy deletes every live entity and marks the world dead. Any use of the
// world after Destroy is undefined.
func (w *World) Destroy() {
	if Debug && w.destroyed {
		panicf("souko: Destroy on already destroyed world %q", w.name)
	}
	for i := range w.entities {
		if w.entities[i].gen > 0 {
			w.DelEntity(Entity(i))
		}
	}
	w.destroyed = true
	w.entities = nil
	w.recycled = nil
	w.pools = nil
	w.poolByType = nil
	w.filters = nil
	w.filtersByHash = nil
	w.filtersByInc = nil
	w.filtersByExc = nil
	w.freeMasks = nil
	w.leaked = nil
	w.log.Debug("world destroyed")
}

// NewEntity allocates an entity id: a recycled id with a bumped generation
// when one is available, otherwise a fresh slot with generation 1. Growing
// the entity table propagates the new capacity to every pool and filter.
//
// A freshly created entity has no components. Attach at least one before
// control returns to the system driver, or the debug leak check fires.
func (w *World) NewEntity() Entity {
	if Debug && w.destroyed {
		panicf("souko: NewEntity on destroyed world %q", w.name)
	}
	var e Entity
	if n := len(w.recycled); n > 0 {
		e = w.recycled[n-1]
		w.recycled = w.recycled[:n-1]
		ed := &w.entities[e]
		ed.gen = -ed.gen
	} else {
		if len(w.entities) == w.entityCap {
			w.growEntities(w.entityCap * 2)
		}
		e = Entity(len(w.entities))
		w.entities = append(w.entities, entityData{gen: 1})
	}
	if Debug {
		w.leaked = append(w.leaked, e)
	}
	return e
}

// DelEntity detaches all components from the entity and kills it. Each
// detach goes through the owning pool, so filters observe every removal; the
// detach that drops the component count to zero performs the kill itself.
// Deleting an already dead entity is a no-op.
func (w *World) DelEntity(e Entity) {
	if Debug && (e < 0 || int(e) >= len(w.entities)) {
		panicf("souko: DelEntity id %d out of range in world %q", e, w.name)
	}
	ed := &w.entities[e]
	if ed.gen <= 0 {
		return
	}
	if ed.compCount > 0 {
		idx := 0
		for ed.compCount > 0 && idx < len(w.pools) {
			for ; idx < len(w.pools); idx++ {
				if w.pools[idx].has(e) {
					w.pools[idx].del(e)
					idx++
					break
				}
			}
		}
		if Debug && ed.compCount != 0 {
			panicf("souko: %d components unaccounted for on entity %d in world %q", ed.compCount, e, w.name)
		}
		return
	}
	w.killEntity(e, ed)
}

// killEntity flips the generation negative and recycles the id. The stored
// magnitude is the generation of the next life; at the int16 maximum it
// restarts at 1, never at the 0 sentinel.
func (w *World) killEntity(e Entity, ed *entityData) {
	if ed.gen == math.MaxInt16 {
		ed.gen = -1
	} else {
		ed.gen = -(ed.gen + 1)
	}
	w.recycled = append(w.recycled, e)
}

// IsEntityAlive reports whether e currently refers to a live entity.
func (w *World) IsEntityAlive(e Entity) bool {
	return e >= 0 && int(e) < len(w.entities) && w.entities[e].gen > 0
}

// EntityGen returns the raw generation record of e: positive for a live
// entity, non-positive for a dead or unborn one.
func (w *World) EntityGen(e Entity) int16 {
	return w.entities[e].gen
}

// ComponentsCount returns the number of components attached to e.
func (w *World) ComponentsCount(e Entity) int {
	if e < 0 || int(e) >= len(w.entities) {
		return 0
	}
	return int(w.entities[e].compCount)
}

// AllEntities appends every live entity id to buf and returns it. Entities
// that are alive but hold no components are included; they only exist
// transiently inside structural callbacks.
func (w *World) AllEntities(buf []Entity) []Entity {
	for i := range w.entities {
		if w.entities[i].gen > 0 {
			buf = append(buf, Entity(i))
		}
	}
	return buf
}

// EntityComponents appends a boxed snapshot of each component attached to e.
// Reflection-grade enumeration for inspectors and dumps, not a hot path.
func (w *World) EntityComponents(e Entity, buf []any) []any {
	if Debug && !w.IsEntityAlive(e) {
		panicf("souko: EntityComponents of dead entity %d in world %q", e, w.name)
	}
	for _, p := range w.pools {
		if p.has(e) {
			buf = append(buf, p.getRaw(e))
		}
	}
	return buf
}

// growEntities widens the entity table and every entity-indexed side array.
func (w *World) growEntities(newCap int) {
	w.entities = growTo(w.entities, newCap)
	w.entityCap = newCap
	for _, p := range w.pools {
		p.resize(newCap)
	}
	for _, f := range w.filters {
		f.resizeSparse(newCap)
	}
}

// registerPool wires a freshly created pool into the world directories.
func (w *World) registerPool(t reflect.Type, p poolRef) {
	w.pools = append(w.pools, p)
	w.poolByType[t] = p
	w.filtersByInc = append(w.filtersByInc, nil)
	w.filtersByExc = append(w.filtersByExc, nil)
	w.log.Debug("pool registered",
		zap.String("component", t.String()),
		zap.Int("pool", p.id()))
}

// onEntityChange is the change dispatcher: it pushes one attach or detach of
// pool poolID on entity e to every filter whose mask references that pool.
//
// For added it runs after the presence bit and component count were updated;
// for removed it runs before they are cleared. Filters indexed by exclude are
// evaluated through the counterfactual check that treats poolID as absent, so
// both directions see a consistent before/after pair.
func (w *World) onEntityChange(e Entity, poolID int, added bool) {
	incList := w.filtersByInc[poolID]
	excList := w.filtersByExc[poolID]
	if added {
		for _, f := range incList {
			if f.compatible(e) {
				f.addEntity(e)
			}
		}
		for _, f := range excList {
			if f.compatibleWithout(e, poolID) {
				f.removeEntity(e)
			}
		}
		return
	}
	for _, f := range incList {
		if f.compatible(e) {
			f.removeEntity(e)
		}
	}
	for _, f := range excList {
		if f.compatibleWithout(e, poolID) {
			f.addEntity(e)
		}
	}
}

// checkLeaks scans entities created since the previous check and reports the
// first one that is still alive with zero components. Debug only; the systems
// layer calls this after every callback.
func (w *World) checkLeaks() (Entity, bool) {
	if !Debug {
		return -1, false
	}
	for _, e := range w.leaked {
		ed := &w.entities[e]
		if ed.gen > 0 && ed.compCount == 0 {
			return e, true
		}
	}
	w.leaked = w.leaked[:0]
	return -1, false
}

// checkFilterLocks reports a filter whose lock counter is still raised.
func (w *World) checkFilterLocks() (*Filter, bool) {
	if !Debug {
		return nil, false
	}
	for _, f := range w.filters {
		if f.lockCount > 0 {
			return f, true
		}
	}
	return nil, false
}
