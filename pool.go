package souko

import "reflect"

// AutoResetter is the opt-in reinitialization capability for component types.
// When *T implements it, the pool calls AutoReset once when a dense slot is
// first allocated and again on every detach. A slot recycled from the free
// list therefore still holds whatever AutoReset left behind at detach time
// and is not reset again on the next Add. Types without the capability are
// zeroed on detach instead.
//
// AutoReset runs while the world is mid-operation; it must not create or
// delete entities or attach/detach components.
type AutoResetter interface {
	AutoReset()
}

// poolRef is the untyped surface of a pool, letting the world hold pools of
// different component types in one slice. The typed surface is reached
// through the *Pool[T] handle returned by GetPool.
type poolRef interface {
	id() int
	itemType() reflect.Type
	has(e Entity) bool
	del(e Entity)
	resize(capacity int)
	getRaw(e Entity) any
}

// Pool stores every T component in the world as a sparse/dense pair:
// sparse[entity] is a 1-based index into dense, 0 meaning absent. Dense slot
// 0 is reserved so the zero sparse entry needs no extra presence bit.
// Detached dense slots go on a free list and are reused by later adds, so a
// dense index is only stable while the component stays attached.
type Pool[T any] struct {
	world     *World
	poolID    int
	typ       reflect.Type
	sparse    []int32
	dense     []T
	freeSlots []int32
	autoReset func(*T)
}

// GetPool returns the world's pool for component type T, creating and
// registering it on first call. Pool ids are assigned in registration order
// and stay stable for the world's lifetime.
func GetPool[T any](w *World) *Pool[T] {
	if Debug && w.destroyed {
		panicf("souko: GetPool on destroyed world %q", w.name)
	}
	t := reflect.TypeFor[T]()
	if p, ok := w.poolByType[t]; ok {
		return p.(*Pool[T])
	}
	p := &Pool[T]{
		world:     w,
		poolID:    len(w.pools),
		typ:       t,
		sparse:    make([]int32, w.entityCap),
		dense:     make([]T, 1, w.poolCap+1),
		freeSlots: make([]int32, 0, defaultCapacity),
	}
	var zero T
	if _, ok := any(&zero).(AutoResetter); ok {
		p.autoReset = func(item *T) {
			any(item).(AutoResetter).AutoReset()
		}
	}
	w.registerPool(t, p)
	return p
}

// ID returns the world-unique id of this pool.
func (p *Pool[T]) ID() int {
	return p.poolID
}

// World returns the owning world.
func (p *Pool[T]) World() *World {
	return p.world
}

// Add attaches a T to a live entity that does not have one yet and returns a
// pointer to the slot. The pointer stays valid until another Add grows the
// dense array; re-fetch with Get rather than caching it.
func (p *Pool[T]) Add(e Entity) *T {
	if Debug {
		if !p.world.IsEntityAlive(e) {
			panicf("souko: Add %s on dead entity %d in world %q", p.typ, e, p.world.name)
		}
		if p.sparse[e] > 0 {
			panicf("souko: %s already attached to entity %d in world %q", p.typ, e, p.world.name)
		}
	}
	var idx int32
	if n := len(p.freeSlots); n > 0 {
		idx = p.freeSlots[n-1]
		p.freeSlots = p.freeSlots[:n-1]
	} else {
		var zero T
		p.dense = append(p.dense, zero)
		idx = int32(len(p.dense) - 1)
		if p.autoReset != nil {
			p.autoReset(&p.dense[idx])
		}
	}
	p.sparse[e] = idx
	p.world.entities[e].compCount++
	p.world.onEntityChange(e, p.poolID, true)
	return &p.dense[idx]
}

// Get returns a pointer to the T attached to e.
func (p *Pool[T]) Get(e Entity) *T {
	if Debug {
		if !p.world.IsEntityAlive(e) {
			panicf("souko: Get %s on dead entity %d in world %q", p.typ, e, p.world.name)
		}
		if p.sparse[e] == 0 {
			panicf("souko: Get %s absent on entity %d in world %q", p.typ, e, p.world.name)
		}
	}
	return &p.dense[p.sparse[e]]
}

// Has reports whether e has a T attached.
func (p *Pool[T]) Has(e Entity) bool {
	if Debug && !p.world.IsEntityAlive(e) {
		panicf("souko: Has %s on dead entity %d in world %q", p.typ, e, p.world.name)
	}
	return p.sparse[e] > 0
}

// Del detaches the T from e, a no-op when none is attached. Filters are
// notified before the slot is cleared. When this was the entity's last
// component the entity is killed and its id recycled.
func (p *Pool[T]) Del(e Entity) {
	if Debug && (e < 0 || int(e) >= len(p.world.entities)) {
		panicf("souko: Del %s id %d out of range in world %q", p.typ, e, p.world.name)
	}
	idx := p.sparse[e]
	if idx == 0 {
		return
	}
	p.world.onEntityChange(e, p.poolID, false)
	p.sparse[e] = 0
	p.freeSlots = append(p.freeSlots, idx)
	if p.autoReset != nil {
		p.autoReset(&p.dense[idx])
	} else {
		var zero T
		p.dense[idx] = zero
	}
	ed := &p.world.entities[e]
	ed.compCount--
	if ed.compCount == 0 {
		p.world.DelEntity(e)
	}
}

// Raw returns a boxed copy of the T attached to e. Reflection-style
// enumeration only; use Get everywhere else.
func (p *Pool[T]) Raw(e Entity) any {
	return p.getRaw(e)
}

func (p *Pool[T]) id() int {
	return p.poolID
}

func (p *Pool[T]) itemType() reflect.Type {
	return p.typ
}

func (p *Pool[T]) has(e Entity) bool {
	return p.sparse[e] > 0
}

func (p *Pool[T]) del(e Entity) {
	p.Del(e)
}

func (p *Pool[T]) resize(capacity int) {
	p.sparse = growTo(p.sparse, capacity)[:capacity]
}

func (p *Pool[T]) getRaw(e Entity) any {
	if Debug && p.sparse[e] == 0 {
		panicf("souko: raw read of %s absent on entity %d in world %q", p.typ, e, p.world.name)
	}
	return p.dense[p.sparse[e]]
}
