package souko

import "reflect"

// Resources is a registry of shared singletons keyed by concrete type: at
// most one value per type at a time. It is the shared-data carrier handed to
// NewSystems, holding the things systems need besides world state — clocks,
// asset tables, network sessions.
//
// Slots are stored in a slice with a free list so ids stay dense under
// add/remove churn.
type Resources struct {
	items   []any
	byType  map[reflect.Type]int
	freeIds []int
}

// NewResources creates an empty registry.
func NewResources() *Resources {
	return &Resources{
		items:  make([]any, 0, 8),
		byType: make(map[reflect.Type]int, 8),
	}
}

// AddResource registers res as the singleton for type T. Registering a type
// twice is a contract violation.
func AddResource[T any](r *Resources, res *T) {
	if res == nil {
		panicf("souko: AddResource with nil %s", reflect.TypeFor[T]())
	}
	t := reflect.TypeFor[T]()
	if _, ok := r.byType[t]; ok {
		panicf("souko: resource %s already registered", t)
	}
	var id int
	if n := len(r.freeIds); n > 0 {
		id = r.freeIds[n-1]
		r.freeIds = r.freeIds[:n-1]
		r.items[id] = res
	} else {
		r.items = append(r.items, res)
		id = len(r.items) - 1
	}
	r.byType[t] = id
}

// GetResource returns the registered T, or nil when none is present.
func GetResource[T any](r *Resources) *T {
	if id, ok := r.byType[reflect.TypeFor[T]()]; ok {
		return r.items[id].(*T)
	}
	return nil
}

// HasResource reports whether a T is registered.
func HasResource[T any](r *Resources) bool {
	_, ok := r.byType[reflect.TypeFor[T]()]
	return ok
}

// RemoveResource drops the registered T, freeing its slot. No-op when
// absent.
func RemoveResource[T any](r *Resources) {
	t := reflect.TypeFor[T]()
	id, ok := r.byType[t]
	if !ok {
		return
	}
	delete(r.byType, t)
	r.items[id] = nil
	r.freeIds = append(r.freeIds, id)
}

// Len returns the number of registered resources.
func (r *Resources) Len() int {
	return len(r.byType)
}

// Clear removes every resource.
func (r *Resources) Clear() {
	for i := range r.items {
		r.items[i] = nil
	}
	r.items = r.items[:0]
	clear(r.byType)
	r.freeIds = r.freeIds[:0]
}
