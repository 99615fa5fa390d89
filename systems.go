package souko

import (
	"reflect"

	"go.uber.org/zap"
)

// The system interfaces. A system implements any subset; the Systems
// container dispatches each phase to the systems that declare it.
type (
	// PreInitSystem runs before every InitSystem.
	PreInitSystem interface {
		PreInit(s *Systems)
	}
	// InitSystem runs once after registration, in registration order.
	InitSystem interface {
		Init(s *Systems)
	}
	// RunSystem runs every tick, in registration order.
	RunSystem interface {
		Run(s *Systems)
	}
	// DestroySystem runs at teardown, in reverse registration order.
	DestroySystem interface {
		Destroy(s *Systems)
	}
	// PostDestroySystem runs after every DestroySystem, in reverse order.
	PostDestroySystem interface {
		PostDestroy(s *Systems)
	}
)

// EntityLeaked is published on the systems event bus when the debug check
// finds a live entity with no components after a system callback.
type EntityLeaked struct {
	World  string
	System string
	Entity Entity
}

// FilterLockHeld is published when a filter lock survives a system callback.
type FilterLockHeld struct {
	World  string
	System string
}

// Systems drives an ordered list of systems over a default world, optional
// named worlds, a shared resource registry and an event bus. After each Init
// and Run callback, in debug mode, every attached world is checked for
// leaked zero-component entities and unbalanced filter locks; a hit is
// published, logged and then fatal.
type Systems struct {
	world     *World
	worlds    map[string]*World
	all       []any
	runs      []RunSystem
	resources *Resources
	events    *EventBus
	log       *zap.Logger
}

// NewSystems creates a system container over the default world. resources
// may be nil; an empty registry is created then.
func NewSystems(w *World, resources *Resources) *Systems {
	if resources == nil {
		resources = NewResources()
	}
	return &Systems{
		world:     w,
		worlds:    make(map[string]*World, 2),
		all:       make([]any, 0, 16),
		runs:      make([]RunSystem, 0, 16),
		resources: resources,
		events:    NewEventBus(),
		log:       w.log,
	}
}

// Add registers a system. Registration order defines execution order.
func (s *Systems) Add(system any) *Systems {
	if Debug {
		switch system.(type) {
		case PreInitSystem, InitSystem, RunSystem, DestroySystem, PostDestroySystem:
		default:
			panicf("souko: %T implements no system interface", system)
		}
	}
	s.all = append(s.all, system)
	if r, ok := system.(RunSystem); ok {
		s.runs = append(s.runs, r)
	}
	return s
}

// AddWorld attaches an extra world under a name for systems that shard state
// across worlds.
func (s *Systems) AddWorld(w *World, name string) *Systems {
	if Debug {
		if name == "" {
			panicf("souko: AddWorld with empty name")
		}
		if _, ok := s.worlds[name]; ok {
			panicf("souko: world %q already attached", name)
		}
	}
	s.worlds[name] = w
	return s
}

// World returns the default world.
func (s *Systems) World() *World {
	return s.world
}

// WorldByName returns an attached world, or nil if the name is unknown.
func (s *Systems) WorldByName(name string) *World {
	return s.worlds[name]
}

// Resources returns the shared-data registry.
func (s *Systems) Resources() *Resources {
	return s.resources
}

// Events returns the container's event bus.
func (s *Systems) Events() *EventBus {
	return s.events
}

// Init runs all PreInit callbacks, then all Init callbacks, in registration
// order.
func (s *Systems) Init() {
	for _, sys := range s.all {
		if p, ok := sys.(PreInitSystem); ok {
			p.PreInit(s)
			s.checkWorlds(sys)
		}
	}
	for _, sys := range s.all {
		if i, ok := sys.(InitSystem); ok {
			i.Init(s)
			s.checkWorlds(sys)
		}
	}
}

// Run runs every RunSystem once, in registration order.
func (s *Systems) Run() {
	for _, sys := range s.runs {
		sys.Run(s)
		s.checkWorlds(sys)
	}
}

// Destroy runs Destroy callbacks in reverse registration order, then
// PostDestroy callbacks in reverse order. The worlds themselves are left to
// the caller.
func (s *Systems) Destroy() {
	for i := len(s.all) - 1; i >= 0; i-- {
		if d, ok := s.all[i].(DestroySystem); ok {
			d.Destroy(s)
			s.checkWorlds(s.all[i])
		}
	}
	for i := len(s.all) - 1; i >= 0; i-- {
		if d, ok := s.all[i].(PostDestroySystem); ok {
			d.PostDestroy(s)
		}
	}
}

// checkWorlds is the post-callback debug audit of every attached world.
func (s *Systems) checkWorlds(system any) {
	if !Debug {
		return
	}
	sysName := reflect.TypeOf(system).String()
	s.checkWorld(s.world, sysName)
	for _, w := range s.worlds {
		s.checkWorld(w, sysName)
	}
}

func (s *Systems) checkWorld(w *World, sysName string) {
	if !w.IsAlive() {
		return
	}
	if e, ok := w.checkLeaks(); ok {
		Publish(s.events, EntityLeaked{World: w.name, System: sysName, Entity: e})
		s.log.Error("entity left without components after system",
			zap.String("system", sysName),
			zap.String("world", w.name),
			zap.Int32("entity", e))
		panicf("souko: entity %d leaked with no components after %s in world %q", e, sysName, w.name)
	}
	if _, ok := w.checkFilterLocks(); ok {
		Publish(s.events, FilterLockHeld{World: w.name, System: sysName})
		s.log.Error("filter lock held after system",
			zap.String("system", sysName),
			zap.String("world", w.name))
		panicf("souko: filter lock still held after %s in world %q", sysName, w.name)
	}
}

// delHereSystem implements the auto-removal convenience: every tick it
// detaches T from each entity that has one.
type delHereSystem[T any] struct {
	pool   *Pool[T]
	filter *Filter
}

// DelHere builds a run system that clears every T in the world each tick.
// Typical use: one-frame event components that systems attach to signal each
// other and that must not outlive the frame.
func DelHere[T any](w *World) RunSystem {
	return &delHereSystem[T]{
		pool:   GetPool[T](w),
		filter: FilterOf[T](w).End(0),
	}
}

func (d *delHereSystem[T]) Run(*Systems) {
	for e := range d.filter.Iter() {
		d.pool.Del(e)
	}
}
