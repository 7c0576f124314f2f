package lifecycle

import (
	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/world"
)

// HookInfo is the context handed to every despawn hook.
type HookInfo struct {
	Cause string
}

// DespawnHook observes one object leaving active play. Hooks run before
// visibility changes, so the object is still fully identified. A hook
// must not request despawn of the same object; the coordinator refuses
// that re-entry.
type DespawnHook func(o *world.Object, info HookInfo) error

type registeredHook struct {
	name string
	fn   DespawnHook
}

// HookRegistry holds despawn listeners with explicit ownership: whoever
// constructs it registers and the set is fixed after boot. Hooks fire
// synchronously in registration order. A failing or panicking hook is
// reported and the remaining hooks still run; hook errors never turn a
// committed despawn into a failure.
type HookRegistry struct {
	hooks []registeredHook
	log   *zap.Logger
}

func NewHookRegistry(log *zap.Logger) *HookRegistry {
	return &HookRegistry{log: log}
}

// RegisterHook appends a named listener. Names are for log attribution
// only; duplicates are allowed.
func (r *HookRegistry) RegisterHook(name string, fn DespawnHook) {
	r.hooks = append(r.hooks, registeredHook{name: name, fn: fn})
}

// Len returns the number of registered hooks.
func (r *HookRegistry) Len() int {
	return len(r.hooks)
}

// FireDespawnHooks invokes every hook for the object, in order.
func (r *HookRegistry) FireDespawnHooks(o *world.Object, info HookInfo) {
	for _, h := range r.hooks {
		r.fireOne(h, o, info)
	}
}

func (r *HookRegistry) fireOne(h registeredHook, o *world.Object, info HookInfo) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("despawn hook panicked",
				zap.String("hook", h.name),
				zap.Int32("object", o.ID),
				zap.Any("panic", rec),
			)
		}
	}()
	if err := h.fn(o, info); err != nil {
		r.log.Warn("despawn hook failed",
			zap.String("hook", h.name),
			zap.Int32("object", o.ID),
			zap.String("cause", info.Cause),
			zap.Error(err),
		)
	}
}
