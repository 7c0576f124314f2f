package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/world"
)

func TestHooksFireInRegistrationOrder(t *testing.T) {
	reg := NewHookRegistry(zap.NewNop())

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		n := name
		reg.RegisterHook(n, func(_ *world.Object, _ HookInfo) error {
			order = append(order, n)
			return nil
		})
	}
	require.Equal(t, 3, reg.Len())

	reg.FireDespawnHooks(&world.Object{ID: 1}, HookInfo{Cause: CauseCommand})
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestFailingHookDoesNotStopTheRest(t *testing.T) {
	reg := NewHookRegistry(zap.NewNop())

	ran := 0
	reg.RegisterHook("broken", func(_ *world.Object, _ HookInfo) error {
		return errors.New("boom")
	})
	reg.RegisterHook("after", func(_ *world.Object, _ HookInfo) error {
		ran++
		return nil
	})

	reg.FireDespawnHooks(&world.Object{ID: 2}, HookInfo{})
	require.Equal(t, 1, ran)
}

func TestPanickingHookIsIsolated(t *testing.T) {
	reg := NewHookRegistry(zap.NewNop())

	ran := 0
	reg.RegisterHook("panics", func(_ *world.Object, _ HookInfo) error {
		panic("hook exploded")
	})
	reg.RegisterHook("after", func(_ *world.Object, _ HookInfo) error {
		ran++
		return nil
	})

	require.NotPanics(t, func() {
		reg.FireDespawnHooks(&world.Object{ID: 3}, HookInfo{})
	})
	require.Equal(t, 1, ran)
}

func TestHookReceivesCause(t *testing.T) {
	reg := NewHookRegistry(zap.NewNop())

	var seen string
	reg.RegisterHook("cause", func(_ *world.Object, info HookInfo) error {
		seen = info.Cause
		return nil
	})

	reg.FireDespawnHooks(&world.Object{ID: 4}, HookInfo{Cause: CauseDecay})
	require.Equal(t, CauseDecay, seen)
}
