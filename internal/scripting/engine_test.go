package scripting

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("no/such/dir", zap.NewNop())
	require.NoError(t, err, "missing script dir is not an error")
	t.Cleanup(e.Close)
	return e
}

func TestPoolCapacityFallbackWithoutScript(t *testing.T) {
	e := newTestEngine(t)
	got := e.PoolCapacity(PoolPolicyContext{TemplateID: 7, ConfiguredCapacity: 32})
	require.Equal(t, 32, got)
}

func TestPoolCapacityFromScript(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.LoadString(`
function pool_capacity(ctx)
    if ctx.category == "debris" then
        return 64
    end
    return ctx.capacity
end
`))

	require.Equal(t, 64, e.PoolCapacity(PoolPolicyContext{Category: "debris", ConfiguredCapacity: 32}))
	require.Equal(t, 32, e.PoolCapacity(PoolPolicyContext{Category: "item", ConfiguredCapacity: 32}))
}

func TestPoolCapacityBadReturnFallsBack(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.LoadString(`function pool_capacity(ctx) return "lots" end`))
	require.Equal(t, 32, e.PoolCapacity(PoolPolicyContext{ConfiguredCapacity: 32}))

	require.NoError(t, e.LoadString(`function pool_capacity(ctx) return -5 end`))
	require.Equal(t, 32, e.PoolCapacity(PoolPolicyContext{ConfiguredCapacity: 32}))
}

func TestCanPoolVeto(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.LoadString(`
function can_pool(ctx)
    return ctx.category ~= "device"
end
`))

	require.False(t, e.CanPool(PoolPolicyContext{Category: "device"}))
	require.True(t, e.CanPool(PoolPolicyContext{Category: "item"}))
}

func TestCanPoolDefaultsToTrue(t *testing.T) {
	e := newTestEngine(t)
	require.True(t, e.CanPool(PoolPolicyContext{Category: "item"}))
}

func TestScriptErrorFallsBack(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.LoadString(`function can_pool(ctx) error("boom") end`))
	require.True(t, e.CanPool(PoolPolicyContext{}), "a broken script never blocks pooling")

	require.NoError(t, e.LoadString(`function pool_capacity(ctx) error("boom") end`))
	require.Equal(t, 16, e.PoolCapacity(PoolPolicyContext{ConfiguredCapacity: 16}))
}

func TestScriptSeesContextFields(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.LoadString(`
function pool_capacity(ctx)
    if ctx.template_id == 7 and ctx.template_name == "wrench" and ctx.pool_size == 3 then
        return 99
    end
    return 0
end
`))

	got := e.PoolCapacity(PoolPolicyContext{
		TemplateID:         7,
		TemplateName:       "wrench",
		PoolSize:           3,
		ConfiguredCapacity: 1,
	})
	require.Equal(t, 99, got)
}
