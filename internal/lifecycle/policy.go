package lifecycle

import (
	"github.com/Drabants/unitystation/internal/data"
	"github.com/Drabants/unitystation/internal/scripting"
	"github.com/Drabants/unitystation/internal/world"
)

// PoolPolicy decides pool admission from the template table, optionally
// letting the Lua policy script adjust capacity or veto individual
// objects. Implements world.PoolPolicy.
type PoolPolicy struct {
	templates  *data.TemplateTable
	engine     *scripting.Engine // nil = table-only
	defaultCap int
}

func NewPoolPolicy(templates *data.TemplateTable, engine *scripting.Engine, defaultCapacity int) *PoolPolicy {
	return &PoolPolicy{
		templates:  templates,
		engine:     engine,
		defaultCap: defaultCapacity,
	}
}

// Capacity returns the pool capacity for a template: the template's own
// value, or the configured default, possibly overridden by the script.
func (p *PoolPolicy) Capacity(templateID int32) int {
	tpl := p.templates.Get(templateID)
	base := p.defaultCap
	if tpl != nil && tpl.PoolCapacity > 0 {
		base = tpl.PoolCapacity
	}
	if p.engine == nil || tpl == nil {
		return base
	}
	return p.engine.PoolCapacity(scripting.PoolPolicyContext{
		TemplateID:         templateID,
		TemplateName:       tpl.Name,
		Category:           tpl.Category,
		ConfiguredCapacity: base,
	})
}

// CanPool vetoes objects with no known template or a template that is
// not pool-eligible, then gives the script the final word.
func (p *PoolPolicy) CanPool(o *world.Object, poolSize int) bool {
	tpl := p.templates.Get(o.TemplateID)
	if tpl == nil || !tpl.PoolEligible {
		return false
	}
	if p.engine == nil {
		return true
	}
	return p.engine.CanPool(scripting.PoolPolicyContext{
		TemplateID:         o.TemplateID,
		TemplateName:       tpl.Name,
		Category:           tpl.Category,
		PoolSize:           poolSize,
		ConfiguredCapacity: p.Capacity(o.TemplateID),
	})
}
