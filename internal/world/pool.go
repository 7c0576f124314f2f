package world

// PoolPolicy is consulted on every release. Implementations may raise or
// lower per-template capacity and veto individual objects.
type PoolPolicy interface {
	// Capacity returns the pool capacity for a template.
	// A value <= 0 falls back to the registry default.
	Capacity(templateID int32) int
	// CanPool may veto pooling one object. poolSize is the current
	// number of pooled instances for the object's template.
	CanPool(o *Object, poolSize int) bool
}

// PoolRegistry keeps inactive instances for reuse, keyed by template
// identity. Stacks are LIFO: the most recently released instance is the
// first acquired, which keeps test expectations deterministic.
//
// Membership invariants: an instance sits in at most one stack, never
// while active, and its Pooled flag mirrors membership exactly.
// Single-goroutine access (game loop, or one mirror's apply loop).
type PoolRegistry struct {
	pools      map[int32][]*Object
	defaultCap int
	policy     PoolPolicy
}

func NewPoolRegistry(defaultCapacity int) *PoolRegistry {
	if defaultCapacity <= 0 {
		defaultCapacity = 32
	}
	return &PoolRegistry{
		pools:      make(map[int32][]*Object),
		defaultCap: defaultCapacity,
	}
}

// SetPolicy installs an optional release policy. Nil clears it.
func (r *PoolRegistry) SetPolicy(p PoolPolicy) {
	r.policy = p
}

// TryAcquireOrCreate removes and returns one pooled instance for the
// template, or nil when none is available and the caller should build a
// fresh one. Reactivating the returned instance is the caller's job.
func (r *PoolRegistry) TryAcquireOrCreate(templateID int32) *Object {
	stack := r.pools[templateID]
	if len(stack) == 0 {
		return nil
	}
	o := stack[len(stack)-1]
	stack[len(stack)-1] = nil
	r.pools[templateID] = stack[:len(stack)-1]
	o.Pool.Pooled = false
	return o
}

// TryRelease offers an inactive object to its template's pool. Returns
// false when the object must be destroyed instead: not pool-eligible,
// still active, already pooled, vetoed by policy, or the pool is at
// capacity. A false return leaves the object untouched.
func (r *PoolRegistry) TryRelease(o *Object) bool {
	if o == nil || o.Pool == nil {
		return false
	}
	if o.Active || o.Slot != nil || o.Pool.Pooled {
		return false
	}
	size := len(r.pools[o.Pool.TemplateID])
	if r.policy != nil && !r.policy.CanPool(o, size) {
		return false
	}
	if size >= r.capacityFor(o.Pool.TemplateID) {
		return false
	}
	o.Pool.Pooled = true
	o.Gen++
	r.pools[o.Pool.TemplateID] = append(r.pools[o.Pool.TemplateID], o)
	return true
}

// Size returns the number of pooled instances for a template.
func (r *PoolRegistry) Size(templateID int32) int {
	return len(r.pools[templateID])
}

// TotalSize returns the number of pooled instances across all templates.
func (r *PoolRegistry) TotalSize() int {
	n := 0
	for _, stack := range r.pools {
		n += len(stack)
	}
	return n
}

// Contains reports whether the object currently sits in its pool.
func (r *PoolRegistry) Contains(o *Object) bool {
	if o == nil || o.Pool == nil || !o.Pool.Pooled {
		return false
	}
	for _, pooled := range r.pools[o.Pool.TemplateID] {
		if pooled == o {
			return true
		}
	}
	return false
}

func (r *PoolRegistry) capacityFor(templateID int32) int {
	if r.policy != nil {
		if c := r.policy.Capacity(templateID); c > 0 {
			return c
		}
	}
	return r.defaultCap
}
