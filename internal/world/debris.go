package world

// DecayTracker lists debris objects whose remaining lifetime is counted
// in ticks. Expired debris is despawned by the decay system; despawning
// through any other path must untrack, which a lifecycle hook does.
type DecayTracker struct {
	byID map[int32]*Object
}

func NewDecayTracker() *DecayTracker {
	return &DecayTracker{byID: make(map[int32]*Object)}
}

// Track starts counting down an object's DecayTicks.
func (t *DecayTracker) Track(o *Object) {
	if o == nil || o.DecayTicks <= 0 {
		return
	}
	t.byID[o.ID] = o
}

// Untrack stops tracking an object. Safe to call for untracked IDs.
func (t *DecayTracker) Untrack(id int32) {
	delete(t.byID, id)
}

// Tracked reports whether an object is on the decay list.
func (t *DecayTracker) Tracked(id int32) bool {
	_, ok := t.byID[id]
	return ok
}

// Count returns the number of tracked objects.
func (t *DecayTracker) Count() int {
	return len(t.byID)
}

// Tick decrements every tracked TTL by the elapsed tick count and
// returns the objects that expired. Expired objects are untracked here;
// despawning them is the caller's job.
func (t *DecayTracker) Tick(elapsed int) []*Object {
	if elapsed <= 0 {
		return nil
	}
	var expired []*Object
	for id, o := range t.byID {
		o.DecayTicks -= elapsed
		if o.DecayTicks <= 0 {
			expired = append(expired, o)
			delete(t.byID, id)
		}
	}
	return expired
}
