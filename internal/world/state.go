package world

// State tracks all objects currently in active play, plus the connected
// followers observing them. Single-goroutine access only (game loop).
type State struct {
	byID      map[int32]*Object
	aoi       *AOIGrid
	tiles     *TileGrid
	followers map[uint64]*Follower

	activeByTemplate map[int32]int

	viewRange int32
}

// KnownPos is the last position a follower saw an object at.
type KnownPos struct {
	X, Y int32
}

// Follower is one connected observer: an operator session with a view
// focus. Followers are not world objects; they only watch.
type Follower struct {
	SessionID uint64
	Operator  string
	FocusX    int32
	FocusY    int32
	Deck      int16

	// Known maps object ID → last seen position. The visibility system
	// diffs this against current AOI queries to emit put/remove packets.
	Known map[int32]KnownPos
}

func NewState(viewRange int32) *State {
	if viewRange <= 0 {
		viewRange = 20
	}
	return &State{
		byID:             make(map[int32]*Object),
		aoi:              NewAOIGrid(),
		tiles:            newTileGrid(),
		followers:        make(map[uint64]*Follower),
		activeByTemplate: make(map[int32]int),
		viewRange:        viewRange,
	}
}

// ViewRange returns the visibility range in tiles (Chebyshev).
func (s *State) ViewRange() int32 { return s.viewRange }

// AddObject places an object into active play: registry, AOI, and tile
// occupancy when it is pushable. Marks it active and visible.
func (s *State) AddObject(o *Object) {
	o.Active = true
	o.Visible = true
	s.byID[o.ID] = o
	s.aoi.Add(o.ID, o.X, o.Y, o.Deck)
	if o.Push != nil && o.Push.Occupies {
		s.tiles.Occupy(o.Deck, o.X, o.Y, o.ID)
	}
	s.activeByTemplate[o.TemplateID]++
}

// RemoveObject takes an object out of active play: vacates its tile,
// drops it from AOI and the registry, and clears the active flag.
// Returns the object, or nil if the ID was not registered.
func (s *State) RemoveObject(id int32) *Object {
	o := s.byID[id]
	if o == nil {
		return nil
	}
	if o.Push != nil && o.Push.Occupies {
		s.tiles.Vacate(o.Deck, o.X, o.Y, o.ID)
	}
	s.aoi.Remove(o.ID, o.X, o.Y, o.Deck)
	delete(s.byID, id)
	o.Active = false
	if n := s.activeByTemplate[o.TemplateID]; n > 1 {
		s.activeByTemplate[o.TemplateID] = n - 1
	} else {
		delete(s.activeByTemplate, o.TemplateID)
	}
	return o
}

// Get returns an object by ID, or nil.
func (s *State) Get(id int32) *Object {
	return s.byID[id]
}

// Count returns the number of active objects.
func (s *State) Count() int {
	return len(s.byID)
}

// ActiveCount returns how many instances of a template are active.
func (s *State) ActiveCount(templateID int32) int {
	return s.activeByTemplate[templateID]
}

// AllObjects calls fn for every active object. fn must not add or
// remove objects.
func (s *State) AllObjects(fn func(*Object)) {
	for _, o := range s.byID {
		fn(o)
	}
}

// MoveObject relocates an object, keeping AOI and tile occupancy in step.
func (s *State) MoveObject(o *Object, newX, newY int32, newDeck int16) {
	if o.Push != nil && o.Push.Occupies {
		if o.Deck == newDeck {
			s.tiles.Move(o.Deck, o.X, o.Y, newX, newY, o.ID)
		} else {
			s.tiles.Vacate(o.Deck, o.X, o.Y, o.ID)
			s.tiles.Occupy(newDeck, newX, newY, o.ID)
		}
	}
	s.aoi.Move(o.ID, o.X, o.Y, o.Deck, newX, newY, newDeck)
	o.X, o.Y, o.Deck = newX, newY, newDeck
}

// IsTileOccupied reports whether a pushable object other than excludeID
// holds the tile.
func (s *State) IsTileOccupied(deck int16, x, y int32, excludeID int32) bool {
	return s.tiles.IsOccupied(deck, x, y, excludeID)
}

// GetNearbyObjects returns visible objects within view range of the
// given position, excluding excludeID (pass 0 to exclude nothing).
func (s *State) GetNearbyObjects(x, y int32, deck int16, excludeID int32) []*Object {
	ids := s.aoi.GetNearby(x, y, deck)
	result := make([]*Object, 0, len(ids))
	for _, id := range ids {
		if id == excludeID {
			continue
		}
		o := s.byID[id]
		if o == nil || !o.Visible {
			continue
		}
		if chebyshev(o.X, o.Y, x, y) <= s.viewRange {
			result = append(result, o)
		}
	}
	return result
}

// AddFollower registers a connected observer.
func (s *State) AddFollower(f *Follower) {
	if f.Known == nil {
		f.Known = make(map[int32]KnownPos)
	}
	s.followers[f.SessionID] = f
}

// RemoveFollower unregisters an observer. Returns it, or nil.
func (s *State) RemoveFollower(sessionID uint64) *Follower {
	f := s.followers[sessionID]
	if f == nil {
		return nil
	}
	delete(s.followers, sessionID)
	return f
}

// GetFollower returns the follower for a session, or nil.
func (s *State) GetFollower(sessionID uint64) *Follower {
	return s.followers[sessionID]
}

// FollowerCount returns the number of connected observers.
func (s *State) FollowerCount() int {
	return len(s.followers)
}

// AllFollowers calls fn for every connected observer.
func (s *State) AllFollowers(fn func(*Follower)) {
	for _, f := range s.followers {
		fn(f)
	}
}

func chebyshev(x1, y1, x2, y2 int32) int32 {
	dx := absInt32(x1 - x2)
	dy := absInt32(y1 - y2)
	if dx > dy {
		return dx
	}
	return dy
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
