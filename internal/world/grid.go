package world

// tileKey uniquely identifies a tile (deck + coordinates).
type tileKey struct {
	Deck int16
	X, Y int32
}

// TileGrid is a tile occupancy map for O(1) collision checks.
// Supports multiple occupants per tile; only pushable objects register.
type TileGrid struct {
	tiles map[tileKey]map[int32]struct{}
}

func newTileGrid() *TileGrid {
	return &TileGrid{tiles: make(map[tileKey]map[int32]struct{})}
}

// Occupy marks an object as occupying a tile.
func (g *TileGrid) Occupy(deck int16, x, y int32, objectID int32) {
	k := tileKey{Deck: deck, X: x, Y: y}
	cell := g.tiles[k]
	if cell == nil {
		cell = make(map[int32]struct{}, 1)
		g.tiles[k] = cell
	}
	cell[objectID] = struct{}{}
}

// Vacate removes an object from a tile.
func (g *TileGrid) Vacate(deck int16, x, y int32, objectID int32) {
	k := tileKey{Deck: deck, X: x, Y: y}
	cell := g.tiles[k]
	if cell != nil {
		delete(cell, objectID)
		if len(cell) == 0 {
			delete(g.tiles, k)
		}
	}
}

// Move vacates the old tile and occupies the new one.
func (g *TileGrid) Move(deck int16, oldX, oldY, newX, newY int32, objectID int32) {
	if oldX == newX && oldY == newY {
		return
	}
	g.Vacate(deck, oldX, oldY, objectID)
	g.Occupy(deck, newX, newY, objectID)
}

// IsOccupied returns true if any object other than excludeID occupies the tile.
func (g *TileGrid) IsOccupied(deck int16, x, y int32, excludeID int32) bool {
	k := tileKey{Deck: deck, X: x, Y: y}
	cell := g.tiles[k]
	if len(cell) == 0 {
		return false
	}
	for id := range cell {
		if id != excludeID {
			return true
		}
	}
	return false
}

// OccupantAt returns the first occupant ID at the tile, or 0 if empty.
func (g *TileGrid) OccupantAt(deck int16, x, y int32) int32 {
	k := tileKey{Deck: deck, X: x, Y: y}
	for id := range g.tiles[k] {
		return id
	}
	return 0
}
