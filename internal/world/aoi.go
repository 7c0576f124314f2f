package world

// AOIGrid implements a cell-based Area of Interest index over objects.
// Cell size is chosen so a 3x3 neighbourhood of cells fully covers the
// visibility range (Chebyshev distance 20).
// Accessed only from the game loop goroutine — no locks.

const cellSize = 20

type cellKey struct {
	deck int16
	cx   int32
	cy   int32
}

func toCellCoord(v int32) int32 {
	if v < 0 {
		return (v - cellSize + 1) / cellSize
	}
	return v / cellSize
}

// AOIGrid tracks which objects are in which cells.
type AOIGrid struct {
	cells map[cellKey]map[int32]struct{} // cellKey → set of object IDs
}

func NewAOIGrid() *AOIGrid {
	return &AOIGrid{
		cells: make(map[cellKey]map[int32]struct{}),
	}
}

func (g *AOIGrid) key(x, y int32, deck int16) cellKey {
	return cellKey{deck: deck, cx: toCellCoord(x), cy: toCellCoord(y)}
}

// Add places an object into the grid.
func (g *AOIGrid) Add(objectID int32, x, y int32, deck int16) {
	k := g.key(x, y, deck)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[int32]struct{})
		g.cells[k] = cell
	}
	cell[objectID] = struct{}{}
}

// Remove takes an object out of the grid.
func (g *AOIGrid) Remove(objectID int32, x, y int32, deck int16) {
	k := g.key(x, y, deck)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, objectID)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates an object's cell when its position changes.
func (g *AOIGrid) Move(objectID int32, oldX, oldY int32, oldDeck int16, newX, newY int32, newDeck int16) {
	oldK := g.key(oldX, oldY, oldDeck)
	newK := g.key(newX, newY, newDeck)
	if oldK == newK {
		return
	}
	g.Remove(objectID, oldX, oldY, oldDeck)
	g.Add(objectID, newX, newY, newDeck)
}

// GetNearby returns all object IDs in a 3x3 neighbourhood of cells
// around the given position. Caller does fine-grained distance filtering.
func (g *AOIGrid) GetNearby(x, y int32, deck int16) []int32 {
	cx := toCellCoord(x)
	cy := toCellCoord(y)
	var result []int32
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			k := cellKey{deck: deck, cx: cx + dx, cy: cy + dy}
			for id := range g.cells[k] {
				result = append(result, id)
			}
		}
	}
	return result
}
