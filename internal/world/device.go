package world

// DeviceGate is the destroy-authorization state of a powered device.
// A device that is powered, or whose maintenance panel is closed, must
// not be torn down through the generic despawn path: it first has to
// eject its power cell and unlink its peers. The despawn coordinator
// consults IsAuthorizedToDestroy and routes denied devices through the
// self-destruct routine.
type DeviceGate struct {
	Powered   bool
	PanelOpen bool
	Cell      *Object // installed power cell, held inactive; nil when empty
	LinkedIDs []int32 // peer device IDs notified on teardown
}

// IsAuthorizedToDestroy reports whether the device may be removed
// through the generic path. Only an unpowered device with an open panel
// has nothing left to tear down.
func (g *DeviceGate) IsAuthorizedToDestroy() bool {
	return !g.Powered && g.PanelOpen && g.Cell == nil
}

// InstallCell seats a power cell. Returns false when a cell is already
// installed or the object is still active.
func (g *DeviceGate) InstallCell(cell *Object) bool {
	if g.Cell != nil || cell == nil || cell.Active {
		return false
	}
	g.Cell = cell
	return true
}

// EjectCell removes and returns the installed cell, or nil.
func (g *DeviceGate) EjectCell() *Object {
	cell := g.Cell
	g.Cell = nil
	return cell
}

// Unlink drops a peer from the link list. Returns true if it was linked.
func (g *DeviceGate) Unlink(peerID int32) bool {
	for i, id := range g.LinkedIDs {
		if id == peerID {
			g.LinkedIDs = append(g.LinkedIDs[:i], g.LinkedIDs[i+1:]...)
			return true
		}
	}
	return false
}
