package event

// Lifecycle and session event types carried on the bus. These are loose
// next-tick notifications; despawn hooks do not go through the bus.

type ObjectSpawned struct {
	ObjectID   int32
	TemplateID int32
	FromPool   bool
}

type ObjectDespawned struct {
	ObjectID    int32
	TemplateID  int32
	Disposition string // "pooled" or "destroyed"
	Cause       string
}

type DeviceSelfDestructed struct {
	ObjectID     int32
	CellObjectID int32 // 0 when no cell was installed
}

type FollowerJoined struct {
	SessionID uint64
	Operator  string
}

type FollowerLeft struct {
	SessionID uint64
}
