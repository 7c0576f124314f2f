package handler

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/lifecycle"
	"github.com/Drabants/unitystation/internal/net"
	"github.com/Drabants/unitystation/internal/net/packet"
)

// HandleCommand processes C_COMMAND: [S line]. Operator commands:
//
//	spawn <templateID> <x> <y> [deck]
//	despawn <objectID> [-skip]     (-skip bypasses owner delegation)
//	gate <objectID> power|panel    (toggle device gate state)
//	pool [templateID]
//	info <objectID>
func HandleCommand(sess *net.Session, r *packet.Reader, deps *Deps) {
	line := strings.TrimSpace(r.ReadS())
	fields := strings.Fields(line)
	if len(fields) == 0 {
		sendCommandResult(sess, false, "empty command")
		return
	}

	deps.Log.Info("operator command",
		zap.Uint64("session", sess.ID),
		zap.String("operator", sess.Operator),
		zap.String("line", line),
	)

	var ok bool
	var msg string
	switch fields[0] {
	case "spawn":
		ok, msg = cmdSpawn(fields[1:], deps)
	case "despawn":
		ok, msg = cmdDespawn(fields[1:], deps)
	case "gate":
		ok, msg = cmdGate(fields[1:], deps)
	case "pool":
		ok, msg = cmdPool(fields[1:], deps)
	case "info":
		ok, msg = cmdInfo(fields[1:], deps)
	default:
		ok, msg = false, fmt.Sprintf("unknown command %q", fields[0])
	}
	sendCommandResult(sess, ok, msg)
}

func cmdSpawn(args []string, deps *Deps) (bool, string) {
	if len(args) < 3 {
		return false, "usage: spawn <templateID> <x> <y> [deck]"
	}
	templateID, err1 := parseInt32(args[0])
	x, err2 := parseInt32(args[1])
	y, err3 := parseInt32(args[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return false, "spawn: numeric arguments expected"
	}
	var deck int16
	if len(args) >= 4 {
		d, err := strconv.ParseInt(args[3], 10, 16)
		if err != nil {
			return false, "spawn: bad deck"
		}
		deck = int16(d)
	}

	o, err := deps.Spawner.Spawn(templateID, x, y, deck)
	if err != nil {
		return false, err.Error()
	}
	return true, fmt.Sprintf("spawned object %d (template %d) at %d,%d deck %d", o.ID, templateID, x, y, deck)
}

func cmdDespawn(args []string, deps *Deps) (bool, string) {
	if len(args) < 1 {
		return false, "usage: despawn <objectID> [-skip]"
	}
	id, err := parseInt32(args[0])
	if err != nil {
		return false, "despawn: bad object id"
	}
	skip := len(args) >= 2 && args[1] == "-skip"

	o := deps.World.Get(id)
	if o == nil {
		return false, fmt.Sprintf("object %d not active", id)
	}
	outcome, err := deps.Coordinator.DespawnAuthoritative(lifecycle.DespawnRequest{
		Object:              o,
		SkipOwnerDelegation: skip,
		Cause:               lifecycle.CauseCommand,
	})
	if err != nil {
		return false, err.Error()
	}
	return true, fmt.Sprintf("object %d: %s", id, outcome)
}

func cmdGate(args []string, deps *Deps) (bool, string) {
	if len(args) < 2 {
		return false, "usage: gate <objectID> power|panel"
	}
	id, err := parseInt32(args[0])
	if err != nil {
		return false, "gate: bad object id"
	}
	o := deps.World.Get(id)
	if o == nil {
		return false, fmt.Sprintf("object %d not active", id)
	}
	if o.Gate == nil {
		return false, fmt.Sprintf("object %d carries no gate", id)
	}
	switch args[1] {
	case "power":
		o.Gate.Powered = !o.Gate.Powered
		return true, fmt.Sprintf("object %d powered=%v", id, o.Gate.Powered)
	case "panel":
		o.Gate.PanelOpen = !o.Gate.PanelOpen
		return true, fmt.Sprintf("object %d panel_open=%v", id, o.Gate.PanelOpen)
	default:
		return false, "gate: expected power or panel"
	}
}

func cmdPool(args []string, deps *Deps) (bool, string) {
	if len(args) >= 1 {
		templateID, err := parseInt32(args[0])
		if err != nil {
			return false, "pool: bad template id"
		}
		return true, fmt.Sprintf("template %d: %d pooled, %d active",
			templateID, deps.Pool.Size(templateID), deps.World.ActiveCount(templateID))
	}
	return true, fmt.Sprintf("%d pooled across all templates, %d active objects",
		deps.Pool.TotalSize(), deps.World.Count())
}

func cmdInfo(args []string, deps *Deps) (bool, string) {
	if len(args) < 1 {
		return false, "usage: info <objectID>"
	}
	id, err := parseInt32(args[0])
	if err != nil {
		return false, "info: bad object id"
	}
	o := deps.World.Get(id)
	if o == nil {
		return false, fmt.Sprintf("object %d not active", id)
	}

	caps := make([]string, 0, 4)
	if o.Slot != nil {
		caps = append(caps, fmt.Sprintf("contained(%d)", o.Slot.ContainerID))
	}
	if o.Pool != nil {
		caps = append(caps, "pool")
	}
	if o.Push != nil {
		caps = append(caps, "pushable")
	}
	if o.Gate != nil {
		caps = append(caps, fmt.Sprintf("gate(powered=%v panel=%v)", o.Gate.Powered, o.Gate.PanelOpen))
	}
	if o.Contents != nil {
		caps = append(caps, fmt.Sprintf("container(%d/%d)", o.Contents.Count(), o.Contents.MaxSlots))
	}
	capStr := "none"
	if len(caps) > 0 {
		capStr = strings.Join(caps, " ")
	}
	return true, fmt.Sprintf("object %d %q template %d at %d,%d deck %d caps: %s",
		o.ID, o.Name, o.TemplateID, o.X, o.Y, o.Deck, capStr)
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	return int32(v), err
}

// sendCommandResult sends S_COMMAND_RESULT: [C ok][S message].
func sendCommandResult(sess *net.Session, ok bool, msg string) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_COMMAND_RESULT)
	if ok {
		w.WriteC(1)
	} else {
		w.WriteC(0)
	}
	w.WriteS(msg)
	sess.Send(w.Bytes())
}
