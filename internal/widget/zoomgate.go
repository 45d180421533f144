package widget

// GateState is the state of the zoom-out control.
type GateState int

const (
	// GateUnset is the state before the floor is frozen.
	GateUnset GateState = iota
	// AtFloor disables zooming out.
	AtFloor
	// AboveFloor enables zooming out.
	AboveFloor
)

func (s GateState) String() string {
	switch s {
	case AtFloor:
		return "at_floor"
	case AboveFloor:
		return "above_floor"
	default:
		return "unset"
	}
}

// NextGateState is the zoom gate transition: only the current zoom and the
// frozen floor matter.
func NextGateState(zoom, floor int) GateState {
	if zoom > floor {
		return AboveFloor
	}
	return AtFloor
}

// ZoomGate tracks whether zooming out is allowed. The floor is frozen once,
// after the boundary fit; zoom events observed before that are ignored.
type ZoomGate struct {
	floor  int
	frozen bool
	state  GateState
}

// Freeze sets the floor. Only the first call has an effect; it reports
// whether this call froze the floor.
func (g *ZoomGate) Freeze(floor int) bool {
	if g.frozen {
		return false
	}
	g.floor, g.frozen = floor, true
	return true
}

// Floor returns the frozen floor.
func (g *ZoomGate) Floor() (int, bool) {
	return g.floor, g.frozen
}

// State returns the last computed state.
func (g *ZoomGate) State() GateState {
	return g.state
}

// Observe feeds a zoom-end event into the gate and returns the new state.
func (g *ZoomGate) Observe(zoom int) GateState {
	if !g.frozen {
		return GateUnset
	}
	g.state = NextGateState(zoom, g.floor)
	return g.state
}
