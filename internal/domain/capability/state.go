package capability

// State is the registry lifecycle. Transitions only move forward and Ready
// is terminal.
type State int32

const (
	StateUnarmed State = iota
	StateArmed
	StateInitializing
	StateReady
)

var stateNames = map[State]string{
	StateUnarmed:      "unarmed",
	StateArmed:        "armed",
	StateInitializing: "initializing",
	StateReady:        "ready",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
