package driver

// State is a stage of one optimization run. A run only moves forward and every
// path ends in Closed.
type State int

const (
	Uninitialized State = iota
	OracleReady
	SpaceDefined
	Searching
	BestFound
	Inspecting
	Closed
)

var stateNames = [...]string{
	Uninitialized: "uninitialized",
	OracleReady:   "oracle_ready",
	SpaceDefined:  "space_defined",
	Searching:     "searching",
	BestFound:     "best_found",
	Inspecting:    "inspecting",
	Closed:        "closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
