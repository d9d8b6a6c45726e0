package game

// State is the lifecycle phase of a game.
type State int

const (
	// Idle games are waiting to start.
	Idle State = iota

	// Playing games have been dealt and accept moves.
	Playing

	// Done games have been won; only a restart leaves this state.
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Playing:
		return "Playing"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}
