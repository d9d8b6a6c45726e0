package game

// Visibility controls how a game appears in listings and who may discover it.
type Visibility int

const (
	// VisibilityPublic games are shown in the public games listing.
	VisibilityPublic Visibility = iota

	// VisibilityFriendsOnly games are hidden from the general listing but
	// anyone holding the code can still join.
	VisibilityFriendsOnly

	// VisibilityPrivate games are reachable by code only.
	VisibilityPrivate
)

// Configuration holds the immutable settings of a game instance. Callers
// supply it already validated; the core never mutates it.
type Configuration struct {
	// MinPlayers is the number of players required before the game may start.
	MinPlayers int

	// MaxPlayers caps how many players can join.
	MaxPlayers int

	// Visibility controls listing exposure. Joining by code works regardless.
	Visibility Visibility

	// AutoStart starts the game as soon as MinPlayers have joined.
	AutoStart bool

	// CanJoinInProgress allows joining after the game has left Idle.
	CanJoinInProgress bool
}
