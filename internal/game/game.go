package game

import "sync"

// Game is the surface the Manager drives. Implementations live in this
// package; the unexported close method keeps the set of game types closed,
// so player-type dispatch stays a tagged match instead of an open downcast.
type Game interface {
	// Code returns the short join code identifying the instance.
	Code() string

	// Configuration returns the immutable settings the game was created with.
	Configuration() Configuration

	// State returns the current lifecycle phase.
	State() State

	// Players returns a snapshot of the current roster.
	Players() []Player

	// Joinable reports whether the game currently accepts a new player.
	Joinable() bool

	// Contains reports whether the player is already part of the roster.
	Contains(player Player) bool

	// TryJoin adds the player to the roster. It returns false without error
	// when the game is not joinable or the player is already a member, and
	// ErrWrongPlayerType when the player's concrete type does not match the
	// game's player type.
	TryJoin(player Player) (bool, error)

	// Leave removes the player from the roster. Leaving a game the player is
	// not part of is a silent no-op reported as left == false; no event is
	// emitted. A wrong player type fails with ErrWrongPlayerType.
	Leave(player Player) (left bool, err error)

	// OnUpdated registers fn for roster and lifecycle notifications. The
	// returned cancel function removes the subscription and is safe to call
	// from inside fn.
	OnUpdated(fn UpdatedFunc) (cancel func())

	// close tears the instance down once the manager drops it.
	close()
}

// base carries the roster, configuration and lifecycle bookkeeping every
// game shares. Concrete games embed it and keep mu held across their own
// multi-step mutations.
type base struct {
	code   string
	config Configuration

	mu      sync.Mutex
	state   State
	players []Player

	updated observers[UpdatedFunc]
}

func newBase(code string, config Configuration) base {
	return base{code: code, config: config, state: Idle}
}

func (b *base) Code() string {
	return b.code
}

func (b *base) Configuration() Configuration {
	return b.config
}

func (b *base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *base) Players() []Player {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Player, len(b.players))
	copy(out, b.players)
	return out
}

func (b *base) PlayerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.players)
}

func (b *base) Joinable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.joinableLocked()
}

// joinableLocked evaluates the joinability predicate: the game is still
// idle (or allows joining mid-game) and the roster is below its cap.
func (b *base) joinableLocked() bool {
	return (b.config.CanJoinInProgress || b.state == Idle) &&
		len(b.players) < b.config.MaxPlayers
}

func (b *base) Contains(player Player) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.indexOfLocked(player) >= 0
}

// indexOfLocked finds a player by identity, not by concrete type.
func (b *base) indexOfLocked(player Player) int {
	for i, existing := range b.players {
		if existing.ID() == player.ID() {
			return i
		}
	}
	return -1
}

func (b *base) OnUpdated(fn UpdatedFunc) (cancel func()) {
	return b.updated.add(fn)
}

// emitUpdated notifies subscribers over a snapshot. Callers must not hold
// b.mu; notifications always run after the mutation completed.
func (b *base) emitUpdated(g Game, update UpdateType) {
	for _, fn := range b.updated.snapshot() {
		fn(g, update)
	}
}

func (b *base) close() {
	b.mu.Lock()
	b.players = nil
	b.mu.Unlock()
}
