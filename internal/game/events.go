package game

import "sync"

// UpdateType describes what changed on a single game instance.
type UpdateType int

const (
	// StateUpdated fires on lifecycle transitions (start, restart, win).
	StateUpdated UpdateType = iota

	// PlayerJoined fires after a player was added to the roster.
	PlayerJoined

	// PlayerLeft fires after a player was removed from the roster.
	PlayerLeft
)

func (t UpdateType) String() string {
	switch t {
	case StateUpdated:
		return "StateUpdated"
	case PlayerJoined:
		return "PlayerJoined"
	case PlayerLeft:
		return "PlayerLeft"
	}
	return "Unknown"
}

// ListUpdateType describes how the manager's games list changed.
type ListUpdateType int

const (
	// GameCreated fires when a game is registered.
	GameCreated ListUpdateType = iota

	// GameUpdated fires when a registered game changes (join, leave, state).
	GameUpdated

	// GameRemoved fires when an empty game is torn down.
	GameRemoved
)

func (t ListUpdateType) String() string {
	switch t {
	case GameCreated:
		return "Created"
	case GameUpdated:
		return "Updated"
	case GameRemoved:
		return "Removed"
	}
	return "Unknown"
}

// UpdatedFunc receives per-game change notifications.
type UpdatedFunc func(g Game, update UpdateType)

// ListUpdatedFunc receives games-list change notifications.
type ListUpdatedFunc func(m *Manager, g Game, update ListUpdateType)

// MoveUpdatedFunc receives pile-level solitaire updates: which pile lost a
// card and which gained one. Talon cycling reports the talon on both sides.
type MoveUpdatedFunc func(g *Solitaire, fromPile PileType, fromIndex int, toPile PileType, toIndex int)

// observers is a subscriber list with snapshot-then-notify semantics: the
// list is copied before any callback runs, so a subscriber may cancel itself
// (or others) from inside its own notification without corrupting iteration.
type observers[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]T
}

func (o *observers[T]) add(fn T) (cancel func()) {
	o.mu.Lock()
	if o.subs == nil {
		o.subs = make(map[int]T)
	}
	id := o.next
	o.next++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

func (o *observers[T]) snapshot() []T {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]T, 0, len(o.subs))
	for _, fn := range o.subs {
		out = append(out, fn)
	}
	return out
}
