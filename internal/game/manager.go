package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
)

const (
	codeLength   = 4
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Factory constructs a concrete game instance for the manager. The code is
// the manager-assigned join code; the configuration comes from the creating
// caller.
type Factory func(code string, config Configuration) Game

// Manager is the registry of live game instances, keyed by join code. All
// registry mutations (create, join, leave) are mutually exclusive; list
// reads are served from snapshots taken under the same exclusion.
//
// List and game callbacks run synchronously on the mutating goroutine and
// must not call back into the Manager.
type Manager struct {
	mu    sync.Mutex
	games []Game

	listUpdated observers[ListUpdatedFunc]
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{}
}

// OnListUpdated registers fn for games-list notifications. The returned
// cancel function removes the subscription and is safe to call from inside
// fn.
func (m *Manager) OnListUpdated(fn ListUpdatedFunc) (cancel func()) {
	return m.listUpdated.add(fn)
}

func (m *Manager) emitListUpdated(g Game, update ListUpdateType) {
	for _, fn := range m.listUpdated.snapshot() {
		fn(m, g, update)
	}
}

// Create builds a game through the factory under a fresh unique code, joins
// the creating player and registers the instance. A freshly created game
// must admit its first player; a wrong player type is the only error.
func (m *Manager) Create(factory Factory, config Configuration, player Player) (Game, error) {
	m.mu.Lock()
	code := m.generateCodeLocked()
	g := factory(code, config)

	joined, err := g.TryJoin(player)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if !joined {
		m.mu.Unlock()
		panic(fmt.Sprintf("game: freshly created game %q refused its first player", code))
	}

	m.games = append(m.games, g)
	m.mu.Unlock()

	m.emitListUpdated(g, GameCreated)
	return g, nil
}

// TryJoin looks a game up by code and joins the player. It returns
// (nil, false, nil) when no game holds the code or the game rejects the
// join, and the game with joined == true on success. A player already in
// the game is accepted idempotently without a join or an event. A wrong
// player type fails with ErrWrongPlayerType.
func (m *Manager) TryJoin(code string, player Player) (Game, bool, error) {
	m.mu.Lock()
	g := m.findLocked(code)
	if g == nil {
		m.mu.Unlock()
		return nil, false, nil
	}

	joined, err := g.TryJoin(player)
	if err != nil {
		m.mu.Unlock()
		return nil, false, err
	}
	if !joined {
		// Rejected: either not joinable or already a member. Membership wins.
		member := g.Contains(player)
		m.mu.Unlock()
		if member {
			return g, true, nil
		}
		return nil, false, nil
	}
	m.mu.Unlock()

	m.emitListUpdated(g, GameUpdated)
	return g, true, nil
}

// Leave removes the player from the game. When the roster empties, the game
// is disposed and dropped from the registry with a Removed event; otherwise
// an Updated event fires. Leaving a game the player is not part of changes
// nothing and emits nothing.
func (m *Manager) Leave(g Game, player Player) error {
	m.mu.Lock()
	left, err := g.Leave(player)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if !left {
		m.mu.Unlock()
		return nil
	}

	removed := false
	if len(g.Players()) == 0 {
		g.close()
		for i, existing := range m.games {
			if existing == g {
				m.games = append(m.games[:i], m.games[i+1:]...)
				removed = true
				break
			}
		}
	}
	m.mu.Unlock()

	if removed {
		m.emitListUpdated(g, GameRemoved)
	} else {
		m.emitListUpdated(g, GameUpdated)
	}
	return nil
}

// Games returns a snapshot of the public games in creation order. Games
// with friends-only or private visibility stay reachable by code but are
// excluded here.
func (m *Manager) Games() []Game {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Game, 0, len(m.games))
	for _, g := range m.games {
		if g.Configuration().Visibility == VisibilityPublic {
			out = append(out, g)
		}
	}
	return out
}

// Find returns the live game holding the code, regardless of visibility.
func (m *Manager) Find(code string) (Game, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.findLocked(code)
	return g, g != nil
}

func (m *Manager) findLocked(code string) Game {
	for _, g := range m.games {
		if g.Code() == code {
			return g
		}
	}
	return nil
}

// Close disposes every remaining game and empties the registry.
func (m *Manager) Close() {
	m.mu.Lock()
	games := m.games
	m.games = nil
	m.mu.Unlock()

	for _, g := range games {
		g.close()
	}
}

// generateCodeLocked draws codes until one is free among the live games.
// Codes are independent of game content. Assumes mu is held.
func (m *Manager) generateCodeLocked() string {
	for {
		code := randomCode()
		if m.findLocked(code) == nil {
			return code
		}
	}
}

func randomCode() string {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("game: generating join code: %v", err))
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf)
}
