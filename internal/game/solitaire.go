package game

import (
	"fmt"
	"time"

	"solitaire-game/internal/cards"
)

// PileType identifies one of the solitaire pile groups.
type PileType int

const (
	// PileInvalid is the zero value and never names a real pile.
	PileInvalid PileType = iota

	// PileTableau is one of the seven playing piles.
	PileTableau

	// PileFoundation is one of the four suit-ordered piles built Ace to King.
	PileFoundation

	// PileTalon is the draw pile, cycled one reveal at a time.
	PileTalon
)

func (p PileType) String() string {
	switch p {
	case PileTableau:
		return "Tableau"
	case PileFoundation:
		return "Foundation"
	case PileTalon:
		return "Talon"
	}
	return "Invalid"
}

const (
	// TableauCount is the number of tableau piles.
	TableauCount = 7

	// FoundationCount is the number of foundation piles, one per suit.
	FoundationCount = 4
)

// DefaultSolitaireConfiguration is the configuration used for solitaire
// games unless the caller overrides it: a single player, started on join.
var DefaultSolitaireConfiguration = Configuration{
	MinPlayers: 1,
	MaxPlayers: 1,
	AutoStart:  true,
}

// Solitaire is a single-player Klondike game. All mutating operations are
// serialized by the embedded game mutex; two concurrent moves never
// interleave their multi-step transfer.
type Solitaire struct {
	base

	// Guarded by base.mu.
	foundations [FoundationCount][]cards.Card
	tableaus    [TableauCount][]cards.Card
	visibility  [TableauCount]int
	talon       []cards.Card
	talonIndex  int
	moves       int
	startedAt   time.Time

	moveUpdated observers[MoveUpdatedFunc]
}

// NewSolitaire constructs an idle solitaire instance. It satisfies Factory.
func NewSolitaire(code string, config Configuration) Game {
	return &Solitaire{
		base:       newBase(code, config),
		talonIndex: -1,
	}
}

// Snapshot is a point-in-time copy of the solitaire pile state, safe to
// read while the game keeps running.
type Snapshot struct {
	State       State
	Foundations [][]cards.Card
	Tableaus    [][]cards.Card
	Visibility  []int
	Talon       []cards.Card
	TalonIndex  int
	Moves       int
}

// Snapshot returns a consistent copy of the current game state.
func (s *Solitaire) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:       s.state,
		Foundations: make([][]cards.Card, FoundationCount),
		Tableaus:    make([][]cards.Card, TableauCount),
		Visibility:  make([]int, TableauCount),
		Talon:       append([]cards.Card(nil), s.talon...),
		TalonIndex:  s.talonIndex,
		Moves:       s.moves,
	}
	for i, foundation := range s.foundations {
		snap.Foundations[i] = append([]cards.Card(nil), foundation...)
	}
	for i, tableau := range s.tableaus {
		snap.Tableaus[i] = append([]cards.Card(nil), tableau...)
	}
	copy(snap.Visibility, s.visibility[:])
	return snap
}

// TalonCard returns the currently revealed talon card, or the sentinel when
// nothing is revealed.
func (s *Solitaire) TalonCard() cards.Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.talonIndex < 0 {
		return cards.Card{}
	}
	return s.talon[s.talonIndex]
}

// CanFinish reports whether every tableau card is face-up, the point from
// which the game can always be played out.
func (s *Solitaire) CanFinish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, visibility := range s.visibility {
		if visibility > 0 {
			return false
		}
	}
	return true
}

// Moves returns the number of successful moves since the last deal.
func (s *Solitaire) Moves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}

// StartedAt returns the time of the last deal.
func (s *Solitaire) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// OnStateUpdated registers fn for pile-level updates: moves and talon
// cycling. The returned cancel function is safe to call from inside fn.
func (s *Solitaire) OnStateUpdated(fn MoveUpdatedFunc) (cancel func()) {
	return s.moveUpdated.add(fn)
}

func (s *Solitaire) emitMove(fromPile PileType, fromIndex int, toPile PileType, toIndex int) {
	for _, fn := range s.moveUpdated.snapshot() {
		fn(s, fromPile, fromIndex, toPile, toIndex)
	}
}

// TryJoin admits a solitaire player and auto-starts the game once the
// configured minimum is reached.
func (s *Solitaire) TryJoin(player Player) (bool, error) {
	sp, ok := player.(*SolitairePlayer)
	if !ok {
		return false, fmt.Errorf("%w: solitaire expects *SolitairePlayer, got %T", ErrWrongPlayerType, player)
	}

	s.mu.Lock()
	if s.indexOfLocked(sp) >= 0 || !s.joinableLocked() {
		s.mu.Unlock()
		return false, nil
	}
	s.players = append(s.players, sp)

	started := false
	if s.config.AutoStart && s.state == Idle && len(s.players) >= s.config.MinPlayers {
		s.dealLocked()
		s.state = Playing
		started = true
	}
	s.mu.Unlock()

	s.emitUpdated(s, PlayerJoined)
	if started {
		s.emitUpdated(s, StateUpdated)
	}
	return true, nil
}

// Leave removes the player. Leaving a game the player never joined is a
// no-op and emits nothing.
func (s *Solitaire) Leave(player Player) (bool, error) {
	if _, ok := player.(*SolitairePlayer); !ok {
		return false, fmt.Errorf("%w: solitaire expects *SolitairePlayer, got %T", ErrWrongPlayerType, player)
	}

	s.mu.Lock()
	i := s.indexOfLocked(player)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.players = append(s.players[:i], s.players[i+1:]...)
	s.mu.Unlock()

	s.emitUpdated(s, PlayerLeft)
	return true, nil
}

// Start deals the piles and enters Playing. It is a no-op unless Idle.
func (s *Solitaire) Start() {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return
	}
	s.dealLocked()
	s.state = Playing
	s.mu.Unlock()

	s.emitUpdated(s, StateUpdated)
}

// Restart re-deals a running or finished game. It is a no-op while Idle.
func (s *Solitaire) Restart() {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return
	}
	s.dealLocked()
	s.state = Playing
	s.mu.Unlock()

	s.emitUpdated(s, StateUpdated)
}

// dealLocked clears the piles and deals a fresh single-deck game: tableau i
// receives i+1 cards with only its top card face-up, the remaining 24 cards
// form the talon. Assumes mu is held.
func (s *Solitaire) dealLocked() {
	s.talonIndex = -1
	s.moves = 0
	s.startedAt = time.Now()

	for i := range s.foundations {
		s.foundations[i] = s.foundations[i][:0]
	}

	stack := cards.NewStack(1)
	defer stack.Close()

	for i := range s.tableaus {
		s.tableaus[i] = resize(s.tableaus[i], i+1)
		if err := stack.TakeInto(s.tableaus[i], 0); err != nil {
			panic(err)
		}
		// Cards at index >= visibility are face-up.
		s.visibility[i] = i
	}

	s.talon = resize(s.talon, stack.Remaining())
	if err := stack.TakeInto(s.talon, 0); err != nil {
		panic(err)
	}
}

// resize reuses the pile's backing array across deals where possible.
func resize(pile []cards.Card, n int) []cards.Card {
	if cap(pile) < n {
		return make([]cards.Card, n)
	}
	return pile[:n]
}

// NextTalonCard advances the talon cursor circularly: through every talon
// card and then back to the "nothing revealed" position. No-op unless
// Playing.
func (s *Solitaire) NextTalonCard() {
	s.mu.Lock()
	if s.state != Playing {
		s.mu.Unlock()
		return
	}
	if s.talonIndex+1 >= len(s.talon) {
		s.talonIndex = -1
	} else {
		s.talonIndex++
	}
	s.mu.Unlock()

	s.emitMove(PileTalon, 0, PileTalon, 0)
}

// Move transfers a card (or a tableau run) between piles. Out-of-range
// indices and unknown pile types fail fast with an error; strategically
// illegal moves are rejected silently with no mutation and no event, which
// is the normal outcome of much of play. No-op unless Playing.
//
// Talon sources ignore srcIndex and use the current talon cursor.
// Foundation destinations ignore dstIndex and use the slot derived from the
// moving card's suit. srcCardIndex selects the start of a tableau-to-tableau
// run and is bounded below by the tableau's visibility boundary; every card
// above it moves along.
func (s *Solitaire) Move(srcType PileType, srcIndex, srcCardIndex int, dstType PileType, dstIndex int) error {
	s.mu.Lock()
	if s.state != Playing {
		s.mu.Unlock()
		return nil
	}

	if srcType == PileTalon {
		srcIndex = s.talonIndex
	}
	if err := checkPileIndex(srcType, srcIndex); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := checkPileIndex(dstType, dstIndex); err != nil {
		s.mu.Unlock()
		return err
	}

	srcPile := s.pile(srcType, srcIndex)

	// Resolve the candidate moving card. Runs only exist for tableau to
	// tableau moves; everything else moves a single resolved card.
	runStart := -1
	var moving cards.Card
	switch {
	case len(*srcPile) == 0:
		// moving stays the sentinel; the legality check rejects below.
	case srcType == PileTableau && dstType == PileTableau:
		runStart = srcCardIndex
		if runStart < s.visibility[srcIndex] {
			runStart = s.visibility[srcIndex]
		}
		if runStart >= len(*srcPile) {
			s.mu.Unlock()
			return fmt.Errorf("%w: tableau card index %d", ErrIndexOutOfRange, srcCardIndex)
		}
		moving = (*srcPile)[runStart]
	case srcType == PileTalon:
		if s.talonIndex >= 0 {
			moving = s.talon[s.talonIndex]
		}
	default:
		moving = (*srcPile)[len(*srcPile)-1]
	}

	if dstType == PileFoundation {
		if !moving.Valid() {
			s.mu.Unlock()
			return nil
		}
		dstIndex = int(moving.Suit) - 1
	}
	if dstType == PileTalon {
		// The talon is never a move destination.
		s.mu.Unlock()
		return nil
	}

	dstPile := s.pile(dstType, dstIndex)
	var dstTop cards.Card
	if n := len(*dstPile); n > 0 {
		dstTop = (*dstPile)[n-1]
	}

	if !isMoveValid(dstType, dstTop, moving) {
		s.mu.Unlock()
		return nil
	}

	// Transfer. Tableau runs move in order; single-card moves remove the
	// resolved card itself (for the talon that is the revealed card, which
	// sits mid-pile).
	if srcType == PileTableau && dstType == PileTableau {
		*dstPile = append(*dstPile, (*srcPile)[runStart:]...)
		*srcPile = (*srcPile)[:runStart]
	} else {
		*dstPile = append(*dstPile, moving)
		switch srcType {
		case PileTalon:
			s.talon = append(s.talon[:s.talonIndex], s.talon[s.talonIndex+1:]...)
		default:
			*srcPile = (*srcPile)[:len(*srcPile)-1]
		}
	}

	// Post-transfer bookkeeping: reveal the next tableau card, or step the
	// talon cursor back since the revealed card is gone.
	switch srcType {
	case PileTableau:
		if s.visibility[srcIndex] > 0 {
			s.visibility[srcIndex]--
		}
	case PileTalon:
		s.talonIndex--
	}
	s.moves++

	finished := s.finishedLocked()
	if finished {
		s.state = Done
	}
	s.mu.Unlock()

	if finished {
		s.emitUpdated(s, StateUpdated)
	} else {
		s.emitMove(srcType, srcIndex, dstType, dstIndex)
	}
	return nil
}

// pile returns the addressed pile. Indices must already be validated.
func (s *Solitaire) pile(pileType PileType, index int) *[]cards.Card {
	switch pileType {
	case PileTableau:
		return &s.tableaus[index]
	case PileFoundation:
		return &s.foundations[index]
	default:
		return &s.talon
	}
}

// finishedLocked reports the win condition: every foundation topped by a
// King. Assumes mu is held.
func (s *Solitaire) finishedLocked() bool {
	for _, foundation := range s.foundations {
		if len(foundation) == 0 || foundation[len(foundation)-1].Rank != cards.King {
			return false
		}
	}
	return true
}

func checkPileIndex(pileType PileType, index int) error {
	switch pileType {
	case PileTableau:
		if index < 0 || index >= TableauCount {
			return fmt.Errorf("%w: tableau index %d", ErrIndexOutOfRange, index)
		}
	case PileFoundation:
		if index < 0 || index >= FoundationCount {
			return fmt.Errorf("%w: foundation index %d", ErrIndexOutOfRange, index)
		}
	case PileTalon:
		// The index is resolved from the talon cursor; -1 means nothing is
		// revealed and the legality check rejects the move.
	default:
		return fmt.Errorf("%w: %d", ErrInvalidPile, pileType)
	}
	return nil
}

// isMoveValid applies the destination rules: an empty tableau accepts only a
// King, an empty foundation only an Ace; otherwise foundations build up by
// one within a suit and tableaus build down by one in alternating color.
func isMoveValid(dstType PileType, dstTop, moving cards.Card) bool {
	if !moving.Valid() {
		return false
	}

	if !dstTop.Valid() {
		switch dstType {
		case PileFoundation:
			return moving.Rank == cards.Ace
		case PileTableau:
			return moving.Rank == cards.King
		default:
			return false
		}
	}

	switch dstType {
	case PileFoundation:
		return moving.Suit == dstTop.Suit && moving.Rank == dstTop.Rank+1
	case PileTableau:
		return moving.Rank+1 == dstTop.Rank && isRed(moving.Suit) != isRed(dstTop.Suit)
	default:
		return false
	}
}

func isRed(suit cards.Suit) bool {
	return suit == cards.Heart || suit == cards.Diamond
}
