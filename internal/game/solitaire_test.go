package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solitaire-game/internal/cards"
)

func newStartedSolitaire(t *testing.T) *Solitaire {
	t.Helper()

	s := NewSolitaire("test", DefaultSolitaireConfiguration).(*Solitaire)
	joined, err := s.TryJoin(&SolitairePlayer{PlayerID: 1, Name: "Ana"})
	require.NoError(t, err)
	require.True(t, joined)
	require.Equal(t, Playing, s.State())
	return s
}

func TestDealShape(t *testing.T) {
	assert := assert.New(t)
	s := newStartedSolitaire(t)

	snap := s.Snapshot()
	for i, tableau := range snap.Tableaus {
		assert.Len(tableau, i+1, "tableau %d", i)
		assert.Equal(i, snap.Visibility[i], "tableau %d should have one face-up card", i)
	}
	for i, foundation := range snap.Foundations {
		assert.Empty(foundation, "foundation %d", i)
	}
	assert.Len(snap.Talon, 24)
	assert.Equal(-1, snap.TalonIndex)
	assert.Zero(snap.Moves)
	assert.False(s.TalonCard().Valid())
}

func TestTalonFullCycle(t *testing.T) {
	assert := assert.New(t)
	s := newStartedSolitaire(t)

	for i := 0; i < 24; i++ {
		s.NextTalonCard()
		assert.Equal(i, s.Snapshot().TalonIndex)
		assert.True(s.TalonCard().Valid())
	}

	// One more step wraps back to "nothing revealed".
	s.NextTalonCard()
	assert.Equal(-1, s.Snapshot().TalonIndex)
	assert.False(s.TalonCard().Valid())
}

func TestMoveKingToEmptyTableau(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	s.tableaus[0] = []cards.Card{cards.New(cards.Spade, cards.King)}
	s.visibility[0] = 0
	s.tableaus[1] = s.tableaus[1][:0]
	s.visibility[1] = 0

	require.NoError(s.Move(PileTableau, 0, 0, PileTableau, 1))
	require.Empty(s.tableaus[0])
	require.Equal([]cards.Card{cards.New(cards.Spade, cards.King)}, s.tableaus[1])
	require.Equal(1, s.Moves())
}

func TestMoveNonKingToEmptyTableauRejected(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	s.tableaus[0] = []cards.Card{cards.New(cards.Spade, cards.Queen)}
	s.visibility[0] = 0
	s.tableaus[1] = s.tableaus[1][:0]
	s.visibility[1] = 0

	require.NoError(s.Move(PileTableau, 0, 0, PileTableau, 1))
	require.Len(s.tableaus[0], 1, "a rejected move must not mutate the piles")
	require.Empty(s.tableaus[1])
	require.Zero(s.Moves())
}

func TestMoveAceToFoundationFromTalon(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	s.talon = []cards.Card{cards.New(cards.Heart, cards.Ace)}
	s.talonIndex = 0

	// The destination index is derived from the moving card's suit, so a
	// wrong dstIndex still lands on the heart foundation.
	require.NoError(s.Move(PileTalon, 0, 0, PileFoundation, 3))
	require.Equal([]cards.Card{cards.New(cards.Heart, cards.Ace)}, s.foundations[0])
	require.Empty(s.talon)
	require.Equal(-1, s.talonIndex)
}

func TestFoundationBuildsUpWithinSuit(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	s.foundations[0] = []cards.Card{cards.New(cards.Heart, cards.Ace)}
	s.talon = []cards.Card{cards.New(cards.Heart, cards.Two)}
	s.talonIndex = 0

	require.NoError(s.Move(PileTalon, 0, 0, PileFoundation, 0))
	require.Len(s.foundations[0], 2)
	require.Equal(cards.New(cards.Heart, cards.Two), s.foundations[0][1])
}

func TestFoundationRejectsRankGapAndSuitMismatch(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	s.foundations[0] = []cards.Card{cards.New(cards.Heart, cards.Ace)}
	s.talon = []cards.Card{
		cards.New(cards.Heart, cards.Three),
		cards.New(cards.Spade, cards.Two),
	}

	// A rank gap within the suit.
	s.talonIndex = 0
	require.NoError(s.Move(PileTalon, 0, 0, PileFoundation, 0))
	require.Len(s.foundations[0], 1)
	require.Len(s.talon, 2)

	// The spade two targets the empty spade foundation and needs an Ace.
	s.talonIndex = 1
	require.NoError(s.Move(PileTalon, 0, 0, PileFoundation, 0))
	require.Empty(s.foundations[2])
	require.Len(s.talon, 2)
	require.Zero(s.Moves())
}

func TestTableauBuildsDownAlternating(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	s.tableaus[0] = []cards.Card{cards.New(cards.Spade, cards.Nine)}
	s.visibility[0] = 0
	s.tableaus[1] = []cards.Card{cards.New(cards.Heart, cards.Ten)}
	s.visibility[1] = 0

	require.NoError(s.Move(PileTableau, 0, 0, PileTableau, 1))
	require.Empty(s.tableaus[0])
	require.Equal(cards.New(cards.Spade, cards.Nine), s.tableaus[1][1])
}

func TestTableauRejectsSameColor(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	s.tableaus[0] = []cards.Card{cards.New(cards.Spade, cards.Nine)}
	s.visibility[0] = 0
	s.tableaus[1] = []cards.Card{cards.New(cards.Club, cards.Ten)}
	s.visibility[1] = 0

	require.NoError(s.Move(PileTableau, 0, 0, PileTableau, 1))
	require.Len(s.tableaus[0], 1)
	require.Len(s.tableaus[1], 1)
}

func TestTableauRunMovesTogether(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	s.tableaus[0] = []cards.Card{
		cards.New(cards.Spade, cards.King), // face-down
		cards.New(cards.Heart, cards.Ten),
		cards.New(cards.Spade, cards.Nine),
		cards.New(cards.Heart, cards.Eight),
	}
	s.visibility[0] = 1
	s.tableaus[1] = []cards.Card{cards.New(cards.Spade, cards.Jack)}
	s.visibility[1] = 0

	require.NoError(s.Move(PileTableau, 0, 1, PileTableau, 1))
	require.Equal([]cards.Card{
		cards.New(cards.Spade, cards.Jack),
		cards.New(cards.Heart, cards.Ten),
		cards.New(cards.Spade, cards.Nine),
		cards.New(cards.Heart, cards.Eight),
	}, s.tableaus[1])

	// The face-down King is revealed once the run leaves.
	require.Equal([]cards.Card{cards.New(cards.Spade, cards.King)}, s.tableaus[0])
	require.Zero(s.visibility[0])
}

func TestRunStartClampedToVisibility(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	s.tableaus[0] = []cards.Card{
		cards.New(cards.Spade, cards.King), // face-down
		cards.New(cards.Heart, cards.Ten),
	}
	s.visibility[0] = 1
	s.tableaus[1] = []cards.Card{cards.New(cards.Spade, cards.Jack)}
	s.visibility[1] = 0

	// Asking for the face-down card moves the face-up run instead.
	require.NoError(s.Move(PileTableau, 0, 0, PileTableau, 1))
	require.Equal(cards.New(cards.Heart, cards.Ten), s.tableaus[1][1])
	require.Len(s.tableaus[0], 1)
}

func TestMoveIndexErrors(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)
	before := s.Snapshot()

	require.ErrorIs(s.Move(PileTableau, TableauCount, 0, PileTableau, 0), ErrIndexOutOfRange)
	require.ErrorIs(s.Move(PileTableau, 0, 0, PileFoundation, FoundationCount), ErrIndexOutOfRange)
	require.ErrorIs(s.Move(PileInvalid, 0, 0, PileTableau, 0), ErrInvalidPile)

	s.tableaus[0] = []cards.Card{cards.New(cards.Spade, cards.King)}
	s.visibility[0] = 0
	require.ErrorIs(s.Move(PileTableau, 0, 5, PileTableau, 1), ErrIndexOutOfRange)

	require.Equal(before.Moves, s.Moves())
}

func TestRejectedMoveEmitsNothing(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	events := 0
	cancel := s.OnStateUpdated(func(*Solitaire, PileType, int, PileType, int) { events++ })
	defer cancel()

	s.tableaus[0] = []cards.Card{cards.New(cards.Spade, cards.Queen)}
	s.visibility[0] = 0
	s.tableaus[1] = s.tableaus[1][:0]
	s.visibility[1] = 0

	require.NoError(s.Move(PileTableau, 0, 0, PileTableau, 1))
	require.Zero(events)

	require.NoError(s.Move(PileTableau, 1, 0, PileFoundation, 0), "empty source is a silent rejection")
	require.Zero(events)
}

func TestMoveIgnoredOutsidePlaying(t *testing.T) {
	require := require.New(t)

	config := Configuration{MinPlayers: 1, MaxPlayers: 1}
	s := NewSolitaire("test", config).(*Solitaire)
	joined, err := s.TryJoin(&SolitairePlayer{PlayerID: 1, Name: "Ana"})
	require.NoError(err)
	require.True(joined)
	require.Equal(Idle, s.State())

	require.NoError(s.Move(PileTableau, 0, 0, PileTableau, 1))
	s.NextTalonCard()
	require.Equal(-1, s.talonIndex)
	require.Zero(s.Moves())
}

func TestWinTransition(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	var stateEvents []UpdateType
	s.OnUpdated(func(_ Game, update UpdateType) {
		stateEvents = append(stateEvents, update)
	})
	moveEvents := 0
	s.OnStateUpdated(func(*Solitaire, PileType, int, PileType, int) { moveEvents++ })

	s.foundations[0] = []cards.Card{cards.New(cards.Heart, cards.King)}
	s.foundations[1] = []cards.Card{cards.New(cards.Diamond, cards.King)}
	s.foundations[2] = []cards.Card{cards.New(cards.Spade, cards.King)}
	s.foundations[3] = []cards.Card{cards.New(cards.Club, cards.Queen)}
	s.talon = []cards.Card{cards.New(cards.Club, cards.King)}
	s.talonIndex = 0

	require.NoError(s.Move(PileTalon, 0, 0, PileFoundation, 0))
	require.Equal(Done, s.State())
	require.Equal([]UpdateType{StateUpdated}, stateEvents)
	require.Zero(moveEvents, "the winning move reports the state change, not a pile update")

	// The finished game accepts no further moves.
	require.NoError(s.Move(PileTableau, 0, 0, PileTableau, 1))
}

func TestRestartRedeals(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	s.NextTalonCard()
	s.foundations[0] = []cards.Card{cards.New(cards.Heart, cards.Ace)}

	s.Restart()
	require.Equal(Playing, s.State())
	snap := s.Snapshot()
	require.Empty(snap.Foundations[0])
	require.Equal(-1, snap.TalonIndex)
	require.Zero(snap.Moves)
	require.Len(snap.Talon, 24)
}

func TestRestartIgnoredWhileIdle(t *testing.T) {
	require := require.New(t)

	s := NewSolitaire("test", Configuration{MinPlayers: 1, MaxPlayers: 1}).(*Solitaire)
	s.Restart()
	require.Equal(Idle, s.State())
}

func TestCanFinish(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	require.False(s.CanFinish())
	for i := range s.visibility {
		s.visibility[i] = 0
	}
	require.True(s.CanFinish())
}

func TestConcurrentMovesPreserveDeck(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.NextTalonCard()
				if err := s.Move(PileTalon, 0, 0, PileFoundation, 0); err != nil {
					t.Error(err)
				}
				if err := s.Move(PileTableau, i%TableauCount, 0, PileTableau, (i+w+1)%TableauCount); err != nil {
					t.Error(err)
				}
				if err := s.Move(PileTableau, (i+w)%TableauCount, 0, PileFoundation, 0); err != nil {
					t.Error(err)
				}
			}
		}(w)
	}
	wg.Wait()

	// Whatever interleaving happened, exactly one full deck remains spread
	// over the piles, with no card duplicated or lost.
	snap := s.Snapshot()
	seen := make(map[uint16]bool)
	count := func(piles [][]cards.Card) {
		for _, pile := range piles {
			for _, card := range pile {
				require.True(card.Valid())
				require.False(seen[card.ID()], "card %s appears twice", card)
				seen[card.ID()] = true
			}
		}
	}
	count(snap.Foundations)
	count(snap.Tableaus)
	count([][]cards.Card{snap.Talon})
	require.Len(seen, cards.DeckSize)
	require.GreaterOrEqual(snap.TalonIndex, -1)
	require.Less(snap.TalonIndex, len(snap.Talon))
}

func TestTalonCursorStepsBackAfterMove(t *testing.T) {
	require := require.New(t)
	s := newStartedSolitaire(t)

	s.foundations[2] = []cards.Card{cards.New(cards.Spade, cards.Ace)}
	s.talon = []cards.Card{
		cards.New(cards.Heart, cards.Five),
		cards.New(cards.Spade, cards.Two),
		cards.New(cards.Diamond, cards.Five),
	}
	s.talonIndex = 1

	require.NoError(s.Move(PileTalon, 0, 0, PileFoundation, 0))
	require.Equal([]cards.Card{
		cards.New(cards.Heart, cards.Five),
		cards.New(cards.Diamond, cards.Five),
	}, s.talon)
	require.Equal(0, s.talonIndex)
	require.Equal(cards.New(cards.Heart, cards.Five), s.TalonCard())
}
